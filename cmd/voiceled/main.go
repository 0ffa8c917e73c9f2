// Package main provides the entry point for voiceled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mfeld/voiceled/internal/config"
	"github.com/mfeld/voiceled/internal/discord"
	"github.com/mfeld/voiceled/internal/engine"
	"github.com/mfeld/voiceled/internal/event"
	"github.com/mfeld/voiceled/internal/hotkey"
	"github.com/mfeld/voiceled/internal/led"
	"github.com/mfeld/voiceled/internal/schedule"
	"github.com/mfeld/voiceled/internal/web"
)

var (
	configPath string
	dryRun     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "voiceled",
	Short: "Drive a USB RGB LED from Discord voice activity",
	Long:  "A daemon that watches a Discord voice channel for speaking activity and drives a BlinkStick-class USB LED, with a global hotkey toggle and scheduled announcements.",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (required)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate configuration and probe the LED, without connecting to Discord")

	rootCmd.MarkFlagRequired("config")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}

	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	sink, err := buildSink(log, cfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	if dryRun {
		return runDryRun(log, cfg, sink)
	}

	bus := event.NewBus(log, cfg.Events.BufferSize)
	notifier := event.NewNotifier()

	unsubscribe := notifier.Subscribe(func(s event.StatusChanged) {
		log.WithFields(logrus.Fields{
			"state":     s.State,
			"mode":      s.Mode,
			"connected": s.Connected,
			"hardware":  s.Hardware,
		}).Info("Status changed")
	})
	defer unsubscribe()

	eng := engine.New(log, cfg.EngineConfig(), sink, bus, notifier)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("Received shutdown signal")
		bus.Publish(event.Shutdown())

		// A second signal skips the graceful path.
		<-sigCh
		log.Warn("Second signal, forcing exit")
		cancel()
	}()

	var wg sync.WaitGroup

	monitor := discord.NewMonitor(log, discord.Config{
		Token:        cfg.Discord.Token,
		GuildID:      cfg.Discord.GuildID,
		TargetUserID: cfg.Discord.TargetUserID,
	}, bus)
	supervisor := discord.NewSupervisor(log, bus, monitor)

	wg.Add(1)

	go func() {
		defer wg.Done()
		supervisor.Run(ctx)
	}()

	if cfg.Hotkey.Enabled {
		hk, err := hotkey.New(cfg.Hotkey.Combo)
		if err != nil {
			return fmt.Errorf("invalid hotkey combo: %w", err)
		}

		listener := hotkey.NewListener(log, bus, hk)

		wg.Add(1)

		go func() {
			defer wg.Done()
			listener.Run(ctx)
		}()
	}

	for _, ann := range cfg.ScheduleAnnouncements() {
		scheduler := schedule.New(log, bus, ann, nil)

		wg.Add(1)

		go func() {
			defer wg.Done()
			scheduler.Run(ctx)
		}()
	}

	if cfg.Status.Enabled {
		server := web.NewServer(log, cfg.Status.ListenAddr, eng, bus)
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("failed to start status server: %w", err)
		}

		defer func() {
			if err := server.Stop(); err != nil {
				log.WithError(err).Warn("Error stopping status server")
			}
		}()
	}

	// The engine owns the LED and runs in the foreground until shutdown.
	if err := eng.Run(ctx); err != nil {
		log.WithError(err).Error("Engine exited with error")
	}

	cancel()

	if err := monitor.Close(); err != nil {
		log.WithError(err).Warn("Error closing Discord session")
	}

	wg.Wait()
	log.Info("Shutdown complete")

	return nil
}

// buildSink constructs the LED sink from config.
func buildSink(log logrus.FieldLogger, cfg *config.Config) (led.Sink, error) {
	if !cfg.LED.Enabled {
		log.Info("LED output disabled")
		return led.NewNoop(), nil
	}

	sink, err := led.NewBlinkStick(log, cfg.LED.Serial)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LED: %w", err)
	}

	return sink, nil
}

// runDryRun prints the resolved configuration and flashes the LED once,
// without connecting to Discord.
func runDryRun(log logrus.FieldLogger, cfg *config.Config, sink led.Sink) error {
	log.Info("Running in dry-run mode")

	fmt.Println()
	fmt.Println("Resolved configuration:")
	fmt.Printf("  target user:   %s\n", cfg.Discord.TargetUserID)

	if cfg.Discord.GuildID != "" {
		fmt.Printf("  guild:         %s\n", cfg.Discord.GuildID)
	}

	fmt.Printf("  led enabled:   %t\n", cfg.LED.Enabled)

	if cfg.LED.Serial != "" {
		fmt.Printf("  led serial:    %s\n", cfg.LED.Serial)
	}

	fmt.Printf("  debounce:      %s\n", cfg.LED.Debounce.Std())

	if cfg.Hotkey.Enabled {
		fmt.Printf("  hotkey:        %s\n", cfg.Hotkey.Combo)
	} else {
		fmt.Println("  hotkey:        disabled")
	}

	if cfg.Status.Enabled {
		fmt.Printf("  status server: %s\n", cfg.Status.ListenAddr)
	} else {
		fmt.Println("  status server: disabled")
	}

	fmt.Println("  announcements:")

	for _, ann := range cfg.ScheduleAnnouncements() {
		fmt.Printf("    %-12s %s %02d:%02d (%s)\n", ann.ID, ann.Weekday, ann.Hour, ann.Minute, ann.Repeat)
	}

	fmt.Println()

	// Probe the hardware with a short flash.
	probe := cfg.LED.Colors.PowerOn.RGB()
	if err := sink.SetColor(probe); err != nil {
		return fmt.Errorf("LED probe failed: %w", err)
	}

	time.Sleep(500 * time.Millisecond)

	if err := sink.SetColor(cfg.LED.Colors.Off.RGB()); err != nil {
		return fmt.Errorf("LED probe failed: %w", err)
	}

	log.Info("LED probe succeeded")

	return nil
}

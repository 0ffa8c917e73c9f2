// Package config handles loading and validation of application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mfeld/voiceled/internal/engine"
	"github.com/mfeld/voiceled/internal/led"
	"github.com/mfeld/voiceled/internal/schedule"
)

// Duration is a time.Duration that unmarshals from yaml strings like "150ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)

	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the complete application configuration.
type Config struct {
	Discord       DiscordConfig      `yaml:"discord"`
	LED           LEDConfig          `yaml:"led"`
	Hotkey        HotkeyConfig       `yaml:"hotkey"`
	Announcements AnnouncementConfig `yaml:"announcements"`
	Status        StatusConfig       `yaml:"status"`
	Events        EventsConfig       `yaml:"events"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// DiscordConfig holds Discord connection settings.
type DiscordConfig struct {
	Token        string `yaml:"token"`
	GuildID      string `yaml:"guild_id"`
	TargetUserID string `yaml:"target_user_id"`
}

// LEDConfig holds LED hardware and display settings.
type LEDConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Serial        string      `yaml:"serial"` // preferred device; empty means first found
	PowerOnFlash  bool        `yaml:"power_on_flash"`
	Debounce      Duration    `yaml:"debounce"`
	ErrorCooldown Duration    `yaml:"error_cooldown"`
	Colors        ColorScheme `yaml:"colors"`
}

// ColorScheme maps each visual state to an RGB triple.
type ColorScheme struct {
	Idle           Color `yaml:"idle"`
	TargetSpeaking Color `yaml:"target_speaking"`
	OtherSpeaking  Color `yaml:"other_speaking"`
	Announcement   Color `yaml:"announcement"`
	Disconnected   Color `yaml:"disconnected"`
	Error          Color `yaml:"error"`
	Off            Color `yaml:"off"`
	PowerOn        Color `yaml:"power_on"`
}

// Color is one RGB triple.
type Color struct {
	Red   uint8 `yaml:"red"`
	Green uint8 `yaml:"green"`
	Blue  uint8 `yaml:"blue"`
}

// RGB converts to the led package's value type.
func (c Color) RGB() led.RGB {
	return led.RGB{R: c.Red, G: c.Green, B: c.Blue}
}

// HotkeyConfig holds the global hotkey settings.
type HotkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Combo   string `yaml:"combo"`
}

// AnnouncementConfig holds the announcement window and schedules.
type AnnouncementConfig struct {
	Duration  Duration         `yaml:"duration"`
	Schedules []ScheduleConfig `yaml:"schedules"`
}

// ScheduleConfig is one configured announcement slot.
type ScheduleConfig struct {
	ID      string `yaml:"id"`
	Weekday string `yaml:"weekday"`
	Hour    int    `yaml:"hour"`
	Minute  int    `yaml:"minute"`
	Repeat  string `yaml:"repeat"`
}

// StatusConfig holds the status HTTP server settings.
type StatusConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Load reads and parses the configuration from the given file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Defaults()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with every optional field filled in.
func Defaults() *Config {
	return &Config{
		LED: LEDConfig{
			Enabled:       true,
			PowerOnFlash:  true,
			Debounce:      Duration(150 * time.Millisecond),
			ErrorCooldown: Duration(10 * time.Second),
			Colors: ColorScheme{
				Idle:           Color{},
				TargetSpeaking: Color{Green: 255},
				OtherSpeaking:  Color{Red: 255, Green: 255},
				Announcement:   Color{Blue: 255},
				Disconnected:   Color{Red: 255, Green: 92},
				Error:          Color{Red: 255},
				Off:            Color{},
				PowerOn:        Color{Red: 255, Green: 255, Blue: 255},
			},
		},
		Hotkey: HotkeyConfig{
			Enabled: true,
			Combo:   "ctrl+shift+alt+o",
		},
		Announcements: AnnouncementConfig{
			Duration: Duration(2 * time.Minute),
			Schedules: []ScheduleConfig{
				{ID: "weekly", Weekday: "friday", Hour: 19, Minute: 0, Repeat: schedule.RepeatWeekly},
			},
		},
		Status: StatusConfig{
			Enabled:    true,
			ListenAddr: "127.0.0.1:8720",
		},
		Events: EventsConfig{
			BufferSize: 256,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks that all required configuration fields are set and
// consistent.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token is required")
	}

	if c.Discord.TargetUserID == "" {
		return fmt.Errorf("discord.target_user_id is required")
	}

	if c.LED.Debounce < 0 {
		return fmt.Errorf("led.debounce must not be negative")
	}

	if c.LED.ErrorCooldown.Std() < time.Second {
		return fmt.Errorf("led.error_cooldown must be at least 1s")
	}

	if c.Hotkey.Enabled && c.Hotkey.Combo == "" {
		return fmt.Errorf("hotkey.combo is required when the hotkey is enabled")
	}

	if c.Announcements.Duration.Std() <= 0 {
		return fmt.Errorf("announcements.duration must be positive")
	}

	seen := make(map[string]bool)

	for i, s := range c.Announcements.Schedules {
		if s.ID == "" {
			return fmt.Errorf("announcements.schedules[%d].id is required", i)
		}

		if seen[s.ID] {
			return fmt.Errorf("announcements.schedules[%d].id %q is duplicated", i, s.ID)
		}
		seen[s.ID] = true

		if _, ok := weekdays[strings.ToLower(s.Weekday)]; !ok {
			return fmt.Errorf("announcements.schedules[%d].weekday %q is not a weekday name", i, s.Weekday)
		}

		if s.Hour < 0 || s.Hour > 23 {
			return fmt.Errorf("announcements.schedules[%d].hour must be 0-23", i)
		}

		if s.Minute < 0 || s.Minute > 59 {
			return fmt.Errorf("announcements.schedules[%d].minute must be 0-59", i)
		}

		if s.Repeat != schedule.RepeatWeekly && s.Repeat != schedule.RepeatOnce {
			return fmt.Errorf("announcements.schedules[%d].repeat must be %q or %q",
				i, schedule.RepeatWeekly, schedule.RepeatOnce)
		}
	}

	if c.Status.Enabled && c.Status.ListenAddr == "" {
		return fmt.Errorf("status.listen_addr is required when the status server is enabled")
	}

	if c.Events.BufferSize < 1 {
		return fmt.Errorf("events.buffer_size must be at least 1")
	}

	return nil
}

// EngineConfig translates the LED and announcement settings into the
// engine's config.
func (c *Config) EngineConfig() engine.Config {
	colors := map[engine.State]led.RGB{
		engine.StateIdle:           c.LED.Colors.Idle.RGB(),
		engine.StateTargetSpeaking: c.LED.Colors.TargetSpeaking.RGB(),
		engine.StateOtherSpeaking:  c.LED.Colors.OtherSpeaking.RGB(),
		engine.StateAnnouncement:   c.LED.Colors.Announcement.RGB(),
		engine.StateDisconnected:   c.LED.Colors.Disconnected.RGB(),
		engine.StateError:          c.LED.Colors.Error.RGB(),
	}

	cfg := engine.Config{
		Colors:               colors,
		OffColor:             c.LED.Colors.Off.RGB(),
		Debounce:             c.LED.Debounce.Std(),
		AnnouncementDuration: c.Announcements.Duration.Std(),
		ErrorCooldown:        c.LED.ErrorCooldown.Std(),
	}

	if c.LED.PowerOnFlash {
		cfg.PowerOnColor = c.LED.Colors.PowerOn.RGB()
	}

	return cfg
}

// ScheduleAnnouncements translates the schedule entries. Call only after
// Validate.
func (c *Config) ScheduleAnnouncements() []schedule.Announcement {
	out := make([]schedule.Announcement, 0, len(c.Announcements.Schedules))

	for _, s := range c.Announcements.Schedules {
		out = append(out, schedule.Announcement{
			ID:      s.ID,
			Weekday: weekdays[strings.ToLower(s.Weekday)],
			Hour:    s.Hour,
			Minute:  s.Minute,
			Repeat:  s.Repeat,
		})
	}

	return out
}

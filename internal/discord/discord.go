// Package discord watches a Discord voice channel for speaking activity and
// feeds voice events into the bus. The monitor follows the configured target
// user into whatever voice channel they join.
package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/mfeld/voiceled/internal/event"
)

// Config holds Discord connection settings.
type Config struct {
	Token        string
	GuildID      string // optional: restrict following to one guild
	TargetUserID string
}

// Monitor is the voice activity producer. Its connection lifecycle is
// driven by the Supervisor.
type Monitor struct {
	log logrus.FieldLogger
	cfg Config
	bus *event.Bus

	mu       sync.Mutex
	session  *discordgo.Session
	voice    *discordgo.VoiceConnection
	speaking map[string]bool
	dropCh   chan struct{}
}

// NewMonitor creates a monitor. No events flow until Connect succeeds.
func NewMonitor(log logrus.FieldLogger, cfg Config, bus *event.Bus) *Monitor {
	return &Monitor{
		log:      log.WithField("component", "discord"),
		cfg:      cfg,
		bus:      bus,
		speaking: make(map[string]bool),
	}
}

// Connect opens the gateway session and, once guild state arrives, joins the
// target user's voice channel if they are already in one. Reconnection is
// owned by the Supervisor, so the library's own retry is disabled.
func (m *Monitor) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeLocked()

	session, err := discordgo.New("Bot " + m.cfg.Token)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	session.ShouldReconnectOnError = false

	m.dropCh = make(chan struct{})
	dropCh := m.dropCh

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		m.log.WithField("user", r.User.Username).Info("Connected to Discord gateway")
	})

	session.AddHandler(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		m.scanGuild(g.Guild)
	})

	session.AddHandler(func(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		m.onVoiceStateUpdate(v)
	})

	session.AddHandler(func(s *discordgo.Session, d *discordgo.Disconnect) {
		select {
		case <-dropCh:
		default:
			close(dropCh)
		}
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	m.session = session

	return nil
}

// Wait blocks until the gateway connection drops or ctx is cancelled.
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.Lock()
	dropCh := m.dropCh
	m.mu.Unlock()

	if dropCh == nil {
		return fmt.Errorf("not connected")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-dropCh:
		return fmt.Errorf("gateway connection dropped")
	}
}

// Close leaves the voice channel and closes the session.
func (m *Monitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeLocked()

	return nil
}

func (m *Monitor) closeLocked() {
	if m.voice != nil {
		m.voice.Disconnect()
		m.voice = nil
	}

	if m.session != nil {
		m.session.Close()
		m.session = nil
		m.log.Info("Disconnected from Discord")
	}

	m.speaking = make(map[string]bool)
}

// scanGuild joins the target user's current voice channel when guild state
// arrives, so a target already in voice at startup is picked up.
func (m *Monitor) scanGuild(g *discordgo.Guild) {
	if m.cfg.GuildID != "" && g.ID != m.cfg.GuildID {
		return
	}

	for _, vs := range g.VoiceStates {
		if vs.UserID == m.cfg.TargetUserID && vs.ChannelID != "" {
			m.joinVoice(g.ID, vs.ChannelID)
			return
		}
	}
}

// onVoiceStateUpdate follows the target user between voice channels.
func (m *Monitor) onVoiceStateUpdate(v *discordgo.VoiceStateUpdate) {
	if v.UserID != m.cfg.TargetUserID {
		return
	}

	if m.cfg.GuildID != "" && v.GuildID != m.cfg.GuildID {
		return
	}

	if v.ChannelID == "" {
		m.log.Info("Target user left voice, leaving channel")
		m.leaveVoice()

		return
	}

	m.joinVoice(v.GuildID, v.ChannelID)
}

func (m *Monitor) joinVoice(guildID, channelID string) {
	m.mu.Lock()

	if m.voice != nil && m.voice.ChannelID == channelID {
		m.mu.Unlock()
		return
	}

	session := m.session
	m.mu.Unlock()

	if session == nil {
		return
	}

	// Muted but not deafened: speaking updates only arrive while receiving.
	vc, err := session.ChannelVoiceJoin(guildID, channelID, true, false)
	if err != nil {
		m.log.WithError(err).Warn("Failed to join voice channel")
		return
	}

	vc.AddHandler(func(_ *discordgo.VoiceConnection, vs *discordgo.VoiceSpeakingUpdate) {
		m.onSpeakingUpdate(vs)
	})

	m.mu.Lock()
	m.voice = vc
	m.mu.Unlock()

	m.log.WithField("channel", channelID).Info("Joined voice channel")
}

// leaveVoice disconnects from voice and emits stop events for everyone we
// reported as speaking, so no stale speaker survives the departure.
func (m *Monitor) leaveVoice() {
	m.mu.Lock()

	if m.voice != nil {
		m.voice.Disconnect()
		m.voice = nil
	}

	stale := m.speaking
	m.speaking = make(map[string]bool)
	m.mu.Unlock()

	for userID := range stale {
		m.bus.Publish(event.VoiceStop(userID, userID == m.cfg.TargetUserID))
	}
}

// onSpeakingUpdate converts speaking transitions into bus events. Discord
// re-sends the current speaking flag liberally; only real transitions get
// published.
func (m *Monitor) onSpeakingUpdate(vs *discordgo.VoiceSpeakingUpdate) {
	m.mu.Lock()
	was := m.speaking[vs.UserID]

	if vs.Speaking == was {
		m.mu.Unlock()
		return
	}

	if vs.Speaking {
		m.speaking[vs.UserID] = true
	} else {
		delete(m.speaking, vs.UserID)
	}
	m.mu.Unlock()

	isTarget := vs.UserID == m.cfg.TargetUserID
	if vs.Speaking {
		m.bus.Publish(event.VoiceStart(vs.UserID, isTarget))
	} else {
		m.bus.Publish(event.VoiceStop(vs.UserID, isTarget))
	}
}

package discord

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mfeld/voiceled/internal/event"
)

// Backoff bounds for reconnection attempts.
const (
	initialBackoff = time.Second
	maxBackoff     = 60 * time.Second
)

// Session is the connection lifecycle the supervisor manages. Monitor
// implements it against the real gateway.
type Session interface {
	// Connect establishes the session.
	Connect(ctx context.Context) error
	// Wait blocks until the established session drops or ctx is cancelled.
	Wait(ctx context.Context) error
}

// Supervisor keeps a Session connected, retrying with exponential backoff
// and publishing connection events so the engine can degrade and recover.
type Supervisor struct {
	log     logrus.FieldLogger
	bus     *event.Bus
	session Session

	initial time.Duration
	max     time.Duration
}

// NewSupervisor creates a supervisor around a session.
func NewSupervisor(log logrus.FieldLogger, bus *event.Bus, session Session) *Supervisor {
	return &Supervisor{
		log:     log.WithField("component", "supervisor"),
		bus:     bus,
		session: session,
		initial: initialBackoff,
		max:     maxBackoff,
	}
}

// Run connects and reconnects until the context is cancelled. A lost
// connection publishes exactly one ConnectionLost; the next successful
// connect publishes ConnectionRestored. The first successful connect at
// startup publishes nothing.
func (s *Supervisor) Run(ctx context.Context) error {
	delay := s.initial
	lost := false
	attempt := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := s.session.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}

			if !lost {
				lost = true
				s.bus.Publish(event.ConnectionLost())
			}

			attempt++
			s.log.WithError(err).WithFields(logrus.Fields{
				"attempt":     attempt,
				"retry_after": delay,
			}).Warn("Connection attempt failed")

			if err := sleep(ctx, delay); err != nil {
				return nil
			}

			delay *= 2
			if delay > s.max {
				delay = s.max
			}

			continue
		}

		if lost {
			lost = false
			s.bus.Publish(event.ConnectionRestored())
			s.log.Info("Connection restored")
		}

		delay = s.initial
		attempt = 0

		err := s.session.Wait(ctx)
		if ctx.Err() != nil {
			return nil
		}

		s.log.WithError(err).Warn("Connection lost, reconnecting")
		lost = true
		s.bus.Publish(event.ConnectionLost())
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package hotkey

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mfeld/voiceled/internal/event"
)

// Listener turns physical presses of the registered combo into toggle
// events on the bus, one per press. OS key-repeat fires duplicate keydown
// callbacks while the combo is held; those are swallowed until the matching
// keyup arrives.
type Listener struct {
	log logrus.FieldLogger
	bus *event.Bus
	hk  Hotkey
}

// NewListener creates a listener around an already-built hotkey.
func NewListener(log logrus.FieldLogger, bus *event.Bus, hk Hotkey) *Listener {
	return &Listener{
		log: log.WithField("component", "hotkey"),
		bus: bus,
		hk:  hk,
	}
}

// Run registers the hook and blocks until the context is cancelled.
// Registration failure disables the hotkey feature but is not fatal to the
// rest of the system.
func (l *Listener) Run(ctx context.Context) error {
	if err := l.hk.Register(); err != nil {
		l.log.WithError(err).Warn("Global hotkey registration failed, hotkey toggle disabled")
		return nil
	}

	defer l.hk.Unregister()
	l.log.Info("Global hotkey registered")

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-l.hk.Keydown():
			l.bus.Publish(event.HotkeyToggle())

		drain:
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-l.hk.Keydown():
					// Key-repeat while held; not a new press.
				case <-l.hk.Keyup():
					// A final repeat can race ahead of the release.
					select {
					case <-l.hk.Keydown():
					default:
					}

					break drain
				}
			}
		}
	}
}

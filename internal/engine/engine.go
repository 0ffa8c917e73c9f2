// Package engine resolves the events produced by the voice monitor, hotkey
// listener and announcement schedulers into a single LED state and drives
// the hardware sink. It is the only component that ever writes to the sink,
// so hardware access is serialized by construction.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mfeld/voiceled/internal/event"
	"github.com/mfeld/voiceled/internal/led"
)

// State is a named visual state. Exactly one is current at any instant.
type State string

const (
	StateIdle           State = "idle"
	StateTargetSpeaking State = "target_speaking"
	StateOtherSpeaking  State = "other_speaking"
	StateAnnouncement   State = "announcement"
	StateDisconnected   State = "disconnected"
	StateError          State = "error"
)

// Mode selects how non-target voice activity is interpreted. In PTT mode,
// ambient voice-activity detection from non-target users is ignored for
// state resolution; the speaker set is still tracked so switching back to
// voice-activity mode resolves correctly.
type Mode string

const (
	ModeVoiceActivity Mode = "voice_activity"
	ModePTT           Mode = "ptt"
)

// Toggle flips between the two modes.
func (m Mode) Toggle() Mode {
	if m == ModePTT {
		return ModeVoiceActivity
	}

	return ModePTT
}

// Config holds engine tuning. Colors must contain an entry for every state.
type Config struct {
	Colors               map[State]led.RGB
	OffColor             led.RGB
	PowerOnColor         led.RGB // zero value skips the startup flash
	Debounce             time.Duration
	AnnouncementDuration time.Duration
	ErrorCooldown        time.Duration
}

// powerOnHold is how long the startup flash stays lit before the engine
// takes over.
const powerOnHold = 500 * time.Millisecond

// Engine is the single consumer of the event bus. All fields below mu are
// the published snapshot; everything else is owned by the consume goroutine.
type Engine struct {
	log      logrus.FieldLogger
	cfg      Config
	sink     led.Sink
	bus      *event.Bus
	notifier *event.Notifier
	now      func() time.Time

	speakers       speakerSet
	mode           Mode
	connected      bool
	announceID     string
	announceUntil  time.Time
	hwOK           bool
	lastErr        error
	current        State
	lastTransition time.Time

	lastWritten *led.RGB
	pending     bool

	debounceT *time.Timer
	announceT *time.Timer
	retryT    *time.Timer

	mu   sync.RWMutex
	snap Snapshot
}

// New creates an engine. The bus must have exactly this one consumer.
func New(log logrus.FieldLogger, cfg Config, sink led.Sink, bus *event.Bus, notifier *event.Notifier) *Engine {
	e := &Engine{
		log:       log.WithField("component", "engine"),
		cfg:       cfg,
		sink:      sink,
		bus:       bus,
		notifier:  notifier,
		now:       time.Now,
		speakers:  newSpeakerSet(),
		mode:      ModeVoiceActivity,
		connected: true,
		hwOK:      true,
		current:   StateIdle,
		debounceT: newStoppedTimer(),
		announceT: newStoppedTimer(),
		retryT:    newStoppedTimer(),
	}
	e.lastTransition = e.now()
	e.publishStatus()

	return e
}

// Run consumes events until a shutdown event arrives or the context is
// cancelled. The final action in either case is a single write restoring the
// configured off color.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("Engine started")

	if e.cfg.PowerOnColor != (led.RGB{}) {
		e.write(e.cfg.PowerOnColor)
		select {
		case <-time.After(powerOnHold):
		case <-ctx.Done():
			e.shutdown()
			return nil
		}
	}

	e.apply()

	for {
		select {
		case ev := <-e.bus.Priority():
			if e.handle(ev) {
				e.shutdown()
				return nil
			}

		case ev := <-e.bus.Events():
			// Priority lane wins when both are ready.
			select {
			case p := <-e.bus.Priority():
				if e.handle(p) {
					e.shutdown()
					return nil
				}
			default:
			}

			if e.handle(ev) {
				e.shutdown()
				return nil
			}

		case <-e.debounceT.C:
			e.pending = false
			e.apply()

		case <-e.announceT.C:
			e.announceID = ""
			e.announceUntil = time.Time{}
			e.transition()

		case <-e.retryT.C:
			e.retryHardware()

		case <-ctx.Done():
			e.shutdown()
			return nil
		}
	}
}

// handle applies one event to the internal state and recomputes the resolved
// LED state. Returns true when the engine must exit.
func (e *Engine) handle(ev event.Event) bool {
	switch ev.Kind {
	case event.KindVoiceStart:
		e.speakers.add(ev.UserID, ev.IsTarget)

	case event.KindVoiceStop:
		e.speakers.remove(ev.UserID)

	case event.KindHotkeyToggle:
		e.mode = e.mode.Toggle()
		e.log.WithField("mode", e.mode).Info("Toggle mode changed")

	case event.KindScheduledTrigger:
		now := e.now()
		active := e.announceID != "" && now.Before(e.announceUntil)

		if active && ev.AnnouncementID == e.announceID {
			// Re-trigger of the running announcement is a no-op.
			return false
		}

		e.announceID = ev.AnnouncementID
		e.announceUntil = now.Add(e.cfg.AnnouncementDuration)
		resetTimer(e.announceT, e.cfg.AnnouncementDuration)
		e.log.WithField("announcement", ev.AnnouncementID).Info("Announcement window opened")

	case event.KindConnectionLost:
		e.connected = false
		e.speakers.clear()
		e.log.Warn("Voice session lost")

	case event.KindConnectionRestored:
		e.connected = true
		e.log.Info("Voice session restored")

	case event.KindShutdown:
		return true
	}

	e.transition()

	return false
}

// resolve computes the state implied by the current internal data, in strict
// priority order. A lost session outranks the hardware-error display: with
// the session down there is nothing meaningful to indicate, and connection
// loss must read as Disconnected no matter what preceded it. Hardware write
// suppression is governed by hwOK independently of the displayed state.
func (e *Engine) resolve() State {
	switch {
	case !e.connected:
		return StateDisconnected
	case !e.hwOK:
		return StateError
	case e.announceID != "":
		return StateAnnouncement
	case e.speakers.targets() > 0:
		return StateTargetSpeaking
	case e.mode == ModeVoiceActivity && e.speakers.others() > 0:
		return StateOtherSpeaking
	default:
		return StateIdle
	}
}

// transition recomputes the resolved state and, when it changed, records the
// transition and schedules a hardware apply at the close of the debounce
// window. Rapid flapping within the window collapses into the final state.
func (e *Engine) transition() {
	next := e.resolve()
	if next != e.current {
		e.log.WithFields(logrus.Fields{
			"from": e.current,
			"to":   next,
		}).Debug("State transition")

		e.current = next
		e.lastTransition = e.now()
		e.scheduleApply()
	}

	e.publishStatus()
}

func (e *Engine) scheduleApply() {
	if e.cfg.Debounce <= 0 {
		e.apply()
		return
	}

	if !e.pending {
		e.pending = true
		resetTimer(e.debounceT, e.cfg.Debounce)
	}
}

// apply writes the color for the current state. Writes are suppressed while
// the hardware is in its failure cooldown; the retry timer owns recovery.
func (e *Engine) apply() {
	if !e.hwOK {
		return
	}

	e.write(e.cfg.Colors[e.current])
}

// write sends a color to the sink, deduplicating repeat writes of the same
// color. A failure moves the engine into the error state and starts the
// cooldown; event consumption continues so internal state stays truthful.
func (e *Engine) write(c led.RGB) {
	if e.lastWritten != nil && *e.lastWritten == c {
		return
	}

	if err := e.sink.SetColor(c); err != nil {
		e.hwOK = false
		e.lastErr = err
		e.lastWritten = nil
		resetTimer(e.retryT, e.cfg.ErrorCooldown)
		e.log.WithError(err).Warn("Hardware write failed, suppressing writes")
		e.transition()

		return
	}

	e.lastWritten = &c
}

// retryHardware probes the sink after the cooldown. On success the state
// implied by the current internal data is applied immediately, not the state
// from before the failure.
func (e *Engine) retryHardware() {
	e.hwOK = true

	target := e.resolve()
	if err := e.sink.SetColor(e.cfg.Colors[target]); err != nil {
		e.hwOK = false
		e.lastErr = err
		resetTimer(e.retryT, e.cfg.ErrorCooldown)
		e.log.WithError(err).Warn("Hardware still unavailable")

		return
	}

	c := e.cfg.Colors[target]
	e.lastWritten = &c
	e.lastErr = nil
	e.log.Info("Hardware recovered")
	e.transition()
}

// shutdown restores the off color and leaves the device released to the
// caller (main owns sink.Close).
func (e *Engine) shutdown() {
	e.log.Info("Engine stopping, restoring off color")

	if err := e.sink.SetColor(e.cfg.OffColor); err != nil {
		e.log.WithError(err).Warn("Failed to restore off color")
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.C
	}

	return t
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}

	t.Reset(d)
}

package engine

import (
	"time"

	"github.com/mfeld/voiceled/internal/event"
)

// Snapshot is a point-in-time view of the engine state. It is a value type,
// safe to use after the engine has moved on.
type Snapshot struct {
	State          State     `json:"state"`
	Mode           Mode      `json:"mode"`
	Connected      bool      `json:"connected"`
	HardwareOK     bool      `json:"hardware_ok"`
	LastError      string    `json:"last_error,omitempty"`
	LastTransition time.Time `json:"last_transition"`
	TargetSpeakers int       `json:"target_speakers"`
	OtherSpeakers  int       `json:"other_speakers"`
}

// Snapshot returns a copy of the current engine state. Safe to call from any
// goroutine at any rate; never triggers a transition.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.snap
}

// publishStatus refreshes the published snapshot from the consume loop's
// view and notifies subscribers if anything changed.
func (e *Engine) publishStatus() {
	s := Snapshot{
		State:          e.current,
		Mode:           e.mode,
		Connected:      e.connected,
		HardwareOK:     e.hwOK,
		LastTransition: e.lastTransition,
		TargetSpeakers: e.speakers.targets(),
		OtherSpeakers:  e.speakers.others(),
	}
	if e.lastErr != nil {
		s.LastError = e.lastErr.Error()
	}

	e.mu.Lock()
	changed := s != e.snap
	e.snap = s
	e.mu.Unlock()

	if changed && e.notifier != nil {
		e.notifier.Notify(event.StatusChanged{
			State:     string(s.State),
			Mode:      string(s.Mode),
			Connected: s.Connected,
			Hardware:  s.HardwareOK,
			LastError: s.LastError,
			At:        s.LastTransition,
		})
	}
}

// Package event defines the events flowing from producers to the LED state
// engine, and the bus that carries them.
package event

import "time"

// Kind identifies an event variant.
type Kind string

const (
	KindVoiceStart         Kind = "voice_start"
	KindVoiceStop          Kind = "voice_stop"
	KindHotkeyToggle       Kind = "hotkey_toggle"
	KindScheduledTrigger   Kind = "scheduled_trigger"
	KindConnectionLost     Kind = "connection_lost"
	KindConnectionRestored Kind = "connection_restored"
	KindShutdown           Kind = "shutdown"
)

// Event is a single occurrence pushed onto the bus by a producer. Seq and
// Time are assigned by the bus at publish time; events are immutable after
// that.
type Event struct {
	Kind Kind
	Seq  uint64
	Time time.Time

	// UserID and IsTarget are set for voice events.
	UserID   string
	IsTarget bool

	// AnnouncementID is set for scheduled triggers.
	AnnouncementID string
}

// VoiceStart builds a speaking-start event.
func VoiceStart(userID string, isTarget bool) Event {
	return Event{Kind: KindVoiceStart, UserID: userID, IsTarget: isTarget}
}

// VoiceStop builds a speaking-stop event.
func VoiceStop(userID string, isTarget bool) Event {
	return Event{Kind: KindVoiceStop, UserID: userID, IsTarget: isTarget}
}

// HotkeyToggle builds a toggle event.
func HotkeyToggle() Event {
	return Event{Kind: KindHotkeyToggle}
}

// ScheduledTrigger builds an announcement trigger event.
func ScheduledTrigger(announcementID string) Event {
	return Event{Kind: KindScheduledTrigger, AnnouncementID: announcementID}
}

// ConnectionLost builds a session-drop event.
func ConnectionLost() Event {
	return Event{Kind: KindConnectionLost}
}

// ConnectionRestored builds a session-recovery event.
func ConnectionRestored() Event {
	return Event{Kind: KindConnectionRestored}
}

// Shutdown builds a termination event.
func Shutdown() Event {
	return Event{Kind: KindShutdown}
}

// priority reports whether the kind must never be dropped and is delivered
// on the bus's priority lane.
func (k Kind) priority() bool {
	switch k {
	case KindShutdown, KindConnectionLost, KindConnectionRestored:
		return true
	default:
		return false
	}
}

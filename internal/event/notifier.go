package event

import (
	"time"

	kevent "github.com/kelindar/event"
)

// Notification type constants for kelindar/event.
const (
	typeStatusChanged uint32 = iota + 1
)

// StatusChanged is broadcast by the engine whenever the resolved LED state,
// toggle mode, connection health or hardware health changes. It is a plain
// value; subscribers must not expect later mutation.
type StatusChanged struct {
	State     string    `json:"state"`
	Mode      string    `json:"mode"`
	Connected bool      `json:"connected"`
	Hardware  bool      `json:"hardware_ok"`
	LastError string    `json:"last_error,omitempty"`
	At        time.Time `json:"at"`
}

// Type returns the notification type identifier for StatusChanged.
func (StatusChanged) Type() uint32 { return typeStatusChanged }

// Notifier fans status transitions out to any number of UI-side subscribers.
// It is the read-only side channel out of the engine; nothing published here
// feeds back into the bus.
type Notifier struct {
	dispatcher *kevent.Dispatcher
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{dispatcher: kevent.NewDispatcher()}
}

// Notify broadcasts a status transition to all subscribers.
func (n *Notifier) Notify(s StatusChanged) {
	kevent.Publish(n.dispatcher, s)
}

// Subscribe registers a handler for status transitions and returns an
// unsubscribe function.
func (n *Notifier) Subscribe(handler func(StatusChanged)) func() {
	return kevent.Subscribe(n.dispatcher, handler)
}

package event

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultCapacity is the main-lane buffer size used when the config does not
// override it.
const DefaultCapacity = 256

// priorityCapacity bounds the priority lane. Priority events are rare
// (shutdown fires once, connection transitions come from a single supervisor)
// so the lane never fills in practice.
const priorityCapacity = 16

// Bus is a multi-producer single-consumer event channel. The main lane is
// bounded and lossy under backpressure: when full, the oldest queued event is
// dropped with a warning. Shutdown and connection events travel on a separate
// priority lane that never drops; the consumer drains that lane first.
type Bus struct {
	log      logrus.FieldLogger
	main     chan Event
	priority chan Event
	seq      atomic.Uint64
	dropped  atomic.Uint64
}

// NewBus creates a bus with the given main-lane capacity.
func NewBus(log logrus.FieldLogger, capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Bus{
		log:      log.WithField("component", "bus"),
		main:     make(chan Event, capacity),
		priority: make(chan Event, priorityCapacity),
	}
}

// Publish stamps the event with a sequence number and arrival time and
// enqueues it. Publish never blocks a producer beyond the drop-oldest
// shuffle on a full main lane.
func (b *Bus) Publish(ev Event) {
	ev.Seq = b.seq.Add(1)
	ev.Time = time.Now()

	if ev.Kind.priority() {
		b.priority <- ev
		return
	}

	select {
	case b.main <- ev:
		return
	default:
	}

	// Main lane full: shed the oldest queued event to make room. Racing the
	// consumer here is fine; whoever wins, the new event gets a slot.
	select {
	case old := <-b.main:
		b.dropped.Add(1)
		b.log.WithFields(logrus.Fields{
			"kind": old.Kind,
			"seq":  old.Seq,
		}).Warn("Bus full, dropped oldest event")
	default:
	}

	select {
	case b.main <- ev:
	default:
		b.dropped.Add(1)
		b.log.WithField("kind", ev.Kind).Warn("Bus full, dropped event")
	}
}

// Events returns the main lane. Consumed only by the engine.
func (b *Bus) Events() <-chan Event {
	return b.main
}

// Priority returns the priority lane. Consumed only by the engine, before
// the main lane.
func (b *Bus) Priority() <-chan Event {
	return b.priority
}

// Dropped returns the number of events shed under backpressure.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

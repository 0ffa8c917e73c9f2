package event

import (
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func TestPublishAssignsSequenceAndTime(t *testing.T) {
	b := NewBus(testLogger(), 8)

	b.Publish(VoiceStart("u1", true))
	b.Publish(VoiceStop("u1", true))

	first := <-b.Events()
	second := <-b.Events()

	if first.Seq == 0 || second.Seq == 0 {
		t.Error("events should carry non-zero sequence numbers")
	}
	if second.Seq <= first.Seq {
		t.Errorf("sequence not monotonic: %d then %d", first.Seq, second.Seq)
	}
	if first.Time.IsZero() || second.Time.IsZero() {
		t.Error("events should carry arrival timestamps")
	}
}

func TestSingleProducerOrderPreserved(t *testing.T) {
	b := NewBus(testLogger(), 32)

	for i := 0; i < 10; i++ {
		b.Publish(ScheduledTrigger(fmt.Sprintf("a%d", i)))
	}

	for i := 0; i < 10; i++ {
		ev := <-b.Events()
		if want := fmt.Sprintf("a%d", i); ev.AnnouncementID != want {
			t.Fatalf("event %d: id = %s, want %s", i, ev.AnnouncementID, want)
		}
	}
}

func TestFullBusDropsOldest(t *testing.T) {
	b := NewBus(testLogger(), 4)

	for i := 0; i < 6; i++ {
		b.Publish(ScheduledTrigger(fmt.Sprintf("a%d", i)))
	}

	if got := b.Dropped(); got != 2 {
		t.Errorf("dropped = %d, want 2", got)
	}

	// The oldest events were shed; delivery starts at a2.
	ev := <-b.Events()
	if ev.AnnouncementID != "a2" {
		t.Errorf("first delivered = %s, want a2", ev.AnnouncementID)
	}
}

func TestPriorityKindsNeverDropped(t *testing.T) {
	b := NewBus(testLogger(), 2)

	// Saturate the main lane.
	for i := 0; i < 8; i++ {
		b.Publish(HotkeyToggle())
	}

	b.Publish(ConnectionLost())
	b.Publish(ConnectionRestored())
	b.Publish(Shutdown())

	wantKinds := []Kind{KindConnectionLost, KindConnectionRestored, KindShutdown}
	for i, want := range wantKinds {
		select {
		case ev := <-b.Priority():
			if ev.Kind != want {
				t.Errorf("priority event %d: kind = %s, want %s", i, ev.Kind, want)
			}
		default:
			t.Fatalf("priority event %d missing", i)
		}
	}
}

func TestVoiceEventCarriesUser(t *testing.T) {
	b := NewBus(testLogger(), 4)

	b.Publish(VoiceStart("user-42", false))

	ev := <-b.Events()
	if ev.Kind != KindVoiceStart {
		t.Errorf("kind = %s, want %s", ev.Kind, KindVoiceStart)
	}
	if ev.UserID != "user-42" {
		t.Errorf("user = %s, want user-42", ev.UserID)
	}
	if ev.IsTarget {
		t.Error("IsTarget should be false")
	}
}

package schedule

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mfeld/voiceled/internal/event"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func TestNextOccurrence(t *testing.T) {
	ann := Announcement{
		ID:      "friday",
		Weekday: time.Friday,
		Hour:    19,
		Minute:  0,
		Repeat:  RepeatWeekly,
	}
	s := New(testLogger(), event.NewBus(testLogger(), 4), ann, time.UTC)

	// 2026-08-21 is a Friday.
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			name: "earlier the same day",
			from: time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 21, 19, 0, 0, 0, time.UTC),
		},
		{
			name: "later the same day rolls a week",
			from: time.Date(2026, 8, 21, 20, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 28, 19, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at the slot rolls a week",
			from: time.Date(2026, 8, 21, 19, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 28, 19, 0, 0, 0, time.UTC),
		},
		{
			name: "midweek",
			from: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC), // Monday
			want: time.Date(2026, 8, 28, 19, 0, 0, 0, time.UTC),
		},
		{
			name: "day after the slot",
			from: time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC), // Saturday
			want: time.Date(2026, 8, 28, 19, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := s.nextOccurrence(tc.from)
			if !got.Equal(tc.want) {
				t.Errorf("nextOccurrence(%v) = %v, want %v", tc.from, got, tc.want)
			}
		})
	}
}

func TestNextOccurrenceNeverInPast(t *testing.T) {
	ann := Announcement{ID: "a", Weekday: time.Monday, Hour: 9, Minute: 30}
	s := New(testLogger(), event.NewBus(testLogger(), 4), ann, time.UTC)

	from := time.Date(2026, 8, 23, 23, 59, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		got := s.nextOccurrence(from)
		if !got.After(from) {
			t.Fatalf("nextOccurrence(%v) = %v, not after from", from, got)
		}
		if got.Weekday() != time.Monday || got.Hour() != 9 || got.Minute() != 30 {
			t.Fatalf("nextOccurrence(%v) = %v, wrong slot", from, got)
		}

		from = from.Add(17 * time.Hour)
	}
}

func TestRunFiresOnceAndExits(t *testing.T) {
	log := testLogger()
	bus := event.NewBus(log, 4)

	ann := Announcement{
		ID:      "friday",
		Weekday: time.Friday,
		Hour:    19,
		Minute:  0,
		Repeat:  RepeatOnce,
	}
	s := New(log, bus, ann, time.UTC)

	// Pin the clock just short of the slot so Run fires almost immediately.
	target := time.Date(2026, 8, 21, 19, 0, 0, 0, time.UTC)
	base := target.Add(-50 * time.Millisecond)
	start := time.Now()
	s.now = func() time.Time { return base.Add(time.Since(start)) }

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case ev := <-bus.Events():
		if ev.Kind != event.KindScheduledTrigger {
			t.Errorf("kind = %s, want %s", ev.Kind, event.KindScheduledTrigger)
		}
		if ev.AnnouncementID != "friday" {
			t.Errorf("id = %s, want friday", ev.AnnouncementID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("trigger not published")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after a once announcement")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	log := testLogger()
	bus := event.NewBus(log, 4)

	ann := Announcement{ID: "a", Weekday: time.Monday, Hour: 9, Minute: 0, Repeat: RepeatWeekly}
	s := New(log, bus, ann, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit on cancellation")
	}
}

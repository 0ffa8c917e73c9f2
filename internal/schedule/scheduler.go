// Package schedule fires announcement triggers at configured wall-clock
// instants. Each configured announcement runs its own Scheduler instance.
package schedule

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mfeld/voiceled/internal/event"
)

// Repeat policies.
const (
	RepeatWeekly = "weekly"
	RepeatOnce   = "once"
)

// maxSleepChunk bounds how long the scheduler sleeps without re-reading the
// wall clock. Recomputing the remaining duration on every wake is what keeps
// clock jumps (DST, manual changes) from double-firing or skipping forever.
const maxSleepChunk = time.Minute

// Announcement is one configured trigger.
type Announcement struct {
	ID      string
	Weekday time.Weekday
	Hour    int
	Minute  int
	Repeat  string
}

// Scheduler publishes a ScheduledTrigger at every occurrence of its
// announcement's wall-clock slot.
type Scheduler struct {
	log logrus.FieldLogger
	bus *event.Bus
	ann Announcement
	loc *time.Location
	now func() time.Time
}

// New creates a scheduler for one announcement, evaluated in loc (nil means
// the system local zone).
func New(log logrus.FieldLogger, bus *event.Bus, ann Announcement, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		log: log.WithField("component", "scheduler").WithField("announcement", ann.ID),
		bus: bus,
		ann: ann,
		loc: loc,
		now: time.Now,
	}
}

// Run fires triggers until the context is cancelled. For RepeatOnce it
// returns nil after the single fire.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		target := s.nextOccurrence(s.now())
		s.log.WithField("at", target).Info("Next announcement scheduled")

		if err := s.sleepUntil(ctx, target); err != nil {
			return nil
		}

		s.log.Info("Announcement fired")
		s.bus.Publish(event.ScheduledTrigger(s.ann.ID))

		if s.ann.Repeat == RepeatOnce {
			return nil
		}
	}
}

// sleepUntil blocks until the wall clock passes target, sleeping in bounded
// chunks and recomputing the remainder on every wake.
func (s *Scheduler) sleepUntil(ctx context.Context, target time.Time) error {
	for {
		remaining := target.Sub(s.now())
		if remaining <= 0 {
			return nil
		}

		if remaining > maxSleepChunk {
			remaining = maxSleepChunk
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// nextOccurrence returns the first instant strictly after from that matches
// the announcement's weekday/hour/minute in the scheduler's location.
// time.Date normalizes across DST boundaries, so the returned instant is the
// real wall-clock slot even when the offset changes in between.
func (s *Scheduler) nextOccurrence(from time.Time) time.Time {
	from = from.In(s.loc)

	candidate := time.Date(from.Year(), from.Month(), from.Day(), s.ann.Hour, s.ann.Minute, 0, 0, s.loc)

	days := (int(s.ann.Weekday) - int(from.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, days)

	if !candidate.After(from) {
		candidate = candidate.AddDate(0, 0, 7)
	}

	return candidate
}

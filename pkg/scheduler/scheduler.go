// Package scheduler fires callbacks on calendar boundaries.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// FireFunc is invoked by a Trigger. at is the boundary the trigger was waiting for.
type FireFunc func(ctx context.Context, at time.Time)

// Trigger runs fire on its own schedule until ctx is cancelled.
type Trigger interface {
	Run(ctx context.Context, fire FireFunc)
}

// Clock abstracts wall time so triggers can be driven from tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// DailyTrigger fires once per calendar day at midnight in Location.
type DailyTrigger struct {
	Location *time.Location
	Clock    Clock
	Logger   *zap.Logger

	// FireOnStart fires immediately with the current time before waiting for midnight.
	FireOnStart bool
}

// NewDailyTrigger builds a trigger for loc using the system clock.
func NewDailyTrigger(loc *time.Location, fireOnStart bool, logger *zap.Logger) *DailyTrigger {
	return &DailyTrigger{Location: loc, FireOnStart: fireOnStart, Logger: logger}
}

// Run blocks until ctx is done.
func (t *DailyTrigger) Run(ctx context.Context, fire FireFunc) {
	clock := t.Clock
	if clock == nil {
		clock = systemClock{}
	}
	loc := t.Location
	if loc == nil {
		loc = time.Local
	}
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if t.FireOnStart {
		if ctx.Err() != nil {
			return
		}
		fire(ctx, clock.Now().In(loc))
	}

	for {
		now := clock.Now()
		next := NextMidnight(now, loc)
		logger.Debug("daily trigger armed", zap.Time("next", next), zap.Duration("wait", next.Sub(now)))
		select {
		case <-ctx.Done():
			return
		case <-clock.After(next.Sub(now)):
		}
		if ctx.Err() != nil {
			return
		}
		fire(ctx, next)
	}
}

// NextMidnight returns the first midnight in loc strictly after now. On days where
// a DST change skips midnight the result is the first instant of the next day.
func NextMidnight(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
}

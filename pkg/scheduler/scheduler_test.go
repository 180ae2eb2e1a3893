package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock jumps forward by the requested duration whenever After is called.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.waits = append(c.waits, d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	c.mu.Unlock()
	return ch
}

func TestNextMidnight(t *testing.T) {
	loc := time.FixedZone("SAST", 2*60*60)

	next := NextMidnight(time.Date(2024, time.March, 10, 21, 59, 0, 0, time.UTC), loc)
	assert.Equal(t, time.Date(2024, time.March, 11, 0, 0, 0, 0, loc), next)

	// 22:30 UTC is already the 11th in SAST.
	next = NextMidnight(time.Date(2024, time.March, 10, 22, 30, 0, 0, time.UTC), loc)
	assert.Equal(t, time.Date(2024, time.March, 12, 0, 0, 0, 0, loc), next)

	exact := time.Date(2024, time.March, 11, 0, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, time.March, 12, 0, 0, 0, 0, loc), NextMidnight(exact, loc))

	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, loc), NextMidnight(time.Date(2024, time.December, 31, 12, 0, 0, 0, loc), loc))
}

func TestNextMidnightAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	now := time.Date(2024, time.March, 9, 23, 0, 0, 0, loc)
	next := NextMidnight(now, loc)
	assert.Equal(t, 10, next.Day())
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, time.Hour, next.Sub(now))
}

func TestDailyTriggerFiresOncePerDay(t *testing.T) {
	loc := time.UTC
	clock := &fakeClock{now: time.Date(2024, time.June, 1, 15, 0, 0, 0, loc)}
	trigger := &DailyTrigger{Location: loc, Clock: clock}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var fired []time.Time
	trigger.Run(ctx, func(ctx context.Context, at time.Time) {
		fired = append(fired, at)
		if len(fired) == 3 {
			cancel()
		}
	})

	require.Len(t, fired, 3)
	assert.Equal(t, time.Date(2024, time.June, 2, 0, 0, 0, 0, loc), fired[0])
	assert.Equal(t, time.Date(2024, time.June, 3, 0, 0, 0, 0, loc), fired[1])
	assert.Equal(t, time.Date(2024, time.June, 4, 0, 0, 0, 0, loc), fired[2])
	assert.Equal(t, 9*time.Hour, clock.waits[0])
	assert.Equal(t, 24*time.Hour, clock.waits[1])
}

func TestDailyTriggerFireOnStart(t *testing.T) {
	start := time.Date(2024, time.June, 1, 15, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	trigger := &DailyTrigger{Location: time.UTC, Clock: clock, FireOnStart: true}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var fired []time.Time
	trigger.Run(ctx, func(ctx context.Context, at time.Time) {
		fired = append(fired, at)
		if len(fired) == 2 {
			cancel()
		}
	})

	require.Len(t, fired, 2)
	assert.Equal(t, start, fired[0])
	assert.Equal(t, time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC), fired[1])
}

func TestDailyTriggerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	trigger := NewDailyTrigger(time.UTC, true, nil)

	done := make(chan struct{})
	go func() {
		trigger.Run(ctx, func(context.Context, time.Time) { t.Error("fired after cancel") })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("trigger did not stop")
	}
}

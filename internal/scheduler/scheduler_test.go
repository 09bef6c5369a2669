package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyAtNextOccurrence(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	s := New(loc, nil, nil)
	s.DailyAt("reminders", 8, 0, func(context.Context) error { return nil })

	// Before 8 AM local: fires today.
	now := time.Date(2024, 6, 3, 6, 0, 0, 0, loc)
	next := s.jobs[0].next(now)
	assert.Equal(t, time.Date(2024, 6, 3, 8, 0, 0, 0, loc), next)

	// At exactly 8 AM: fires tomorrow, not instantly again.
	now = time.Date(2024, 6, 3, 8, 0, 0, 0, loc)
	next = s.jobs[0].next(now)
	assert.Equal(t, time.Date(2024, 6, 4, 8, 0, 0, 0, loc), next)

	// After 8 AM: fires tomorrow.
	now = time.Date(2024, 6, 3, 9, 30, 0, 0, loc)
	next = s.jobs[0].next(now)
	assert.Equal(t, time.Date(2024, 6, 4, 8, 0, 0, 0, loc), next)
}

func TestEveryNextOccurrence(t *testing.T) {
	s := New(time.UTC, nil, nil)
	s.Every("sweep", 30*time.Minute, func(context.Context) error { return nil })

	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(30*time.Minute), s.jobs[0].next(now))
}

func TestEveryJobFires(t *testing.T) {
	s := New(time.UTC, nil, nil)
	var runs int32
	s.Every("tick", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(60 * time.Millisecond)
	cancel()
	s.Wait()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(2))
}

func TestJobErrorDoesNotStopLoop(t *testing.T) {
	s := New(time.UTC, nil, nil)
	var runs int32
	s.Every("flaky", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return errors.New("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	s.Wait()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(2))
}

func TestJobPanicIsRecovered(t *testing.T) {
	s := New(time.UTC, nil, nil)
	var runs int32
	s.Every("panicky", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		panic("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	s.Wait()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(2))
}

package waitlist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrollRequest(name string) EnrollRequest {
	return EnrollRequest{
		PatientName:  name,
		PatientDOB:   "1985-03-12",
		PatientPhone: "+15551230001",
		VisitType:    "Follow-Up",
	}
}

func TestEnrollAlwaysSucceeds(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), nil, nil)

	entry, err := svc.Enroll(context.Background(), enrollRequest("Jane Doe"))
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, entry.Status)
	assert.False(t, entry.AddedAt.IsZero())
}

func TestListDefaultsToWaiting(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), nil, nil)
	ctx := context.Background()

	entry, err := svc.Enroll(ctx, enrollRequest("Jane Doe"))
	require.NoError(t, err)
	require.NoError(t, svc.MarkOffered(ctx, entry.ID))

	_, err = svc.Enroll(ctx, enrollRequest("Still Waiting"))
	require.NoError(t, err)

	entries, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Still Waiting", entries[0].PatientName)
}

func TestMarkOfferedUsesServiceClock(t *testing.T) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	svc := NewService(NewInMemoryRepository(), nil, nil).WithClock(func() time.Time { return now })
	ctx := context.Background()

	entry, err := svc.Enroll(ctx, enrollRequest("Jane Doe"))
	require.NoError(t, err)
	require.NoError(t, svc.MarkOffered(ctx, entry.ID))

	offered, err := svc.List(ctx, StatusOffered)
	require.NoError(t, err)
	require.Len(t, offered, 1)
	require.NotNil(t, offered[0].OfferedAt)
	assert.True(t, offered[0].OfferedAt.Equal(now))
}

func TestReleaseStaleOffersHoldWindow(t *testing.T) {
	clock := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	svc := NewService(NewInMemoryRepository(), nil, nil).WithClock(func() time.Time { return clock })
	ctx := context.Background()

	stale, err := svc.Enroll(ctx, enrollRequest("Stale"))
	require.NoError(t, err)
	fresh, err := svc.Enroll(ctx, enrollRequest("Fresh"))
	require.NoError(t, err)

	require.NoError(t, svc.MarkOffered(ctx, stale.ID))
	clock = clock.Add(1 * time.Minute)
	require.NoError(t, svc.MarkOffered(ctx, fresh.ID))

	// Exactly two hours after the first offer: the first is released, the
	// second (1h59m old) is not.
	clock = clock.Add(119 * time.Minute)
	released, err := svc.ReleaseStaleOffers(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	waiting, err := svc.List(ctx, StatusWaiting)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, "Stale", waiting[0].PatientName)
}

func TestReleaseStaleOffersNothingToDo(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), nil, nil)

	released, err := svc.ReleaseStaleOffers(context.Background(), 2*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, released)
}

func TestFindMatchesOldestFirst(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), nil, nil)
	ctx := context.Background()

	for _, name := range []string{"First", "Second"} {
		_, err := svc.Enroll(ctx, enrollRequest(name))
		require.NoError(t, err)
	}

	matches, err := svc.FindMatches(ctx, "2024-06-04", "Dr. Smith")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "First", matches[0].PatientName)
}

package waitlist

import (
	"context"
	"sync"
	"time"
)

// Repository defines the interface for waitlist storage. Enrollment order is
// preserved: listings and match results come back oldest-enrolled first.
type Repository interface {
	Add(ctx context.Context, entry *Entry) error
	List(ctx context.Context, status Status) ([]*Entry, error)
	FindMatches(ctx context.Context, date, provider string) ([]*Entry, error)
	MarkOffered(ctx context.Context, id string, at time.Time) error
	MarkBooked(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) (bool, error)
	ReleaseStaleOffers(ctx context.Context, cutoff time.Time) (int, error)
}

// InMemoryRepository keeps entries in an append-only slice guarded by a
// mutex. Entries are never deleted; removal is a status transition.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

var _ Repository = (*InMemoryRepository)(nil)

// Add stores a new waiting entry, assigning a fresh ID.
func (r *InMemoryRepository) Add(ctx context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := newID()
	for r.findLocked(id) != nil {
		id = newID()
	}

	entry.ID = id
	entry.Status = StatusWaiting
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}
	entry.OfferedAt = nil
	r.entries = append(r.entries, entry.clone())
	return nil
}

// List returns entries with the given status in enrollment order.
func (r *InMemoryRepository) List(ctx context.Context, status Status) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Entry
	for _, e := range r.entries {
		if e.Status == status {
			out = append(out, e.clone())
		}
	}
	return out, nil
}

// FindMatches returns every waiting entry whose preferred provider is unset
// or equal to provider, and whose preferred dates are empty or contain date.
// Both conditions default to "any" when unset so cancellations backfill fast.
func (r *InMemoryRepository) FindMatches(ctx context.Context, date, provider string) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*Entry
	for _, e := range r.entries {
		if e.Status != StatusWaiting {
			continue
		}
		if e.Provider != "" && e.Provider != provider {
			continue
		}
		if len(e.PreferredDates) > 0 && !containsDate(e.PreferredDates, date) {
			continue
		}
		matches = append(matches, e.clone())
	}
	return matches, nil
}

// MarkOffered transitions a waiting entry to offered, stamping OfferedAt.
// Unknown IDs are a silent no-op.
func (r *InMemoryRepository) MarkOffered(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e := r.findLocked(id); e != nil && e.Status == StatusWaiting {
		e.Status = StatusOffered
		t := at.UTC()
		e.OfferedAt = &t
	}
	return nil
}

// MarkBooked transitions an entry to the terminal booked status. Unknown IDs
// are a silent no-op.
func (r *InMemoryRepository) MarkBooked(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e := r.findLocked(id); e != nil && e.Status != StatusRemoved {
		e.Status = StatusBooked
		e.OfferedAt = nil
	}
	return nil
}

// Remove transitions an entry to the terminal removed status and reports
// whether the ID existed.
func (r *InMemoryRepository) Remove(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.findLocked(id)
	if e == nil {
		return false, nil
	}
	e.Status = StatusRemoved
	e.OfferedAt = nil
	return true, nil
}

// ReleaseStaleOffers reverts offered entries whose OfferedAt is at or before
// cutoff back to waiting, clearing OfferedAt. Returns the number released.
func (r *InMemoryRepository) ReleaseStaleOffers(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	released := 0
	for _, e := range r.entries {
		if e.Status != StatusOffered || e.OfferedAt == nil {
			continue
		}
		if e.OfferedAt.After(cutoff) {
			continue
		}
		e.Status = StatusWaiting
		e.OfferedAt = nil
		released++
	}
	return released, nil
}

func (r *InMemoryRepository) findLocked(id string) *Entry {
	for _, e := range r.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func containsDate(dates []string, date string) bool {
	for _, d := range dates {
		if d == date {
			return true
		}
	}
	return false
}

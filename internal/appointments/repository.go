package appointments

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/clinic-receptionist/internal/schedule"
)

// Repository defines the interface for appointment storage. Implementations
// own the conflict-avoidance invariant: at most one scheduled appointment per
// (date, provider, time) triple, checked inside the same critical section as
// the write.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	Get(ctx context.Context, id string) (*Appointment, error)
	Find(ctx context.Context, name, dob string) ([]*Appointment, error)
	BookedTimes(ctx context.Context, date, provider string) (map[string]bool, error)
	Move(ctx context.Context, id, newDate, newTime string) (*Appointment, error)
	Cancel(ctx context.Context, id, reason string) (*Appointment, error)
	ScheduledOn(ctx context.Context, date string) ([]*Appointment, error)
}

// InMemoryRepository stores appointments in a process-lifetime map guarded by
// a single mutex. Records grow without bound; that is an accepted limitation
// of the in-memory design.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*Appointment
	catalog *schedule.Catalog
}

// NewInMemoryRepository creates an empty in-memory repository. The catalog
// supplies slot ordering for sorted listings.
func NewInMemoryRepository(catalog *schedule.Catalog) *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*Appointment),
		catalog: catalog,
	}
}

var _ Repository = (*InMemoryRepository)(nil)

// Create stores a new scheduled appointment, assigning a fresh ID. It fails
// with ErrConflict when the requested triple is already held.
func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slotHeld(appt.Date, appt.Provider, appt.Time, "") {
		return fmt.Errorf("%w: %s on %s with %s", ErrConflict, appt.Time, appt.Date, appt.Provider)
	}

	id := newID()
	for _, exists := r.byID[id]; exists; _, exists = r.byID[id] {
		id = newID()
	}

	appt.ID = id
	appt.Status = StatusScheduled
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now().UTC()
	}
	r.byID[id] = appt.clone()
	return nil
}

// Get returns a copy of the appointment with the given ID.
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return appt.clone(), nil
}

// Find matches scheduled appointments by case-insensitive name substring and,
// when supplied, exact date of birth. Results are ordered by date then slot.
func (r *InMemoryRepository) Find(ctx context.Context, name, dob string) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nameLower := strings.ToLower(name)
	var matches []*Appointment
	for _, appt := range r.byID {
		if appt.Status != StatusScheduled {
			continue
		}
		if !strings.Contains(strings.ToLower(appt.PatientName), nameLower) {
			continue
		}
		if dob != "" && appt.PatientDOB != dob {
			continue
		}
		matches = append(matches, appt.clone())
	}
	r.sortByDateAndSlot(matches)
	return matches, nil
}

// BookedTimes returns the slot labels held by scheduled appointments for the
// given (date, provider) pair.
func (r *InMemoryRepository) BookedTimes(ctx context.Context, date, provider string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booked := make(map[string]bool)
	for _, appt := range r.byID {
		if appt.Status == StatusScheduled && appt.Date == date && appt.Provider == provider {
			booked[appt.Time] = true
		}
	}
	return booked, nil
}

// Move reschedules an appointment to a new date and time, appending an audit
// note. Rescheduling onto the appointment's own current slot succeeds.
func (r *InMemoryRepository) Move(ctx context.Context, id, newDate, newTime string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if appt.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: appointment %s is already %s", ErrInvalidState, id, appt.Status)
	}
	if r.slotHeld(newDate, appt.Provider, newTime, id) {
		return nil, fmt.Errorf("%w: %s on %s with %s", ErrConflict, newTime, newDate, appt.Provider)
	}

	appt.Date = newDate
	appt.Time = newTime
	appt.Notes += fmt.Sprintf(" | Rescheduled to %s %s", newDate, newTime)
	return appt.clone(), nil
}

// Cancel transitions a scheduled appointment to cancelled, appending an audit
// note. The record is preserved for history and waitlist matching.
func (r *InMemoryRepository) Cancel(ctx context.Context, id, reason string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if appt.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: this appointment is already cancelled", ErrInvalidState)
	}

	appt.Status = StatusCancelled
	if reason != "" {
		appt.Notes += " | Cancelled: " + reason
	} else {
		appt.Notes += " | Cancelled"
	}
	return appt.clone(), nil
}

// ScheduledOn lists scheduled appointments for the given date, ordered by slot.
func (r *InMemoryRepository) ScheduledOn(ctx context.Context, date string) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Appointment
	for _, appt := range r.byID {
		if appt.Status == StatusScheduled && appt.Date == date {
			out = append(out, appt.clone())
		}
	}
	r.sortByDateAndSlot(out)
	return out, nil
}

// slotHeld reports whether a scheduled appointment other than excludeID holds
// the triple. Callers must hold the lock.
func (r *InMemoryRepository) slotHeld(date, provider, timeLabel, excludeID string) bool {
	for _, appt := range r.byID {
		if appt.ID == excludeID {
			continue
		}
		if appt.Status == StatusScheduled && appt.Date == date && appt.Provider == provider && appt.Time == timeLabel {
			return true
		}
	}
	return false
}

func (r *InMemoryRepository) sortByDateAndSlot(appts []*Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		if appts[i].Date != appts[j].Date {
			return appts[i].Date < appts[j].Date
		}
		return r.catalog.SlotIndex(appts[i].Time) < r.catalog.SlotIndex(appts[j].Time)
	})
}

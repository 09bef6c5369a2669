package waitlist

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the waitlist-entry state machine:
// waiting -> offered -> booked, offered -> waiting (offer expired),
// waiting|offered -> removed. booked and removed are terminal.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusOffered Status = "offered"
	StatusBooked  Status = "booked"
	StatusRemoved Status = "removed"
)

// Entry is a patient waiting for an opening. Provider empty means any
// provider; PreferredDates empty means any date. OfferedAt is set if and only
// if the status is offered.
type Entry struct {
	ID             string     `json:"id"`
	PatientName    string     `json:"patient_name"`
	PatientDOB     string     `json:"patient_dob"`
	PatientPhone   string     `json:"patient_phone"`
	Provider       string     `json:"provider,omitempty"`
	VisitType      string     `json:"visit_type"`
	PreferredDates []string   `json:"preferred_dates"`
	Notes          string     `json:"notes"`
	Status         Status     `json:"status"`
	AddedAt        time.Time  `json:"added_at"`
	OfferedAt      *time.Time `json:"offered_at,omitempty"`
}

func (e *Entry) clone() *Entry {
	dup := *e
	dup.PreferredDates = append([]string(nil), e.PreferredDates...)
	if e.OfferedAt != nil {
		t := *e.OfferedAt
		dup.OfferedAt = &t
	}
	return &dup
}

func newID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

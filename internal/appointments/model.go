package appointments

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status tracks the appointment lifecycle.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
)

// Appointment is a booked visit. Records are created only by booking and are
// never deleted; cancellation is a status transition that preserves history.
type Appointment struct {
	ID           string    `json:"id"`
	PatientName  string    `json:"patient_name"`
	PatientDOB   string    `json:"patient_dob"`
	PatientPhone string    `json:"patient_phone"`
	Provider     string    `json:"provider"`
	VisitType    string    `json:"visit_type"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	Notes        string    `json:"notes"`
	IsNewPatient bool      `json:"is_new_patient"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *Appointment) clone() *Appointment {
	dup := *a
	return &dup
}

// newID returns a short confirmation number: the first 8 hex characters of a
// UUIDv4, uppercased. Collisions are guarded at insert time.
func newID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

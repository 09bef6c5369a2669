package appointments

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/clinic-receptionist/internal/observability/metrics"
	"github.com/wolfman30/clinic-receptionist/internal/schedule"
	"github.com/wolfman30/clinic-receptionist/internal/waitlist"
	"github.com/wolfman30/clinic-receptionist/pkg/logging"
)

const (
	// maxSlotsPerProvider caps how many free slots a single provider
	// contributes to an availability response.
	maxSlotsPerProvider = 6

	// maxWaitlistOffers caps how many waitlisted patients are offered a
	// freed slot per cancellation.
	maxWaitlistOffers = 3
)

// Notifier delivers patient-facing messages. Every method is best-effort and
// returns success rather than an error; failures must never surface into the
// mutation that triggered them.
type Notifier interface {
	BookingConfirmation(ctx context.Context, phone string, appt *Appointment) bool
	IntakeFormLink(ctx context.Context, phone, patientName string) bool
	Rescheduled(ctx context.Context, phone string, appt *Appointment) bool
	Cancelled(ctx context.Context, phone string, appt *Appointment) bool
	WaitlistOffer(ctx context.Context, phone, patientName, date, timeLabel, provider string) bool
}

// WaitlistRegistry is the slice of the waitlist service the ledger needs to
// backfill cancellations. Only these two public operations are used.
type WaitlistRegistry interface {
	FindMatches(ctx context.Context, date, provider string) ([]*waitlist.Entry, error)
	MarkOffered(ctx context.Context, id string) error
}

// Service is the Appointment Ledger: it owns appointment records, answers
// availability queries, and coordinates the cancel -> waitlist-offer flow.
type Service struct {
	repo     Repository
	catalog  *schedule.Catalog
	calendar *schedule.Calendar
	notifier Notifier
	registry WaitlistRegistry
	metrics  *metrics.EngineMetrics
	logger   *logging.Logger
	days     int
}

// NewService creates an appointment ledger service. registry and notifier may
// be nil; the corresponding side effects are then skipped.
func NewService(
	repo Repository,
	catalog *schedule.Catalog,
	calendar *schedule.Calendar,
	notifier Notifier,
	registry WaitlistRegistry,
	m *metrics.EngineMetrics,
	logger *logging.Logger,
	availabilityDays int,
) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if availabilityDays <= 0 {
		availabilityDays = 5
	}
	return &Service{
		repo:     repo,
		catalog:  catalog,
		calendar: calendar,
		notifier: notifier,
		registry: registry,
		metrics:  m,
		logger:   logger,
		days:     availabilityDays,
	}
}

// ProviderAvailability lists a provider's earliest free slots on a day.
type ProviderAvailability struct {
	Provider string   `json:"provider"`
	Times    []string `json:"times"`
}

// Availability is the availability-query response. It carries the roster and
// visit types so a caller can present booking options without a second trip.
type Availability struct {
	Available  map[string][]ProviderAvailability `json:"available"`
	Providers  []string                          `json:"providers"`
	VisitTypes []string                          `json:"visit_types"`
}

// AvailableSlots computes free slots per (day, provider). Days default to the
// next business days; providers default to the full roster. Providers with no
// free slots are omitted, as are days where no provider has any.
func (s *Service) AvailableSlots(ctx context.Context, date, provider string) (*Availability, error) {
	providers := []string{provider}
	if provider == "" {
		providers = s.catalog.ProviderNames()
	}
	days := []string{date}
	if date == "" {
		days = s.calendar.NextBusinessDays(s.days)
	}

	available := make(map[string][]ProviderAvailability)
	for _, day := range days {
		var daySlots []ProviderAvailability
		for _, prov := range providers {
			booked, err := s.repo.BookedTimes(ctx, day, prov)
			if err != nil {
				return nil, err
			}
			var free []string
			for _, slot := range s.catalog.Slots() {
				if booked[slot] {
					continue
				}
				free = append(free, slot)
				if len(free) == maxSlotsPerProvider {
					break
				}
			}
			if len(free) > 0 {
				daySlots = append(daySlots, ProviderAvailability{Provider: prov, Times: free})
			}
		}
		if len(daySlots) > 0 {
			available[day] = daySlots
		}
	}

	return &Availability{
		Available:  available,
		Providers:  s.catalog.ProviderNames(),
		VisitTypes: s.catalog.VisitTypes(),
	}, nil
}

// BookRequest carries the fields needed to book an appointment.
type BookRequest struct {
	PatientName  string `json:"patient_name"`
	PatientDOB   string `json:"patient_dob"`
	PatientPhone string `json:"patient_phone"`
	Provider     string `json:"provider"`
	VisitType    string `json:"visit_type"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Notes        string `json:"notes,omitempty"`
	IsNewPatient bool   `json:"is_new_patient,omitempty"`
}

// Book creates a new scheduled appointment. The slot is re-validated inside
// the repository's critical section, guarding the race between an earlier
// availability query and this write. Confirmation messages are best-effort.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	appt := &Appointment{
		PatientName:  req.PatientName,
		PatientDOB:   req.PatientDOB,
		PatientPhone: req.PatientPhone,
		Provider:     req.Provider,
		VisitType:    req.VisitType,
		Date:         req.Date,
		Time:         req.Time,
		Notes:        req.Notes,
		IsNewPatient: req.IsNewPatient,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		if errors.Is(err, ErrConflict) {
			s.metrics.ObserveConflict()
		}
		return nil, err
	}

	s.logger.Info("appointment booked",
		"id", appt.ID,
		"provider", appt.Provider,
		"date", appt.Date,
		"time", appt.Time,
	)
	s.metrics.ObserveBooking()

	if s.notifier != nil {
		if !s.notifier.BookingConfirmation(ctx, appt.PatientPhone, appt) {
			s.logger.Warn("booking confirmation not delivered", "id", appt.ID)
		}
		if appt.IsNewPatient {
			s.notifier.IntakeFormLink(ctx, appt.PatientPhone, appt.PatientName)
		}
	}
	return appt, nil
}

// Find looks up scheduled appointments by patient name substring and optional
// date of birth, ordered by date then time.
func (s *Service) Find(ctx context.Context, name, dob string) ([]*Appointment, error) {
	return s.repo.Find(ctx, name, dob)
}

// ScheduledOn lists scheduled appointments for a date; used by batch jobs.
func (s *Service) ScheduledOn(ctx context.Context, date string) ([]*Appointment, error) {
	return s.repo.ScheduledOn(ctx, date)
}

// Reschedule moves an appointment to a new date/time. The new slot is
// validated against other scheduled appointments inside the repository lock.
func (s *Service) Reschedule(ctx context.Context, id, newDate, newTime string) (*Appointment, error) {
	appt, err := s.repo.Move(ctx, id, newDate, newTime)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			s.metrics.ObserveConflict()
		}
		return nil, err
	}

	s.logger.Info("appointment rescheduled", "id", appt.ID, "date", newDate, "time", newTime)
	s.metrics.ObserveReschedule()

	if s.notifier != nil && !s.notifier.Rescheduled(ctx, appt.PatientPhone, appt) {
		s.logger.Warn("reschedule notification not delivered", "id", appt.ID)
	}
	return appt, nil
}

// Cancel transitions an appointment to cancelled, notifies the patient, and
// offers the freed slot to matching waitlisted patients. Every side effect is
// best-effort: the cancellation is already committed and is never undone.
func (s *Service) Cancel(ctx context.Context, id, reason string) (*Appointment, error) {
	appt, err := s.repo.Cancel(ctx, id, reason)
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment cancelled", "id", appt.ID, "reason", reason)
	s.metrics.ObserveCancellation()

	if s.notifier != nil && !s.notifier.Cancelled(ctx, appt.PatientPhone, appt) {
		s.logger.Warn("cancellation notification not delivered", "id", appt.ID)
	}

	s.offerFreedSlot(ctx, appt)
	return appt, nil
}

// offerFreedSlot offers the cancelled appointment's slot to up to
// maxWaitlistOffers waiting patients, oldest-enrolled first.
func (s *Service) offerFreedSlot(ctx context.Context, appt *Appointment) {
	if s.registry == nil {
		return
	}

	matches, err := s.registry.FindMatches(ctx, appt.Date, appt.Provider)
	if err != nil {
		s.logger.Warn("waitlist match lookup failed", "error", err, "appointment_id", appt.ID)
		return
	}

	offered := 0
	for _, entry := range matches {
		if offered == maxWaitlistOffers {
			break
		}
		if s.notifier != nil {
			s.notifier.WaitlistOffer(ctx, entry.PatientPhone, entry.PatientName, appt.Date, appt.Time, appt.Provider)
		}
		if err := s.registry.MarkOffered(ctx, entry.ID); err != nil {
			s.logger.Warn("waitlist offer transition failed", "error", err, "entry_id", entry.ID)
			continue
		}
		s.logger.Info("waitlist offer sent",
			"entry_id", entry.ID,
			"date", appt.Date,
			"time", appt.Time,
			"provider", appt.Provider,
		)
		s.metrics.ObserveWaitlistOffer()
		offered++
	}
}

package waitlist

import (
	"context"
	"time"

	"github.com/wolfman30/clinic-receptionist/internal/observability/metrics"
	"github.com/wolfman30/clinic-receptionist/pkg/logging"
)

// Service is the Waitlist Registry: it owns waitlist-entry records and their
// lifecycle transitions.
type Service struct {
	repo    Repository
	metrics *metrics.EngineMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewService creates a waitlist registry service.
func NewService(repo Repository, m *metrics.EngineMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, metrics: m, logger: logger, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// EnrollRequest carries the fields needed to join the waitlist.
type EnrollRequest struct {
	PatientName    string   `json:"patient_name"`
	PatientDOB     string   `json:"patient_dob"`
	PatientPhone   string   `json:"patient_phone"`
	VisitType      string   `json:"visit_type"`
	Provider       string   `json:"provider,omitempty"`
	PreferredDates []string `json:"preferred_dates,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// Enroll adds a patient to the waitlist. Enrollment always succeeds.
func (s *Service) Enroll(ctx context.Context, req EnrollRequest) (*Entry, error) {
	entry := &Entry{
		PatientName:    req.PatientName,
		PatientDOB:     req.PatientDOB,
		PatientPhone:   req.PatientPhone,
		Provider:       req.Provider,
		VisitType:      req.VisitType,
		PreferredDates: req.PreferredDates,
		Notes:          req.Notes,
		AddedAt:        s.now().UTC(),
	}
	if err := s.repo.Add(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("waitlist entry added",
		"id", entry.ID,
		"provider", entry.Provider,
		"preferred_dates", len(entry.PreferredDates),
	)
	s.metrics.ObserveWaitlistEnrolled()
	return entry, nil
}

// List returns entries with the given status; default is waiting.
func (s *Service) List(ctx context.Context, status Status) ([]*Entry, error) {
	if status == "" {
		status = StatusWaiting
	}
	return s.repo.List(ctx, status)
}

// FindMatches returns waiting entries that could take a newly opened
// (date, provider) slot, oldest-enrolled first.
func (s *Service) FindMatches(ctx context.Context, date, provider string) ([]*Entry, error) {
	return s.repo.FindMatches(ctx, date, provider)
}

// MarkOffered transitions waiting -> offered, stamping the offer time.
func (s *Service) MarkOffered(ctx context.Context, id string) error {
	return s.repo.MarkOffered(ctx, id, s.now())
}

// MarkBooked records that an offered patient called back and booked.
func (s *Service) MarkBooked(ctx context.Context, id string) error {
	return s.repo.MarkBooked(ctx, id)
}

// Remove takes an entry off the waitlist; reports whether the ID existed.
func (s *Service) Remove(ctx context.Context, id string) (bool, error) {
	return s.repo.Remove(ctx, id)
}

// ReleaseStaleOffers reverts offers older than the hold window back to
// waiting so unclaimed slots return to the pool instead of starving others.
func (s *Service) ReleaseStaleOffers(ctx context.Context, holdWindow time.Duration) (int, error) {
	cutoff := s.now().Add(-holdWindow)
	released, err := s.repo.ReleaseStaleOffers(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if released > 0 {
		s.logger.Info("stale waitlist offers released", "count", released)
		s.metrics.ObserveOffersReleased(released)
	}
	return released, nil
}

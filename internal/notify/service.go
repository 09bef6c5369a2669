package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/clinic-receptionist/internal/appointments"
	"github.com/wolfman30/clinic-receptionist/internal/observability/metrics"
	"github.com/wolfman30/clinic-receptionist/pkg/logging"
)

// SMSSender delivers a single text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Config carries the clinic details woven into every message body.
type Config struct {
	ClinicName       string
	ClinicPhone      string
	IntakeFormURL    string
	PatientPortalURL string
}

// Service composes and dispatches patient notifications. Every method is
// fire-and-forget: it returns whether the message went out and never an
// error, so a failed send can never roll back the mutation that caused it.
type Service struct {
	sms     SMSSender
	cfg     Config
	metrics *metrics.EngineMetrics
	logger  *logging.Logger
}

// NewService creates a notification dispatcher.
func NewService(sms SMSSender, cfg Config, m *metrics.EngineMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{sms: sms, cfg: cfg, metrics: m, logger: logger}
}

var _ appointments.Notifier = (*Service)(nil)

// send delivers one message, logging and counting the outcome.
func (s *Service) send(ctx context.Context, kind, to, body string) bool {
	if !strings.HasPrefix(to, "+") {
		s.logger.Warn("invalid phone number for SMS", "kind", kind, "to", to)
		s.metrics.ObserveNotification(kind, false)
		return false
	}
	if s.sms == nil {
		s.logger.Warn("SMS sender not configured, dropping message", "kind", kind, "to", to)
		s.metrics.ObserveNotification(kind, false)
		return false
	}
	if err := s.sms.SendSMS(ctx, to, body); err != nil {
		s.logger.Error("SMS send failed", "kind", kind, "to", to, "error", err)
		s.metrics.ObserveNotification(kind, false)
		return false
	}
	s.logger.Info("SMS sent", "kind", kind, "to", to)
	s.metrics.ObserveNotification(kind, true)
	return true
}

// BookingConfirmation texts the patient a booking confirmation.
func (s *Service) BookingConfirmation(ctx context.Context, phone string, appt *appointments.Appointment) bool {
	body := fmt.Sprintf(
		"%s\nYour appointment is confirmed!\n"+
			"  Patient: %s\n  Provider: %s\n  Date: %s\n  Time: %s\n  Type: %s\n  Confirmation #: %s\n\n"+
			"Please arrive 15 min early with your insurance card and photo ID.\n"+
			"To cancel/reschedule call: %s",
		s.cfg.ClinicName, appt.PatientName, appt.Provider, appt.Date, appt.Time,
		appt.VisitType, appt.ID, s.cfg.ClinicPhone,
	)
	return s.send(ctx, "confirmation", phone, body)
}

// IntakeFormLink sends a new patient the intake form link, when configured.
func (s *Service) IntakeFormLink(ctx context.Context, phone, patientName string) bool {
	if s.cfg.IntakeFormURL == "" {
		s.logger.Info("intake form URL not configured, skipping intake SMS")
		return false
	}
	body := fmt.Sprintf(
		"Welcome to %s, %s!\n\n"+
			"Please complete your new patient intake forms before your appointment:\n%s\n\n"+
			"Questions? Call us at %s.",
		s.cfg.ClinicName, patientName, s.cfg.IntakeFormURL, s.cfg.ClinicPhone,
	)
	return s.send(ctx, "intake_form", phone, body)
}

// Reminder sends the 24-hour reminder.
func (s *Service) Reminder(ctx context.Context, phone string, appt *appointments.Appointment) bool {
	body := fmt.Sprintf(
		"Reminder from %s:\nYou have an appointment TOMORROW\n"+
			"  %s with %s\n  %s at %s\n\n"+
			"Reply CONFIRM to confirm or call %s to reschedule.\nConf #: %s",
		s.cfg.ClinicName, appt.VisitType, appt.Provider, appt.Date, appt.Time,
		s.cfg.ClinicPhone, appt.ID,
	)
	return s.send(ctx, "reminder", phone, body)
}

// Rescheduled notifies the patient their appointment moved.
func (s *Service) Rescheduled(ctx context.Context, phone string, appt *appointments.Appointment) bool {
	body := fmt.Sprintf(
		"%s\nYour appointment has been rescheduled.\n"+
			"  Provider: %s\n  New date: %s\n  New time: %s\n  Conf #: %s\n\n"+
			"Call %s if you need to make changes.",
		s.cfg.ClinicName, appt.Provider, appt.Date, appt.Time, appt.ID, s.cfg.ClinicPhone,
	)
	return s.send(ctx, "rescheduled", phone, body)
}

// Cancelled notifies the patient their appointment was cancelled.
func (s *Service) Cancelled(ctx context.Context, phone string, appt *appointments.Appointment) bool {
	body := fmt.Sprintf(
		"%s\nYour appointment on %s at %s with %s has been cancelled.\n"+
			"Call %s to reschedule.",
		s.cfg.ClinicName, appt.Date, appt.Time, appt.Provider, s.cfg.ClinicPhone,
	)
	return s.send(ctx, "cancelled", phone, body)
}

// WaitlistOffer offers a newly opened slot to a waitlisted patient.
func (s *Service) WaitlistOffer(ctx context.Context, phone, patientName, date, timeLabel, provider string) bool {
	body := fmt.Sprintf(
		"%s\nGood news, %s! An appointment has opened up:\n"+
			"  %s\n  %s at %s\n\n"+
			"Call %s now to claim this slot. "+
			"It will be offered to others if not claimed within 2 hours.",
		s.cfg.ClinicName, patientName, provider, date, timeLabel, s.cfg.ClinicPhone,
	)
	return s.send(ctx, "waitlist_offer", phone, body)
}

// FollowUp sends the post-visit check-in message.
func (s *Service) FollowUp(ctx context.Context, phone, patientName, provider string) bool {
	body := fmt.Sprintf(
		"%s\nHi %s, we hope your visit with %s went well!\n"+
			"If you have any questions or concerns, please call us at %s.\n"+
			"You can also request a follow-up appointment when you call.",
		s.cfg.ClinicName, patientName, provider, s.cfg.ClinicPhone,
	)
	return s.send(ctx, "follow_up", phone, body)
}

// LabResultsReady notifies a patient their lab results are available.
func (s *Service) LabResultsReady(ctx context.Context, phone, patientName, provider string) bool {
	body := fmt.Sprintf("%s\nHi %s, your lab results are now available.\n", s.cfg.ClinicName, patientName)
	if s.cfg.PatientPortalURL != "" {
		body += fmt.Sprintf("View them in your patient portal: %s\n", s.cfg.PatientPortalURL)
	}
	body += fmt.Sprintf(
		"If you have questions, call us at %s or ask to speak with %s's office.",
		s.cfg.ClinicPhone, provider,
	)
	return s.send(ctx, "lab_results", phone, body)
}

// RefillApproved notifies a patient their refill was approved and sent.
func (s *Service) RefillApproved(ctx context.Context, phone, patientName, medication, pharmacy string) bool {
	body := fmt.Sprintf(
		"%s\nHi %s, your refill for %s has been approved and sent to %s. "+
			"Contact the pharmacy for pick-up details.\nQuestions? Call %s.",
		s.cfg.ClinicName, patientName, medication, pharmacy, s.cfg.ClinicPhone,
	)
	return s.send(ctx, "refill_approved", phone, body)
}

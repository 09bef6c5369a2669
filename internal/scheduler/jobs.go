package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/wolfman30/clinic-receptionist/internal/appointments"
	"github.com/wolfman30/clinic-receptionist/internal/notify"
	"github.com/wolfman30/clinic-receptionist/internal/schedule"
	"github.com/wolfman30/clinic-receptionist/internal/voice"
	"github.com/wolfman30/clinic-receptionist/internal/waitlist"
	"github.com/wolfman30/clinic-receptionist/pkg/logging"
)

// OutboundCaller places assistant phone calls. Satisfied by the voice client;
// nil disables reminder calls.
type OutboundCaller interface {
	CreateOutboundCall(ctx context.Context, toNumber, assistantID string) (*voice.Call, error)
}

// JobsConfig carries the knobs the batch jobs read.
type JobsConfig struct {
	// ReminderHour/ReminderMinute schedule the SMS reminder sweep.
	ReminderHour   int
	ReminderMinute int
	// ReminderCallHour/ReminderCallMinute schedule the voice reminder sweep.
	ReminderCallHour   int
	ReminderCallMinute int
	// FollowUpHour/FollowUpMinute schedule the post-visit follow-up sweep.
	FollowUpHour   int
	FollowUpMinute int
	// OfferHoldWindow is how long a waitlist offer stays held before the
	// sweep releases it.
	OfferHoldWindow time.Duration
	// OfferSweepInterval is how often the stale-offer sweep runs.
	OfferSweepInterval time.Duration
	// AssistantID is the primary voice persona; ReminderAssistantID, when
	// set, is used for reminder calls instead.
	AssistantID         string
	ReminderAssistantID string
}

// Jobs bundles the engine's recurring batch work: reminder texts, reminder
// calls, follow-up texts, and the stale-offer sweep.
type Jobs struct {
	ledger   *appointments.Service
	registry *waitlist.Service
	notifier *notify.Service
	calendar *schedule.Calendar
	caller   OutboundCaller
	cfg      JobsConfig
	logger   *logging.Logger
}

// NewJobs creates the batch-job set. caller may be nil.
func NewJobs(
	ledger *appointments.Service,
	registry *waitlist.Service,
	notifier *notify.Service,
	calendar *schedule.Calendar,
	caller OutboundCaller,
	cfg JobsConfig,
	logger *logging.Logger,
) *Jobs {
	if logger == nil {
		logger = logging.Default()
	}
	return &Jobs{
		ledger:   ledger,
		registry: registry,
		notifier: notifier,
		calendar: calendar,
		caller:   caller,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register attaches every job to the scheduler at its configured time.
func (j *Jobs) Register(s *Scheduler) {
	s.DailyAt("send_reminders", j.cfg.ReminderHour, j.cfg.ReminderMinute, j.SendReminders)
	s.DailyAt("place_reminder_calls", j.cfg.ReminderCallHour, j.cfg.ReminderCallMinute, j.PlaceReminderCalls)
	s.DailyAt("send_follow_ups", j.cfg.FollowUpHour, j.cfg.FollowUpMinute, j.SendFollowUps)
	s.Every("sweep_stale_offers", j.cfg.OfferSweepInterval, j.SweepStaleOffers)
}

// SendReminders texts every patient with a scheduled appointment tomorrow.
func (j *Jobs) SendReminders(ctx context.Context) error {
	tomorrow := j.calendar.Tomorrow()
	appts, err := j.ledger.ScheduledOn(ctx, tomorrow)
	if err != nil {
		return err
	}

	sent := 0
	for _, appt := range appts {
		if j.notifier.Reminder(ctx, appt.PatientPhone, appt) {
			sent++
		}
	}
	j.logger.Info("reminder sweep finished", "date", tomorrow, "appointments", len(appts), "sent", sent)
	return nil
}

// PlaceReminderCalls places an assistant call to every patient with a
// scheduled appointment tomorrow. Uses the reminder persona when configured,
// otherwise the primary assistant. Per-patient failures are logged and
// skipped so one bad number cannot stall the cohort.
func (j *Jobs) PlaceReminderCalls(ctx context.Context) error {
	assistantID := j.cfg.ReminderAssistantID
	if assistantID == "" {
		assistantID = j.cfg.AssistantID
	}
	if j.caller == nil || assistantID == "" {
		j.logger.Info("reminder calls disabled, skipping")
		return nil
	}

	tomorrow := j.calendar.Tomorrow()
	appts, err := j.ledger.ScheduledOn(ctx, tomorrow)
	if err != nil {
		return err
	}

	placed := 0
	for _, appt := range appts {
		if !strings.HasPrefix(appt.PatientPhone, "+") {
			j.logger.Warn("skipping reminder call, invalid phone", "appointment_id", appt.ID)
			continue
		}
		call, err := j.caller.CreateOutboundCall(ctx, appt.PatientPhone, assistantID)
		if err != nil {
			j.logger.Error("reminder call failed", "appointment_id", appt.ID, "error", err)
			continue
		}
		j.logger.Info("reminder call placed", "appointment_id", appt.ID, "call_id", call.ID)
		placed++
	}
	j.logger.Info("reminder call sweep finished", "date", tomorrow, "appointments", len(appts), "placed", placed)
	return nil
}

// SendFollowUps texts every patient seen yesterday a post-visit check-in.
func (j *Jobs) SendFollowUps(ctx context.Context) error {
	yesterday := j.calendar.Yesterday()
	appts, err := j.ledger.ScheduledOn(ctx, yesterday)
	if err != nil {
		return err
	}

	sent := 0
	for _, appt := range appts {
		if j.notifier.FollowUp(ctx, appt.PatientPhone, appt.PatientName, appt.Provider) {
			sent++
		}
	}
	j.logger.Info("follow-up sweep finished", "date", yesterday, "appointments", len(appts), "sent", sent)
	return nil
}

// SweepStaleOffers releases waitlist offers older than the hold window back
// to waiting.
func (j *Jobs) SweepStaleOffers(ctx context.Context) error {
	_, err := j.registry.ReleaseStaleOffers(ctx, j.cfg.OfferHoldWindow)
	return err
}

var _ OutboundCaller = (*voice.Client)(nil)

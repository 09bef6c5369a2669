package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-receptionist/internal/appointments"
	"github.com/wolfman30/clinic-receptionist/internal/notify"
	"github.com/wolfman30/clinic-receptionist/internal/schedule"
	"github.com/wolfman30/clinic-receptionist/internal/voice"
	"github.com/wolfman30/clinic-receptionist/internal/waitlist"
)

type recordingSMS struct {
	bodies []string
}

func (r *recordingSMS) SendSMS(_ context.Context, _, body string) error {
	r.bodies = append(r.bodies, body)
	return nil
}

type recordingCaller struct {
	calls      []string // destination numbers
	assistants []string
	err        error
}

func (r *recordingCaller) CreateOutboundCall(_ context.Context, toNumber, assistantID string) (*voice.Call, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.calls = append(r.calls, toNumber)
	r.assistants = append(r.assistants, assistantID)
	return &voice.Call{ID: "call-1", Status: "queued"}, nil
}

type jobsFixture struct {
	jobs     *Jobs
	ledger   *appointments.Service
	registry *waitlist.Service
	sms      *recordingSMS
	caller   *recordingCaller
	calendar *schedule.Calendar
}

func newJobsFixture(t *testing.T, cfg JobsConfig) *jobsFixture {
	t.Helper()
	catalog := schedule.NewCatalog(nil)
	// Monday 2024-06-03 noon UTC.
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	cal, err := schedule.NewCalendar("UTC", func() time.Time { return now })
	require.NoError(t, err)

	sms := &recordingSMS{}
	notifier := notify.NewService(sms, notify.Config{
		ClinicName:  "Family Medical Practice",
		ClinicPhone: "(555) 123-4567",
	}, nil, nil)

	registry := waitlist.NewService(waitlist.NewInMemoryRepository(), nil, nil).
		WithClock(func() time.Time { return now })
	ledger := appointments.NewService(
		appointments.NewInMemoryRepository(catalog), catalog, cal,
		notifier, registry, nil, nil, 5,
	)

	caller := &recordingCaller{}
	return &jobsFixture{
		jobs:     NewJobs(ledger, registry, notifier, cal, caller, cfg, nil),
		ledger:   ledger,
		registry: registry,
		sms:      sms,
		caller:   caller,
		calendar: cal,
	}
}

func (f *jobsFixture) book(t *testing.T, date, timeLabel string) *appointments.Appointment {
	t.Helper()
	appt, err := f.ledger.Book(context.Background(), appointments.BookRequest{
		PatientName:  "Jane Doe",
		PatientDOB:   "1985-03-12",
		PatientPhone: "+15551230001",
		Provider:     "Dr. Smith",
		VisitType:    "Follow-Up",
		Date:         date,
		Time:         timeLabel,
	})
	require.NoError(t, err)
	return appt
}

func TestSendRemindersTargetsTomorrow(t *testing.T) {
	f := newJobsFixture(t, JobsConfig{})
	f.book(t, "2024-06-04", "9:00 AM") // tomorrow
	f.book(t, "2024-06-05", "9:00 AM") // day after
	f.sms.bodies = nil                 // drop booking confirmations

	require.NoError(t, f.jobs.SendReminders(context.Background()))
	require.Len(t, f.sms.bodies, 1)
	assert.Contains(t, f.sms.bodies[0], "TOMORROW")
	assert.Contains(t, f.sms.bodies[0], "2024-06-04")
}

func TestPlaceReminderCallsUsesReminderPersona(t *testing.T) {
	f := newJobsFixture(t, JobsConfig{
		AssistantID:         "asst-primary",
		ReminderAssistantID: "asst-reminder",
	})
	f.book(t, "2024-06-04", "9:00 AM")

	require.NoError(t, f.jobs.PlaceReminderCalls(context.Background()))
	require.Len(t, f.caller.calls, 1)
	assert.Equal(t, "+15551230001", f.caller.calls[0])
	assert.Equal(t, "asst-reminder", f.caller.assistants[0])
}

func TestPlaceReminderCallsFallsBackToPrimary(t *testing.T) {
	f := newJobsFixture(t, JobsConfig{AssistantID: "asst-primary"})
	f.book(t, "2024-06-04", "9:00 AM")

	require.NoError(t, f.jobs.PlaceReminderCalls(context.Background()))
	require.Len(t, f.caller.assistants, 1)
	assert.Equal(t, "asst-primary", f.caller.assistants[0])
}

func TestPlaceReminderCallsSkipsWhenUnconfigured(t *testing.T) {
	f := newJobsFixture(t, JobsConfig{})
	f.book(t, "2024-06-04", "9:00 AM")

	require.NoError(t, f.jobs.PlaceReminderCalls(context.Background()))
	assert.Empty(t, f.caller.calls)
}

func TestPlaceReminderCallsIsolatesFailures(t *testing.T) {
	f := newJobsFixture(t, JobsConfig{AssistantID: "asst-primary"})
	f.book(t, "2024-06-04", "9:00 AM")
	f.caller.err = errors.New("telephony down")

	// A per-patient failure is logged, not returned.
	assert.NoError(t, f.jobs.PlaceReminderCalls(context.Background()))
}

func TestSendFollowUpsTargetsYesterday(t *testing.T) {
	f := newJobsFixture(t, JobsConfig{})
	f.book(t, "2024-06-02", "9:00 AM") // yesterday (Sunday, but records are records)
	f.book(t, "2024-06-04", "9:00 AM")
	f.sms.bodies = nil

	require.NoError(t, f.jobs.SendFollowUps(context.Background()))
	require.Len(t, f.sms.bodies, 1)
	assert.Contains(t, f.sms.bodies[0], "hope your visit")
	assert.Contains(t, f.sms.bodies[0], "Dr. Smith")
}

func TestSweepStaleOffersReleases(t *testing.T) {
	f := newJobsFixture(t, JobsConfig{OfferHoldWindow: 2 * time.Hour})
	ctx := context.Background()

	entry, err := f.registry.Enroll(ctx, waitlist.EnrollRequest{
		PatientName:  "Jane Doe",
		PatientPhone: "+15551230001",
		VisitType:    "Follow-Up",
	})
	require.NoError(t, err)

	// Stamp the offer three hours in the past, then restore the clock.
	past := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	f.registry.WithClock(func() time.Time { return past })
	require.NoError(t, f.registry.MarkOffered(ctx, entry.ID))
	f.registry.WithClock(func() time.Time { return time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC) })

	require.NoError(t, f.jobs.SweepStaleOffers(ctx))

	waiting, err := f.registry.List(ctx, waitlist.StatusWaiting)
	require.NoError(t, err)
	assert.Len(t, waiting, 1)
}

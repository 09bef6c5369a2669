package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/clinic-receptionist/internal/api/router"
	"github.com/wolfman30/clinic-receptionist/internal/appointments"
	appconfig "github.com/wolfman30/clinic-receptionist/internal/config"
	"github.com/wolfman30/clinic-receptionist/internal/messaging"
	"github.com/wolfman30/clinic-receptionist/internal/notify"
	"github.com/wolfman30/clinic-receptionist/internal/observability/metrics"
	"github.com/wolfman30/clinic-receptionist/internal/schedule"
	"github.com/wolfman30/clinic-receptionist/internal/scheduler"
	"github.com/wolfman30/clinic-receptionist/internal/voice"
	"github.com/wolfman30/clinic-receptionist/internal/waitlist"
	"github.com/wolfman30/clinic-receptionist/pkg/logging"
)

func main() {
	// Load .env in development; in deployment the environment is already set.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting clinic-receptionist API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"clinic", cfg.ClinicName,
	)

	// Schedule primitives
	catalog := schedule.NewCatalog(cfg.Providers)
	calendar, err := schedule.NewCalendar(cfg.ClinicTimezone, nil)
	if err != nil {
		logger.Error("failed to load clinic timezone", "error", err)
		os.Exit(1)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	// Outbound SMS: Twilio when configured, log-only otherwise.
	var sms notify.SMSSender
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		sms = messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	} else {
		logger.Warn("Twilio not configured, SMS will be logged only")
		sms = messaging.NewLogSender(logger)
	}
	notifier := notify.NewService(sms, notify.Config{
		ClinicName:       cfg.ClinicName,
		ClinicPhone:      cfg.ClinicPhone,
		IntakeFormURL:    cfg.IntakeFormURL,
		PatientPortalURL: cfg.PatientPortalURL,
	}, engineMetrics, logger)

	// Outbound voice: optional.
	var voiceClient *voice.Client
	if cfg.VapiAPIKey != "" {
		voiceClient, err = voice.NewClient(voice.ClientConfig{
			APIKey:        cfg.VapiAPIKey,
			PhoneNumberID: cfg.VapiPhoneNumberID,
			Logger:        logger,
		})
		if err != nil {
			logger.Error("failed to create voice client", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("Vapi not configured, outbound calls disabled")
	}

	// Repositories and services
	waitlistRepo := waitlist.NewInMemoryRepository()
	waitlistSvc := waitlist.NewService(waitlistRepo, engineMetrics, logger)

	apptRepo := appointments.NewInMemoryRepository(catalog)
	apptSvc := appointments.NewService(
		apptRepo, catalog, calendar, notifier, waitlistSvc,
		engineMetrics, logger, cfg.AvailabilityDays,
	)

	// Batch jobs
	jobRunner := scheduler.New(calendar.Location(), engineMetrics, logger)
	jobs := scheduler.NewJobs(apptSvc, waitlistSvc, notifier, calendar, outboundCaller(voiceClient), scheduler.JobsConfig{
		ReminderHour:        cfg.ReminderHour,
		ReminderMinute:      cfg.ReminderMinute,
		ReminderCallHour:    cfg.ReminderCallHour,
		ReminderCallMinute:  cfg.ReminderCallMinute,
		FollowUpHour:        cfg.FollowUpHour,
		FollowUpMinute:      cfg.FollowUpMinute,
		OfferHoldWindow:     cfg.OfferHoldWindow,
		OfferSweepInterval:  cfg.OfferSweepInterval,
		AssistantID:         cfg.VapiAssistantID,
		ReminderAssistantID: cfg.VapiReminderAssistantID,
	}, logger)
	jobs.Register(jobRunner)

	jobCtx, stopJobs := context.WithCancel(context.Background())
	jobRunner.Start(jobCtx)

	// Initialize handlers
	apptHandler := appointments.NewHandler(apptSvc, logger)
	waitlistHandler := waitlist.NewHandler(waitlistSvc, logger)
	webhookHandler := voice.NewWebhookHandler(apptSvc, waitlistSvc, logger)
	notifyHandler := notify.NewHandler(notifier, logger)
	var adminVoice *voice.AdminHandler
	if voiceClient != nil {
		adminVoice = voice.NewAdminHandler(voiceClient, cfg.VapiAssistantID, logger)
	}

	// Setup router
	r := router.New(&router.Config{
		Logger:              logger,
		AppointmentsHandler: apptHandler,
		WaitlistHandler:     waitlistHandler,
		WebhookHandler:      webhookHandler,
		AdminVoice:          adminVoice,
		AdminNotify:         notifyHandler,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ClinicName:          cfg.ClinicName,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	stopJobs()
	jobRunner.Wait()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// outboundCaller keeps a nil *voice.Client from becoming a non-nil interface.
func outboundCaller(c *voice.Client) scheduler.OutboundCaller {
	if c == nil {
		return nil
	}
	return c
}

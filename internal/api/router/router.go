package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/clinic-receptionist/internal/appointments"
	httpmiddleware "github.com/wolfman30/clinic-receptionist/internal/http/middleware"
	"github.com/wolfman30/clinic-receptionist/internal/notify"
	"github.com/wolfman30/clinic-receptionist/internal/voice"
	"github.com/wolfman30/clinic-receptionist/internal/waitlist"
	"github.com/wolfman30/clinic-receptionist/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *appointments.Handler
	WaitlistHandler     *waitlist.Handler
	WebhookHandler      *voice.WebhookHandler
	AdminVoice          *voice.AdminHandler
	AdminNotify         *notify.Handler
	MetricsHandler      http.Handler
	ClinicName          string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"clinic": cfg.ClinicName,
		})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Mount("/appointments", cfg.AppointmentsHandler.Routes())
	r.Mount("/waitlist", cfg.WaitlistHandler.Routes())

	if cfg.WebhookHandler != nil {
		r.Route("/vapi", func(v chi.Router) {
			v.Post("/webhook", cfg.WebhookHandler.HandleEvents)
			v.Post("/tool", cfg.WebhookHandler.HandleToolCall)
		})
	}

	r.Route("/admin", func(admin chi.Router) {
		if cfg.AdminVoice != nil {
			admin.Post("/call", cfg.AdminVoice.PlaceCall)
			admin.Get("/calls", cfg.AdminVoice.ListCalls)
		}
		if cfg.AdminNotify != nil {
			admin.Mount("/notify", cfg.AdminNotify.Routes())
		}
	})

	return r
}

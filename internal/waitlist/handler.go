package waitlist

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-receptionist/pkg/logging"
)

// Handler exposes the waitlist registry over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a waitlist handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the waitlist endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Enroll)
	r.Get("/", h.List)
	r.Post("/{id}/booked", h.MarkBooked)
	r.Delete("/{id}", h.Remove)
	return r
}

// Enroll handles POST /waitlist
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	entry, err := h.svc.Enroll(r.Context(), req)
	if err != nil {
		h.logger.Error("waitlist enrollment failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// List handles GET /waitlist?status= (default waiting)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context(), Status(r.URL.Query().Get("status")))
	if err != nil {
		h.logger.Error("waitlist listing failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// MarkBooked handles POST /waitlist/{id}/booked
func (h *Handler) MarkBooked(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkBooked(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.logger.Error("waitlist booked transition failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /waitlist/{id}
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	existed, err := h.svc.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("waitlist removal failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !existed {
		http.Error(w, "no waitlist entry found with that ID", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

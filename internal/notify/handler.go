package notify

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-receptionist/pkg/logging"
)

// Handler exposes operator-triggered notifications: lab results and refill
// approvals originate from staff, not from a scheduling flow.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a notify handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the operator notification endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/lab-results", h.LabResults)
	r.Post("/refill", h.Refill)
	return r
}

type labResultsRequest struct {
	Phone       string `json:"phone"`
	PatientName string `json:"patient_name"`
	Provider    string `json:"provider"`
}

// LabResults handles POST /admin/notify/lab-results
func (h *Handler) LabResults(w http.ResponseWriter, r *http.Request) {
	var req labResultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(req.Phone, "+") {
		http.Error(w, "'phone' must be an E.164 phone number", http.StatusBadRequest)
		return
	}

	sent := h.svc.LabResultsReady(r.Context(), req.Phone, req.PatientName, req.Provider)
	writeJSON(w, http.StatusOK, map[string]bool{"sent": sent})
}

type refillRequest struct {
	Phone       string `json:"phone"`
	PatientName string `json:"patient_name"`
	Medication  string `json:"medication"`
	Pharmacy    string `json:"pharmacy"`
}

// Refill handles POST /admin/notify/refill
func (h *Handler) Refill(w http.ResponseWriter, r *http.Request) {
	var req refillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(req.Phone, "+") {
		http.Error(w, "'phone' must be an E.164 phone number", http.StatusBadRequest)
		return
	}

	sent := h.svc.RefillApproved(r.Context(), req.Phone, req.PatientName, req.Medication, req.Pharmacy)
	writeJSON(w, http.StatusOK, map[string]bool{"sent": sent})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package voice

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/wolfman30/clinic-receptionist/pkg/logging"
)

// AdminHandler exposes operator endpoints for placing and inspecting
// assistant calls.
type AdminHandler struct {
	client      *Client
	assistantID string
	logger      *logging.Logger
}

// NewAdminHandler creates the admin call handler. assistantID is the default
// persona used when a request doesn't name one.
func NewAdminHandler(client *Client, assistantID string, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{client: client, assistantID: assistantID, logger: logger}
}

type outboundCallRequest struct {
	To          string `json:"to"`
	AssistantID string `json:"assistant_id,omitempty"`
}

// PlaceCall handles POST /admin/call: start an outbound assistant call.
func (h *AdminHandler) PlaceCall(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		http.Error(w, "Voice calling is not configured", http.StatusServiceUnavailable)
		return
	}

	var req outboundCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(req.To, "+") {
		http.Error(w, "'to' must be an E.164 phone number", http.StatusBadRequest)
		return
	}
	assistantID := req.AssistantID
	if assistantID == "" {
		assistantID = h.assistantID
	}

	call, err := h.client.CreateOutboundCall(r.Context(), req.To, assistantID)
	if err != nil {
		h.logger.Error("admin outbound call failed", "to", req.To, "error", err)
		http.Error(w, "Call could not be placed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, call)
}

// ListCalls handles GET /admin/calls: recent assistant calls, newest first.
func (h *AdminHandler) ListCalls(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		http.Error(w, "Voice calling is not configured", http.StatusServiceUnavailable)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	calls, err := h.client.ListCalls(r.Context(), limit)
	if err != nil {
		h.logger.Error("admin call listing failed", "error", err)
		http.Error(w, "Calls could not be listed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"calls": calls, "count": len(calls)})
}

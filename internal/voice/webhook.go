package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/wolfman30/clinic-receptionist/internal/appointments"
	"github.com/wolfman30/clinic-receptionist/internal/waitlist"
	"github.com/wolfman30/clinic-receptionist/pkg/logging"
)

// WebhookHandler is the thin façade between the voice assistant's tool-call
// webhooks and the coordination engine. It only translates payloads; all
// business rules live in the appointment and waitlist services.
type WebhookHandler struct {
	ledger   *appointments.Service
	registry *waitlist.Service
	logger   *logging.Logger
}

// NewWebhookHandler creates the tool-call webhook handler.
func NewWebhookHandler(ledger *appointments.Service, registry *waitlist.Service, logger *logging.Logger) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{ledger: ledger, registry: registry, logger: logger}
}

type webhookEnvelope struct {
	Message struct {
		Type     string `json:"type"`
		ToolCall struct {
			ID       string `json:"id"`
			Function struct {
				Name      string          `json:"name"`
				Arguments json.RawMessage `json:"arguments"`
			} `json:"function"`
		} `json:"toolCall"`
		Call struct {
			ID string `json:"id"`
		} `json:"call"`
	} `json:"message"`
}

type toolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

type toolResponse struct {
	Results []toolResult `json:"results"`
}

// HandleEvents handles POST /vapi/webhook: assistant lifecycle events are
// logged and acknowledged; nothing here mutates the engine.
func (h *WebhookHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	var env webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	h.logger.Info("assistant event", "type", env.Message.Type, "call_id", env.Message.Call.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// HandleToolCall handles POST /vapi/tool: the assistant's scheduling tool
// invocations, dispatched by function name.
func (h *WebhookHandler) HandleToolCall(w http.ResponseWriter, r *http.Request) {
	var env webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	tc := env.Message.ToolCall
	args, err := decodeArguments(tc.Function.Arguments)
	if err != nil {
		h.logger.Warn("bad tool-call arguments", "tool", tc.Function.Name, "error", err)
		args = map[string]any{}
	}

	result := h.dispatch(r.Context(), tc.Function.Name, args)
	writeJSON(w, http.StatusOK, toolResponse{Results: []toolResult{{ToolCallID: tc.ID, Result: result}}})
}

// decodeArguments accepts either a JSON object or a JSON-encoded string
// containing an object, which is how assistant platforms deliver arguments.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err == nil {
		return args, nil
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(encoded), &args); err != nil {
		return nil, err
	}
	return args, nil
}

func (h *WebhookHandler) dispatch(ctx context.Context, name string, args map[string]any) string {
	switch name {
	case "get_available_slots":
		return h.availableSlots(ctx, args)
	case "schedule_appointment":
		return h.schedule(ctx, args)
	case "find_appointment":
		return h.find(ctx, args)
	case "reschedule_appointment":
		return h.reschedule(ctx, args)
	case "cancel_appointment":
		return h.cancel(ctx, args)
	case "add_to_waitlist":
		return h.enroll(ctx, args)
	case "remove_from_waitlist":
		return h.removeFromWaitlist(ctx, args)
	default:
		h.logger.Warn("unknown tool call", "tool", name)
		return "I'm sorry, I can't do that right now."
	}
}

func (h *WebhookHandler) availableSlots(ctx context.Context, args map[string]any) string {
	avail, err := h.ledger.AvailableSlots(ctx, str(args, "date"), str(args, "provider"))
	if err != nil {
		return polite(err)
	}
	if len(avail.Available) == 0 {
		return "I'm sorry, there are no open slots for that request. Would you like to join the waitlist?"
	}

	days := make([]string, 0, len(avail.Available))
	for day := range avail.Available {
		days = append(days, day)
	}
	sort.Strings(days)

	var b strings.Builder
	b.WriteString("Here is the current availability. ")
	for _, day := range days {
		for _, pa := range avail.Available[day] {
			fmt.Fprintf(&b, "%s on %s: %s. ", pa.Provider, day, strings.Join(pa.Times, ", "))
		}
	}
	return b.String()
}

func (h *WebhookHandler) schedule(ctx context.Context, args map[string]any) string {
	appt, err := h.ledger.Book(ctx, appointments.BookRequest{
		PatientName:  str(args, "patient_name"),
		PatientDOB:   str(args, "patient_dob"),
		PatientPhone: str(args, "patient_phone"),
		Provider:     str(args, "provider"),
		VisitType:    str(args, "appointment_type"),
		Date:         str(args, "date"),
		Time:         str(args, "time"),
		Notes:        str(args, "notes"),
		IsNewPatient: boolean(args, "is_new_patient"),
	})
	if err != nil {
		return polite(err)
	}
	return fmt.Sprintf(
		"You're all set. %s is booked with %s on %s at %s. Your confirmation number is %s. A confirmation text is on its way.",
		appt.VisitType, appt.Provider, appt.Date, appt.Time, appt.ID,
	)
}

func (h *WebhookHandler) find(ctx context.Context, args map[string]any) string {
	matches, err := h.ledger.Find(ctx, str(args, "patient_name"), str(args, "patient_dob"))
	if err != nil {
		return polite(err)
	}
	if len(matches) == 0 {
		return "I couldn't find any upcoming appointments under that name."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d appointment(s). ", len(matches))
	for _, a := range matches {
		fmt.Fprintf(&b, "%s with %s on %s at %s, confirmation %s. ", a.VisitType, a.Provider, a.Date, a.Time, a.ID)
	}
	return b.String()
}

func (h *WebhookHandler) reschedule(ctx context.Context, args map[string]any) string {
	appt, err := h.ledger.Reschedule(ctx, str(args, "appointment_id"), str(args, "new_date"), str(args, "new_time"))
	if err != nil {
		return polite(err)
	}
	return fmt.Sprintf(
		"Done. Your appointment with %s has been moved to %s at %s.",
		appt.Provider, appt.Date, appt.Time,
	)
}

func (h *WebhookHandler) cancel(ctx context.Context, args map[string]any) string {
	appt, err := h.ledger.Cancel(ctx, str(args, "appointment_id"), str(args, "reason"))
	if err != nil {
		return polite(err)
	}
	return fmt.Sprintf(
		"Your appointment on %s at %s with %s has been cancelled. You'll receive a confirmation text shortly.",
		appt.Date, appt.Time, appt.Provider,
	)
}

func (h *WebhookHandler) enroll(ctx context.Context, args map[string]any) string {
	entry, err := h.registry.Enroll(ctx, waitlist.EnrollRequest{
		PatientName:    str(args, "patient_name"),
		PatientDOB:     str(args, "patient_dob"),
		PatientPhone:   str(args, "patient_phone"),
		VisitType:      str(args, "appointment_type"),
		Provider:       str(args, "provider"),
		PreferredDates: strSlice(args, "preferred_dates"),
		Notes:          str(args, "notes"),
	})
	if err != nil {
		return polite(err)
	}
	return fmt.Sprintf(
		"You're on the waitlist, %s. We'll text you as soon as a matching slot opens up. Your waitlist ID is %s.",
		entry.PatientName, entry.ID,
	)
}

func (h *WebhookHandler) removeFromWaitlist(ctx context.Context, args map[string]any) string {
	existed, err := h.registry.Remove(ctx, str(args, "waitlist_id"))
	if err != nil {
		return polite(err)
	}
	if !existed {
		return "I couldn't find a waitlist entry with that ID."
	}
	return "You've been removed from the waitlist."
}

// polite renders an engine error as a spoken-friendly sentence. Engine error
// messages are already user-presentable.
func polite(err error) string {
	msg := err.Error()
	return "I'm sorry, " + msg + ". Please choose another option."
}

func str(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func boolean(args map[string]any, key string) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return false
}

func strSlice(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

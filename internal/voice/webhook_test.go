package voice

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-receptionist/internal/appointments"
	"github.com/wolfman30/clinic-receptionist/internal/schedule"
	"github.com/wolfman30/clinic-receptionist/internal/waitlist"
)

func newTestWebhook(t *testing.T) *WebhookHandler {
	t.Helper()
	catalog := schedule.NewCatalog(nil)
	// Monday 2024-06-03 noon UTC.
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	cal, err := schedule.NewCalendar("UTC", func() time.Time { return now })
	require.NoError(t, err)

	registry := waitlist.NewService(waitlist.NewInMemoryRepository(), nil, nil)
	ledger := appointments.NewService(
		appointments.NewInMemoryRepository(catalog), catalog, cal,
		nil, registry, nil, nil, 5,
	)
	return NewWebhookHandler(ledger, registry, nil)
}

func callTool(t *testing.T, h *WebhookHandler, name string, args map[string]any) string {
	t.Helper()
	rawArgs, err := json.Marshal(args)
	require.NoError(t, err)

	payload := fmt.Sprintf(
		`{"message":{"type":"tool-calls","toolCall":{"id":"tc-1","function":{"name":"%s","arguments":%s}}}}`,
		name, string(rawArgs),
	)
	req := httptest.NewRequest(http.MethodPost, "/vapi/tool", strings.NewReader(payload))
	w := httptest.NewRecorder()
	h.HandleToolCall(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp toolResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "tc-1", resp.Results[0].ToolCallID)
	return resp.Results[0].Result
}

func scheduleArgs() map[string]any {
	return map[string]any{
		"patient_name":     "Jane Doe",
		"patient_dob":      "1985-03-12",
		"patient_phone":    "+15551230001",
		"provider":         "Dr. Smith",
		"appointment_type": "Annual Physical",
		"date":             "2024-06-04",
		"time":             "9:00 AM",
	}
}

func TestScheduleTool(t *testing.T) {
	h := newTestWebhook(t)

	result := callTool(t, h, "schedule_appointment", scheduleArgs())
	assert.Contains(t, result, "Dr. Smith")
	assert.Contains(t, result, "2024-06-04")
	assert.Contains(t, result, "confirmation number")
}

func TestScheduleToolConflictIsPolite(t *testing.T) {
	h := newTestWebhook(t)

	callTool(t, h, "schedule_appointment", scheduleArgs())
	result := callTool(t, h, "schedule_appointment", scheduleArgs())
	assert.Contains(t, result, "I'm sorry")
	assert.Contains(t, result, "no longer available")
}

func TestAvailabilityTool(t *testing.T) {
	h := newTestWebhook(t)

	result := callTool(t, h, "get_available_slots", map[string]any{
		"date":     "2024-06-04",
		"provider": "Dr. Smith",
	})
	assert.Contains(t, result, "Dr. Smith on 2024-06-04")
	assert.Contains(t, result, "8:00 AM")
}

func TestFindAndRescheduleAndCancelTools(t *testing.T) {
	h := newTestWebhook(t)
	callTool(t, h, "schedule_appointment", scheduleArgs())

	found := callTool(t, h, "find_appointment", map[string]any{
		"patient_name": "jane",
		"patient_dob":  "1985-03-12",
	})
	assert.Contains(t, found, "I found 1 appointment(s)")

	// Pull the confirmation ID out of the spoken response.
	idStart := strings.Index(found, "confirmation ") + len("confirmation ")
	id := found[idStart : idStart+8]

	moved := callTool(t, h, "reschedule_appointment", map[string]any{
		"appointment_id": id,
		"new_date":       "2024-06-05",
		"new_time":       "10:00 AM",
	})
	assert.Contains(t, moved, "moved to 2024-06-05 at 10:00 AM")

	cancelled := callTool(t, h, "cancel_appointment", map[string]any{
		"appointment_id": id,
		"reason":         "feeling better",
	})
	assert.Contains(t, cancelled, "has been cancelled")
}

func TestWaitlistTools(t *testing.T) {
	h := newTestWebhook(t)

	result := callTool(t, h, "add_to_waitlist", map[string]any{
		"patient_name":     "Jane Doe",
		"patient_dob":      "1985-03-12",
		"patient_phone":    "+15551230001",
		"appointment_type": "Follow-Up",
		"preferred_dates":  []string{"2024-06-05"},
	})
	assert.Contains(t, result, "You're on the waitlist")

	idStart := strings.Index(result, "waitlist ID is ") + len("waitlist ID is ")
	id := strings.TrimSuffix(result[idStart:], ".")

	removed := callTool(t, h, "remove_from_waitlist", map[string]any{"waitlist_id": id})
	assert.Contains(t, removed, "removed from the waitlist")

	again := callTool(t, h, "remove_from_waitlist", map[string]any{"waitlist_id": "NOPE1234"})
	assert.Contains(t, again, "couldn't find")
}

func TestUnknownToolIsGraceful(t *testing.T) {
	h := newTestWebhook(t)

	result := callTool(t, h, "order_pizza", map[string]any{})
	assert.Contains(t, result, "can't do that")
}

func TestStringEncodedArguments(t *testing.T) {
	h := newTestWebhook(t)

	payload := `{"message":{"toolCall":{"id":"tc-1","function":{"name":"get_available_slots","arguments":"{\"date\":\"2024-06-04\"}"}}}}`
	req := httptest.NewRequest(http.MethodPost, "/vapi/tool", strings.NewReader(payload))
	w := httptest.NewRecorder()
	h.HandleToolCall(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp toolResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Contains(t, resp.Results[0].Result, "2024-06-04")
}

func TestEventsWebhookAcknowledges(t *testing.T) {
	h := newTestWebhook(t)

	payload := `{"message":{"type":"end-of-call-report","call":{"id":"call-1"}}}`
	req := httptest.NewRequest(http.MethodPost, "/vapi/webhook", strings.NewReader(payload))
	w := httptest.NewRecorder()
	h.HandleEvents(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received":true`)
}

package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/clinic-receptionist/pkg/logging"
)

const (
	defaultVapiBaseURL = "https://api.vapi.ai"
	vapiCallTimeout    = 15 * time.Second
)

// Client initiates and inspects outbound calls via the Vapi voice-assistant
// API. The assistant itself (personas, prompts, telephony) is managed
// externally; this client only drives calls.
type Client struct {
	apiKey        string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
	logger        *logging.Logger
}

// ClientConfig configures the outbound voice client.
type ClientConfig struct {
	// APIKey is the Vapi API key (Bearer token).
	APIKey string
	// PhoneNumberID is the Vapi phone number the calls originate from.
	PhoneNumberID string
	// BaseURL overrides the Vapi API base URL (for testing).
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// NewClient creates a client for placing outbound assistant calls.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("voice client: API key required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultVapiBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: vapiCallTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		apiKey:        cfg.APIKey,
		phoneNumberID: cfg.PhoneNumberID,
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    httpClient,
		logger:        logger,
	}, nil
}

// Call is the subset of the Vapi call record the engine cares about.
type Call struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt,omitempty"`
	EndedAt   string `json:"endedAt,omitempty"`
}

type outboundCallPayload struct {
	PhoneNumberID string        `json:"phoneNumberId"`
	AssistantID   string        `json:"assistantId"`
	Customer      callRecipient `json:"customer"`
}

type callRecipient struct {
	Number string `json:"number"`
}

// CreateOutboundCall starts an outbound assistant call to the given number
// using the given assistant persona. Transport failures propagate to the
// caller; batch jobs catch and log them per record.
func (c *Client) CreateOutboundCall(ctx context.Context, toNumber, assistantID string) (*Call, error) {
	if toNumber == "" {
		return nil, fmt.Errorf("voice: destination number required")
	}
	if assistantID == "" {
		return nil, fmt.Errorf("voice: assistant ID required")
	}

	payload := outboundCallPayload{
		PhoneNumberID: c.phoneNumberID,
		AssistantID:   assistantID,
		Customer:      callRecipient{Number: toNumber},
	}
	var call Call
	if err := c.do(ctx, http.MethodPost, "/call", payload, &call); err != nil {
		return nil, err
	}

	c.logger.Info("outbound call initiated", "call_id", call.ID, "to", toNumber)
	return &call, nil
}

// GetCall retrieves details for a specific call.
func (c *Client) GetCall(ctx context.Context, callID string) (*Call, error) {
	var call Call
	if err := c.do(ctx, http.MethodGet, "/call/"+callID, nil, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

// ListCalls lists recent calls, newest first.
func (c *Client) ListCalls(ctx context.Context, limit int) ([]Call, error) {
	if limit <= 0 {
		limit = 20
	}
	var calls []Call
	if err := c.do(ctx, http.MethodGet, "/call?limit="+strconv.Itoa(limit), nil, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("voice: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("voice: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("voice: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("voice: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("voice: decode response: %w", err)
		}
	}
	return nil
}

// Package whatsapp talks to the Meta Graph API (WhatsApp Cloud API) for
// outbound messages and parses inbound webhook payloads.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

const defaultBaseURL = "https://graph.facebook.com/v18.0"

var (
	// ErrNotConfigured indicates the client is missing credentials and
	// cannot send.
	ErrNotConfigured = errors.New("whatsapp: client not configured")
)

// APIError is a structured Graph API failure.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp: api error (http %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

// Config carries Meta credentials and tunables for the client.
type Config struct {
	BaseURL           string
	AccessToken       string
	PhoneNumberID     string
	BusinessAccountID string
	VerifyToken       string
	HTTPClient        *http.Client
	Timeout           time.Duration
	Logger            *logging.Logger
}

// Client sends messages through the WhatsApp Cloud API. Construction never
// authenticates; Ready reports whether credentials are present.
type Client struct {
	baseURL           string
	accessToken       string
	phoneNumberID     string
	businessAccountID string
	verifyToken       string
	httpClient        *http.Client
	logger            *logging.Logger
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Client{
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		accessToken:       cfg.AccessToken,
		phoneNumberID:     cfg.PhoneNumberID,
		businessAccountID: cfg.BusinessAccountID,
		verifyToken:       cfg.VerifyToken,
		httpClient:        cfg.HTTPClient,
		logger:            cfg.Logger,
	}
}

// Ready reports whether the client holds the credentials needed to send.
func (c *Client) Ready() bool {
	return c.accessToken != "" && c.phoneNumberID != ""
}

// SendResult is the provider acknowledgement for an accepted message.
type SendResult struct {
	MessageID string `json:"message_id"`
	To        string `json:"to"`
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) (*SendResult, error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                FormatPhone(to),
		"type":              "text",
		"text":              map[string]string{"body": body},
	}
	return c.send(ctx, payload)
}

// SendTemplate sends a pre-approved template message with positional body
// parameters.
func (c *Client) SendTemplate(ctx context.Context, to, name, language string, params []string) (*SendResult, error) {
	if language == "" {
		language = "en"
	}
	parameters := make([]map[string]string, 0, len(params))
	for _, p := range params {
		parameters = append(parameters, map[string]string{"type": "text", "text": p})
	}
	tmpl := map[string]any{
		"name":     name,
		"language": map[string]string{"code": language},
	}
	if len(parameters) > 0 {
		tmpl["components"] = []map[string]any{
			{"type": "body", "parameters": parameters},
		}
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                FormatPhone(to),
		"type":              "template",
		"template":          tmpl,
	}
	return c.send(ctx, payload)
}

// SendAppointmentConfirmation sends the confirmation template: patient name,
// appointment type, doctor name, date, time.
func (c *Client) SendAppointmentConfirmation(ctx context.Context, to, patientName, appointmentType, doctorName, date, timeOfDay string) (*SendResult, error) {
	return c.SendTemplate(ctx, to, "appointment_confirmation", "en", []string{patientName, appointmentType, doctorName, date, timeOfDay})
}

// SendAppointmentReminder sends the reminder template: patient name, doctor
// name, date, time.
func (c *Client) SendAppointmentReminder(ctx context.Context, to, patientName, doctorName, date, timeOfDay string) (*SendResult, error) {
	return c.SendTemplate(ctx, to, "appointment_reminder", "en", []string{patientName, doctorName, date, timeOfDay})
}

func (c *Client) send(ctx context.Context, payload map[string]any) (*SendResult, error) {
	if !c.Ready() {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal payload: %w", err)
	}
	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}

	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("whatsapp: parse response: %w", err)
	}
	result := &SendResult{To: fmt.Sprint(payload["to"])}
	if len(parsed.Messages) > 0 {
		result.MessageID = parsed.Messages[0].ID
	}
	return result, nil
}

func parseAPIError(status int, body []byte) error {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: status, Message: "request failed"}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Message = parsed.Error.Message
		apiErr.Type = parsed.Error.Type
		apiErr.Code = parsed.Error.Code
	}
	return apiErr
}

// FormatPhone normalizes a phone number for the Graph API: formatting
// characters are stripped and bare 10-digit numbers get a US country code.
func FormatPhone(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '+', '-', ' ', '(', ')':
			return -1
		}
		return r
	}, phone)
	if len(cleaned) == 10 {
		return "1" + cleaned
	}
	return cleaned
}

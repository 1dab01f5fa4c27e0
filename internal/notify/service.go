// Package notify formats and dispatches appointment notifications on the
// chat channel.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinicdesk/clinic-secretary/internal/messaging/templates"
	"github.com/clinicdesk/clinic-secretary/internal/whatsapp"
	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

// Kind selects which notification template to send.
type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindReminder     Kind = "reminder"
	KindCancellation Kind = "cancellation"
	KindReschedule   Kind = "reschedule"
)

// ErrUnknownKind indicates an unrecognized notification kind.
var ErrUnknownKind = errors.New("notify: unknown notification kind")

// ParseKind validates a kind string from an API caller.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindConfirmation:
		return KindConfirmation, nil
	case KindReminder:
		return KindReminder, nil
	case KindCancellation:
		return KindCancellation, nil
	case KindReschedule:
		return KindReschedule, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Details carries the identity and timing fields a notification template
// needs. Missing names fall back to generic wording.
type Details struct {
	PatientName     string
	DoctorName      string
	AppointmentType string
	When            time.Time
	// NewWhen is the target time for reschedule notices.
	NewWhen time.Time
}

// Result is the outcome of one dispatch attempt. Failures are captured here,
// never retried.
type Result struct {
	Success   bool   `json:"success"`
	Kind      Kind   `json:"kind"`
	To        string `json:"to,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// TextSender is the outbound channel, satisfied by the whatsapp client.
type TextSender interface {
	Ready() bool
	SendText(ctx context.Context, to, body string) (*whatsapp.SendResult, error)
}

// Service renders notification templates and sends them.
type Service struct {
	sender   TextSender
	renderer templates.Renderer
	logger   *logging.Logger
}

func NewService(sender TextSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{sender: sender, logger: logger}
}

// Send dispatches one notification of the given kind to a phone number.
func (s *Service) Send(ctx context.Context, kind Kind, to string, det Details) Result {
	body, err := s.render(kind, det)
	if err != nil {
		s.logger.Error("failed to render notification", "kind", kind, "error", err)
		return Result{Kind: kind, To: to, Error: err.Error()}
	}
	result, err := s.sender.SendText(ctx, to, body)
	if err != nil {
		s.logger.Error("failed to send notification", "kind", kind, "to", to, "error", err)
		return Result{Kind: kind, To: to, Error: err.Error()}
	}
	return Result{Success: true, Kind: kind, To: to, MessageID: result.MessageID}
}

// SendConfirmation is a convenience wrapper used at booking time.
func (s *Service) SendConfirmation(ctx context.Context, to string, det Details) Result {
	return s.Send(ctx, KindConfirmation, to, det)
}

// SendCancellation is a convenience wrapper used when an appointment is
// cancelled from the chat flow.
func (s *Service) SendCancellation(ctx context.Context, to string, det Details) Result {
	return s.Send(ctx, KindCancellation, to, det)
}

// Reminder pairs a recipient with the details for one reminder send.
type Reminder struct {
	To      string
	Details Details
}

// SendReminders dispatches a batch of reminders, counting outcomes. A failed
// send does not stop the batch.
func (s *Service) SendReminders(ctx context.Context, reminders []Reminder) (sent, failed int) {
	for _, rem := range reminders {
		result := s.Send(ctx, KindReminder, rem.To, rem.Details)
		if result.Success {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed
}

func (s *Service) render(kind Kind, det Details) (string, error) {
	data := map[string]string{
		"PatientName":     orDefault(det.PatientName, "Patient"),
		"DoctorName":      orDefault(det.DoctorName, "our medical team"),
		"AppointmentType": orDefault(det.AppointmentType, "medical"),
		"Date":            det.When.Format("Monday, January 2"),
		"Time":            det.When.Format("03:04 PM"),
		"NewDate":         det.NewWhen.Format("Monday, January 2"),
		"NewTime":         det.NewWhen.Format("03:04 PM"),
	}
	switch kind {
	case KindConfirmation:
		return s.renderer.Render(string(kind), templates.AppointmentConfirmation, data)
	case KindReminder:
		return s.renderer.Render(string(kind), templates.AppointmentReminder, data)
	case KindCancellation:
		return s.renderer.Render(string(kind), templates.AppointmentCancellation, data)
	case KindReschedule:
		return s.renderer.Render(string(kind), templates.AppointmentReschedule, data)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

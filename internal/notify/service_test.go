package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-secretary/internal/whatsapp"
)

type fakeSender struct {
	sent []struct{ to, body string }
	err  error
}

func (f *fakeSender) Ready() bool { return true }

func (f *fakeSender) SendText(ctx context.Context, to, body string) (*whatsapp.SendResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, struct{ to, body string }{to, body})
	return &whatsapp.SendResult{MessageID: "wamid.TEST", To: to}, nil
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"confirmation", "reminder", "cancellation", "reschedule", " Reminder "} {
		if _, err := ParseKind(s); err != nil {
			t.Fatalf("ParseKind(%q): %v", s, err)
		}
	}
	_, err := ParseKind("fax")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestSendConfirmation(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, nil)

	when := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	result := svc.SendConfirmation(context.Background(), "15551234567", Details{
		PatientName:     "Maria",
		DoctorName:      "Dr. Carter",
		AppointmentType: "consultation",
		When:            when,
	})
	require.True(t, result.Success)
	require.Equal(t, "wamid.TEST", result.MessageID)
	require.Len(t, sender.sent, 1)
	require.Contains(t, sender.sent[0].body, "Maria")
	require.Contains(t, sender.sent[0].body, "Monday, September 7")
	require.Contains(t, sender.sent[0].body, "02:00 PM")
}

func TestSendUsesDefaultsForMissingNames(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, nil)

	result := svc.Send(context.Background(), KindReminder, "15551234567", Details{When: time.Now()})
	require.True(t, result.Success)
	require.Contains(t, sender.sent[0].body, "Patient")
	require.Contains(t, sender.sent[0].body, "our medical team")
}

func TestSendFailureIsStructured(t *testing.T) {
	sender := &fakeSender{err: errors.New("provider down")}
	svc := NewService(sender, nil)

	result := svc.Send(context.Background(), KindCancellation, "15551234567", Details{When: time.Now()})
	require.False(t, result.Success)
	require.Contains(t, result.Error, "provider down")
	require.Equal(t, KindCancellation, result.Kind)
}

func TestSendUnknownKind(t *testing.T) {
	svc := NewService(&fakeSender{}, nil)
	result := svc.Send(context.Background(), Kind("fax"), "15551234567", Details{})
	require.False(t, result.Success)
	require.True(t, strings.Contains(result.Error, "unknown notification kind"))
}

func TestSendReminders(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, nil)

	reminders := []Reminder{
		{To: "15551111111", Details: Details{PatientName: "Ana", When: time.Now()}},
		{To: "15552222222", Details: Details{PatientName: "Bruno", When: time.Now()}},
	}
	sent, failed := svc.SendReminders(context.Background(), reminders)
	require.Equal(t, 2, sent)
	require.Equal(t, 0, failed)
	require.Len(t, sender.sent, 2)
}

func TestSendRemindersCountsFailures(t *testing.T) {
	sender := &fakeSender{err: errors.New("provider down")}
	svc := NewService(sender, nil)

	sent, failed := svc.SendReminders(context.Background(), []Reminder{
		{To: "15551111111", Details: Details{When: time.Now()}},
	})
	require.Equal(t, 0, sent)
	require.Equal(t, 1, failed)
}

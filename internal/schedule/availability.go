// Package schedule computes free appointment slots for a doctor by merging
// the appointment book with the clinic calendar.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-secretary/internal/appointments"
	"github.com/clinicdesk/clinic-secretary/internal/calendar"
	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

// Business hours: hourly slots from Start up to but not including End.
const (
	DefaultDayStart = 9
	DefaultDayEnd   = 17
)

// AppointmentSource lists a doctor's booked appointments for a date.
type AppointmentSource interface {
	ScheduleForDoctor(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]appointments.Appointment, error)
}

// CalendarSource lists clinic calendar events for a window. May be not Ready.
type CalendarSource interface {
	Ready() bool
	ListEvents(ctx context.Context, min, max time.Time, maxResults int64) ([]calendar.Event, error)
}

// Service answers availability questions.
type Service struct {
	appointments AppointmentSource
	calendar     CalendarSource
	dayStart     int
	dayEnd       int
	logger       *logging.Logger
}

func NewService(appts AppointmentSource, cal CalendarSource, dayStart, dayEnd int, logger *logging.Logger) *Service {
	if dayStart <= 0 || dayEnd <= dayStart {
		dayStart, dayEnd = DefaultDayStart, DefaultDayEnd
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		appointments: appts,
		calendar:     cal,
		dayStart:     dayStart,
		dayEnd:       dayEnd,
		logger:       logger,
	}
}

// FreeSlots returns the free hours for a doctor on a date, formatted like
// "09:00 AM". An hour is busy when a non-cancelled appointment starts in it
// or a time-qualified calendar event starts in it. Times are taken as the
// sources report them; there is no timezone normalization.
func (s *Service) FreeSlots(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]string, error) {
	busy := map[int]bool{}

	appts, err := s.appointments.ScheduleForDoctor(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("schedule: doctor appointments: %w", err)
	}
	for _, appt := range appts {
		busy[appt.ScheduledAt.Hour()] = true
	}

	if s.calendar != nil && s.calendar.Ready() {
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		events, err := s.calendar.ListEvents(ctx, dayStart, dayStart.AddDate(0, 0, 1), 100)
		if err != nil {
			return nil, fmt.Errorf("schedule: calendar events: %w", err)
		}
		for _, ev := range events {
			// All-day events carry date-only starts and block nothing.
			if !strings.Contains(ev.Start, "T") {
				continue
			}
			start, err := time.Parse(time.RFC3339, ev.Start)
			if err != nil {
				continue
			}
			busy[start.Hour()] = true
		}
	}

	var free []string
	for hour := s.dayStart; hour < s.dayEnd; hour++ {
		if busy[hour] {
			continue
		}
		slot := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
		free = append(free, slot.Format("03:04 PM"))
	}
	return free, nil
}

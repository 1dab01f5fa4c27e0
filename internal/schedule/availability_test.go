package schedule

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-secretary/internal/appointments"
	"github.com/clinicdesk/clinic-secretary/internal/calendar"
)

type fakeAppointments struct {
	appts []appointments.Appointment
	err   error
}

func (f *fakeAppointments) ScheduleForDoctor(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]appointments.Appointment, error) {
	return f.appts, f.err
}

type fakeCalendar struct {
	ready  bool
	events []calendar.Event
	err    error
}

func (f *fakeCalendar) Ready() bool { return f.ready }

func (f *fakeCalendar) ListEvents(ctx context.Context, min, max time.Time, maxResults int64) ([]calendar.Event, error) {
	return f.events, f.err
}

var testDay = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

func TestFreeSlotsAllOpen(t *testing.T) {
	svc := NewService(&fakeAppointments{}, &fakeCalendar{ready: true}, 9, 17, nil)
	slots, err := svc.FreeSlots(context.Background(), uuid.New(), testDay)
	require.NoError(t, err)
	require.Len(t, slots, 8)
	require.Equal(t, "09:00 AM", slots[0])
	require.Equal(t, "04:00 PM", slots[7])
}

func TestFreeSlotsExcludesBookedAppointment(t *testing.T) {
	appts := &fakeAppointments{appts: []appointments.Appointment{
		{ScheduledAt: time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC), Status: appointments.StatusScheduled},
	}}
	svc := NewService(appts, &fakeCalendar{ready: true}, 9, 17, nil)

	slots, err := svc.FreeSlots(context.Background(), uuid.New(), testDay)
	require.NoError(t, err)
	require.Len(t, slots, 7)
	require.NotContains(t, slots, "10:00 AM")
	require.Contains(t, slots, "09:00 AM")
	require.Contains(t, slots, "11:00 AM")
}

func TestFreeSlotsExcludesCalendarEvents(t *testing.T) {
	cal := &fakeCalendar{ready: true, events: []calendar.Event{
		{ID: "evt1", Start: "2026-09-07T14:00:00Z"},
		// All-day events block nothing.
		{ID: "evt2", Start: "2026-09-07"},
	}}
	svc := NewService(&fakeAppointments{}, cal, 9, 17, nil)

	slots, err := svc.FreeSlots(context.Background(), uuid.New(), testDay)
	require.NoError(t, err)
	require.Len(t, slots, 7)
	require.NotContains(t, slots, "02:00 PM")
}

func TestFreeSlotsCalendarNotReady(t *testing.T) {
	cal := &fakeCalendar{ready: false, events: []calendar.Event{{ID: "evt1", Start: "2026-09-07T14:00:00Z"}}}
	svc := NewService(&fakeAppointments{}, cal, 9, 17, nil)

	slots, err := svc.FreeSlots(context.Background(), uuid.New(), testDay)
	require.NoError(t, err)
	require.Len(t, slots, 8)
}

func TestGetAvailabilityEndpoint(t *testing.T) {
	appts := &fakeAppointments{appts: []appointments.Appointment{
		{ScheduledAt: time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)},
	}}
	h := NewHandler(NewService(appts, &fakeCalendar{}, 9, 17, nil), nil)
	r := chi.NewRouter()
	r.Get("/doctors/{id}/availability", h.GetAvailability)

	doctorID := uuid.New()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors/"+doctorID.String()+"/availability?date=2026-09-07", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		AvailableSlots []string `json:"available_slots"`
		Count          int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 7, body.Count)
	require.NotContains(t, body.AvailableSlots, "10:00 AM")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors/"+doctorID.String()+"/availability?date=tuesday", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors/not-a-uuid/availability?date=2026-09-07", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

package appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-secretary/internal/notify"
)

type fakeNotifier struct {
	sent []notify.Kind
}

func (f *fakeNotifier) Send(ctx context.Context, kind notify.Kind, to string, det notify.Details) notify.Result {
	f.sent = append(f.sent, kind)
	return notify.Result{Success: true, Kind: kind, To: to}
}

func newHandlerRouter(t *testing.T) (pgxmock.PgxPoolIface, *fakeNotifier, http.Handler) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	notifier := &fakeNotifier{}
	h := NewHandler(NewRepository(mock, nil), notifier, nil)
	r := chi.NewRouter()
	r.Get("/appointments/date/{date}", h.ListByDate)
	r.Get("/appointments/upcoming", h.ListUpcoming)
	r.Get("/appointments/statistics", h.GetStatistics)
	r.Put("/appointments/{id}/status", h.UpdateStatus)
	r.Put("/appointments/{id}/datetime", h.UpdateDatetime)
	r.Post("/appointments/{id}/notify/{kind}", h.Notify)
	return mock, notifier, r
}

func TestListByDateEndpoint(t *testing.T) {
	mock, _, r := newHandlerRouter(t)

	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(apptColumns).
		AddRow(apptRow(uuid.New(), uuid.New(), uuid.New(), day.Add(10*time.Hour), "checkup", StatusScheduled)...)
	mock.ExpectQuery("FROM appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(rows)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments/date/2026-09-07", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
}

func TestListByDateRejectsMalformedDate(t *testing.T) {
	_, _, r := newHandlerRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments/date/07-09-2026", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	mock, _, r := newHandlerRouter(t)

	id := uuid.New()
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(id, StatusConfirmed).
		WillReturnRows(pgxmock.NewRows(apptColumns).
			AddRow(apptRow(id, uuid.New(), uuid.New(), time.Now(), "checkup", StatusConfirmed)...))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/appointments/"+id.String()+"/status",
		strings.NewReader(`{"status": "confirmed"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	_, _, r := newHandlerRouter(t)
	id := uuid.New()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/appointments/"+id.String()+"/status",
		strings.NewReader(`{"status": "pending"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusNotFoundEndpoint(t *testing.T) {
	mock, _, r := newHandlerRouter(t)
	id := uuid.New()
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(id, StatusCancelled).
		WillReturnError(pgx.ErrNoRows)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/appointments/"+id.String()+"/status",
		strings.NewReader(`{"status": "cancelled"}`)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateDatetimeRejectsMalformed(t *testing.T) {
	_, _, r := newHandlerRouter(t)
	id := uuid.New()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/appointments/"+id.String()+"/datetime",
		strings.NewReader(`{"scheduled_at": "next tuesday"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotifyEndpoint(t *testing.T) {
	mock, notifier, r := newHandlerRouter(t)

	id := uuid.New()
	now := time.Now()
	cols := append(append([]string{}, apptColumns...), "patient_name", "patient_phone", "doctor_name")
	mock.ExpectQuery("JOIN patients").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(id, uuid.New(), uuid.New(), now.Add(24*time.Hour), "consultation", StatusScheduled, "", now, now,
				"Maria Silva", "15551234567", "Dr. Emily Carter"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/"+id.String()+"/notify/reminder", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []notify.Kind{notify.KindReminder}, notifier.sent)
}

func TestNotifyRejectsUnknownKind(t *testing.T) {
	_, notifier, r := newHandlerRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/"+uuid.New().String()+"/notify/fax", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, notifier.sent)
}

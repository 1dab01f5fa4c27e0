package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-secretary/internal/notify"
	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

// Notifier dispatches appointment notifications on the chat channel.
type Notifier interface {
	Send(ctx context.Context, kind notify.Kind, to string, det notify.Details) notify.Result
}

// Handler serves the appointment management endpoints.
type Handler struct {
	repo     *Repository
	notifier Notifier
	logger   *logging.Logger
}

func NewHandler(repo *Repository, notifier Notifier, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, notifier: notifier, logger: logger}
}

// ListByDate handles GET /appointments/date/{date}.
func (h *Handler) ListByDate(w http.ResponseWriter, r *http.Request) {
	day, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	appts, err := h.repo.ListByDate(r.Context(), day)
	if err != nil {
		h.logger.Error("failed to list appointments by date", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	h.writeList(w, appts)
}

// ListUpcoming handles GET /appointments/upcoming?days=N (default 7).
func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}
	appts, err := h.repo.ListUpcoming(r.Context(), days)
	if err != nil {
		h.logger.Error("failed to list upcoming appointments", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	h.writeList(w, appts)
}

// UpdateStatus handles PUT /appointments/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	status, err := ParseStatus(body.Status)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	appt, err := h.repo.UpdateStatus(r.Context(), id, status)
	if errors.Is(err, ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to update appointment status", "appointment_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}
	h.writeJSON(w, http.StatusOK, appt)
}

// UpdateDatetime handles PUT /appointments/{id}/datetime.
func (h *Handler) UpdateDatetime(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var body struct {
		ScheduledAt string `json:"scheduled_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	scheduledAt, err := parseDatetime(body.ScheduledAt)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid scheduled_at, expected ISO datetime")
		return
	}
	appt, err := h.repo.UpdateDatetime(r.Context(), id, scheduledAt)
	if errors.Is(err, ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to update appointment datetime", "appointment_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}
	h.writeJSON(w, http.StatusOK, appt)
}

// GetStatistics handles GET /appointments/statistics.
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Statistics(r.Context())
	if err != nil {
		h.logger.Error("failed to compute appointment statistics", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// Notify handles POST /appointments/{id}/notify/{kind}.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	kind, err := notify.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unknown notification kind")
		return
	}
	det, err := h.repo.GetDetail(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load appointment detail", "appointment_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	result := h.notifier.Send(r.Context(), kind, det.PatientPhone, notify.Details{
		PatientName:     det.PatientName,
		DoctorName:      det.DoctorName,
		AppointmentType: det.Type,
		When:            det.ScheduledAt,
	})
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	h.writeJSON(w, status, result)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid appointment id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeList(w http.ResponseWriter, appts []Appointment) {
	if appts == nil {
		appts = []Appointment{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"appointments": appts,
		"count":        len(appts),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func parseDatetime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("appointments: unrecognized datetime format")
}

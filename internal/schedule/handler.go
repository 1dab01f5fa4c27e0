package schedule

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

// Handler serves availability lookups.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// GetAvailability handles GET /doctors/{id}/availability?date=YYYY-MM-DD.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid doctor id"})
		return
	}
	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	slots, err := h.service.FreeSlots(r.Context(), doctorID, day)
	if err != nil {
		h.logger.Error("failed to compute availability", "doctor_id", doctorID, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute availability"})
		return
	}
	if slots == nil {
		slots = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"doctor_id":       doctorID,
		"date":            day.Format("2006-01-02"),
		"available_slots": slots,
		"count":           len(slots),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

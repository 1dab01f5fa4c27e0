package clinicinfo

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

// Handler serves read-only clinic information endpoints.
type Handler struct {
	info   *Info
	logger *logging.Logger
}

func NewHandler(info *Info, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{info: info, logger: logger}
}

// GetInfo returns the full clinic document.
func (h *Handler) GetInfo(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.info)
}

// Search handles GET /clinic/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing query parameter q"})
		return
	}
	results := h.info.Search(query)
	if results == nil {
		results = []SearchResult{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

// GetSpecialty handles GET /clinic/specialties/{name}.
func (h *Handler) GetSpecialty(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	specialty, ok := h.info.SpecialtyByName(name)
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "specialty not found"})
		return
	}
	h.writeJSON(w, http.StatusOK, specialty)
}

// CheckInsurance handles GET /clinic/insurance/{name}.
func (h *Handler) CheckInsurance(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	h.writeJSON(w, http.StatusOK, map[string]any{
		"insurance_name": name,
		"accepted":       h.info.InsuranceAccepted(name),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

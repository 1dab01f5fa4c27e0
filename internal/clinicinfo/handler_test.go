package clinicinfo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	h := NewHandler(loadDefault(t), nil)
	r := chi.NewRouter()
	r.Get("/clinic/info", h.GetInfo)
	r.Get("/clinic/search", h.Search)
	r.Get("/clinic/specialties/{name}", h.GetSpecialty)
	r.Get("/clinic/insurance/{name}", h.CheckInsurance)
	return r
}

func TestGetInfo(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clinic/info", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Central Medical Clinic", body.ClinicName)
}

func TestSearchEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clinic/search?q=vaccin", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count   int            `json:"count"`
		Results []SearchResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Greater(t, body.Count, 0)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clinic/search", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSpecialtyEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clinic/specialties/Cardiology", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clinic/specialties/Astrology", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckInsuranceEndpoint(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clinic/insurance/HealthFirst", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		InsuranceName string `json:"insurance_name"`
		Accepted      bool   `json:"accepted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Accepted)
}

// Package router assembles the HTTP surface of the service.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicdesk/clinic-secretary/internal/appointments"
	"github.com/clinicdesk/clinic-secretary/internal/clinicinfo"
	"github.com/clinicdesk/clinic-secretary/internal/conversation"
	"github.com/clinicdesk/clinic-secretary/internal/http/middleware"
	"github.com/clinicdesk/clinic-secretary/internal/schedule"
	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

// Config carries the handlers the router mounts.
type Config struct {
	Conversation *conversation.Handler
	ClinicInfo   *clinicinfo.Handler
	Appointments *appointments.Handler
	Schedule     *schedule.Handler
	CORSOrigins  []string
	Logger       *logging.Logger
}

// New builds the chi router with the standard middleware stack.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.RequestLogger(cfg.Logger))

	r.Get("/health", cfg.Conversation.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/agent/message", cfg.Conversation.ProcessMessage)
	r.Get("/webhook", cfg.Conversation.VerifyWebhook)
	r.Post("/webhook", cfg.Conversation.ReceiveWebhook)

	r.Route("/conversation", func(r chi.Router) {
		r.Get("/history/{channel_id}", cfg.Conversation.GetHistory)
		r.Post("/reset/{channel_id}", cfg.Conversation.ResetConversation)
	})

	r.Route("/clinic", func(r chi.Router) {
		r.Get("/info", cfg.ClinicInfo.GetInfo)
		r.Get("/search", cfg.ClinicInfo.Search)
		r.Get("/specialties/{name}", cfg.ClinicInfo.GetSpecialty)
		r.Get("/insurance/{name}", cfg.ClinicInfo.CheckInsurance)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Get("/date/{date}", cfg.Appointments.ListByDate)
		r.Get("/upcoming", cfg.Appointments.ListUpcoming)
		r.Get("/statistics", cfg.Appointments.GetStatistics)
		r.Put("/{id}/status", cfg.Appointments.UpdateStatus)
		r.Put("/{id}/datetime", cfg.Appointments.UpdateDatetime)
		r.Post("/{id}/notify/{kind}", cfg.Appointments.Notify)
	})

	r.Get("/doctors/{id}/availability", cfg.Schedule.GetAvailability)

	return r
}

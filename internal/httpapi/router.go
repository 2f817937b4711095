package httpapi

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PabloGalante/meeting-engine/internal/agentsvc"
	"github.com/PabloGalante/meeting-engine/internal/config"
	"github.com/PabloGalante/meeting-engine/internal/meetingsvc"
	"github.com/PabloGalante/meeting-engine/internal/middleware"
	"github.com/PabloGalante/meeting-engine/pkg/logger"
)

// NewRouter builds the full chi router: unauthenticated health/metrics
// endpoints, then an authenticated, rate-limited /api/v1 group covering
// every §6.1 operation. Grounded on the teacher's cmd/api/main.go inline
// wiring, factored into this package because the meeting domain's route
// surface is much larger than the teacher's conversations/messages pair.
func NewRouter(cfg *config.Config, log *logger.Logger, agentSvc *agentsvc.Service, meetingSvc *meetingsvc.Service, ready func() error) chi.Router {
	agents := NewAgentHandler(agentSvc)
	meetings := NewMeetingHandler(meetingSvc)
	stream := NewStreamHandler(meetingSvc)
	health := NewHealthHandler(ready)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/agents", func(r chi.Router) {
			r.Post("/", agents.Create)
			r.Get("/", agents.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", agents.Get)
				r.Put("/", agents.Update)
				r.Delete("/", agents.Delete)
				r.Post("/test_connection", agents.TestConnection)
			})
		})

		r.Route("/meetings", func(r chi.Router) {
			r.Post("/", meetings.Create)
			r.Get("/", meetings.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", meetings.Get)
				r.Delete("/", meetings.Delete)

				r.Post("/start", meetings.Start)
				r.Post("/pause", meetings.Pause)
				r.Post("/end", meetings.End)
				r.Post("/cancel", meetings.Cancel)

				r.Post("/messages", meetings.AddUserMessage)
				r.Post("/turns", meetings.RequestTurn)
				r.Post("/turns/stream", stream.RequestTurn)
				r.Post("/rounds", meetings.RunRound)

				r.Post("/agenda", meetings.AddAgendaItem)
				r.Post("/agenda/{item_id}/complete", meetings.MarkAgendaCompleted)
				r.Delete("/agenda/{item_id}", meetings.RemoveAgendaItem)

				r.Post("/minutes/generate", meetings.GenerateMinutes)
				r.Put("/minutes", meetings.UpdateMinutes)
				r.Get("/minutes/history", meetings.MinutesHistory)

				r.Post("/mindmap/generate", meetings.GenerateMindMap)
				r.Put("/mindmap", meetings.UpdateMindMap)
				r.Get("/mindmap/export", meetings.ExportMindMap)

				r.Get("/export", meetings.Export)
			})
		})
	})

	return r
}

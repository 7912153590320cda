package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/advisorlens/advisorlens/internal/api/handlers"
	"github.com/advisorlens/advisorlens/internal/api/middleware"
	"github.com/advisorlens/advisorlens/internal/config"
	"github.com/advisorlens/advisorlens/internal/pkg/logger"
	"github.com/advisorlens/advisorlens/internal/pkg/metrics"
)

// Handlers bundles the HTTP handlers the router mounts.
type Handlers struct {
	Health *handlers.HealthHandler
	Report *handlers.ReportHandler
}

// New builds the HTTP router.
func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))
	r.Use(metrics.Middleware)
	r.Use(middleware.RateLimit(50, 100))

	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1/reports", func(r chi.Router) {
		r.Post("/", h.Report.Upload)
		r.Get("/", h.Report.List)
		r.Get("/{id}", h.Report.Get)
		r.Get("/{id}/recommendations", h.Report.ListRecommendations)
		r.Get("/{id}/context", h.Report.GetContext)
		r.Delete("/{id}", h.Report.Delete)
	})

	return r
}

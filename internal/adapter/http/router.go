package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/adapter/http/handler"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/adapter/http/middleware"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the ops router.
type RouterConfig struct {
	HealthHandler *handler.HealthHandler
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
}

// NewRouter creates the operational HTTP router. The point engine has no
// business API; this listener only serves probes and the metrics scrape.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger, "/healthz", "/readyz", "/metrics").Wrap)
	r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	r.Use(middleware.Recovery)

	r.Get("/healthz", cfg.HealthHandler.Liveness)
	r.Get("/readyz", cfg.HealthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

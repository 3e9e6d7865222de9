package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pitabwire/ucomparison/internal/config"
	"github.com/pitabwire/ucomparison/internal/definition"
	"github.com/pitabwire/ucomparison/internal/observability"
	"github.com/pitabwire/ucomparison/internal/session"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config         *config.Config
	Logger         *zap.Logger
	Registry       *definition.Registry
	Sessions       *session.Store
	Metrics        *observability.Metrics
	MetricsHandler http.Handler
	RateLimiter    *RateLimiter
	Readiness      observability.ReadinessChecks
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints skip request
// logging and the handler timeout.
func NewRouter(deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(RequestID)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.MetricsMiddleware)
	}
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(SecurityHeaders)

	readiness := deps.Readiness
	if readiness.Dataset == nil {
		readiness.Dataset = deps.Registry
	}
	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = observability.Handler()
	}
	metricsPath := deps.Config.Observability.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	r.Get("/ui/health", observability.HandleHealth())
	r.Get("/ui/ready", observability.HandleReady(readiness))
	r.Method(http.MethodGet, metricsPath, metricsHandler)

	r.Group(func(r chi.Router) {
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging(logger))

		r.Get("/ui/configuration", handleGetConfiguration(deps.Registry, deps.Sessions))
		r.Get("/ui/entities/{index}", handleGetEntity(deps.Registry))

		r.Post("/ui/sessions", handleCreateSession(deps.Registry, deps.Sessions))
		r.Get("/ui/sessions/{sessionId}", handleGetSession(deps.Sessions))
		r.Delete("/ui/sessions/{sessionId}", handleDeleteSession(deps.Sessions))
		r.With(deps.RateLimiter.Middleware).
			Post("/ui/sessions/{sessionId}/actions", handleDispatch(deps.Sessions))
	})

	return r
}

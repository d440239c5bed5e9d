package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pitabwire/obsthemes/internal/catalog"
	"github.com/pitabwire/obsthemes/internal/config"
	"github.com/pitabwire/obsthemes/internal/observability"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	Lister     *catalog.Lister
	Store      *catalog.Store
	Aggregator *catalog.Aggregator
	Validator  catalog.DocumentValidator

	// ValidationObserver receives single-document validations from
	// POST /api/validate. Optional.
	ValidationObserver catalog.ValidationObserver

	// Metrics records per-route request metrics. Optional.
	Metrics *observability.Metrics

	HealthHandler  http.Handler
	ReadyHandler   http.Handler
	MetricsHandler http.Handler
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints skip the
// timeout and request logging layers. The metrics endpoint is only served
// when metrics are enabled.
func NewRouter(deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery(logger))
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.MetricsMiddleware)
	}

	health := deps.HealthHandler
	if health == nil {
		health = observability.HandleHealth()
	}
	ready := deps.ReadyHandler
	if ready == nil {
		var checks observability.ReadinessChecks
		if deps.Lister != nil {
			checks.ThemeDirectory = deps.Lister
		}
		ready = observability.HandleReady(checks)
	}

	r.Method(http.MethodGet, "/api/health", health)
	r.Method(http.MethodGet, "/api/ready", ready)

	if mc := deps.Config.Observability.Metrics; mc.Enabled {
		metrics := deps.MetricsHandler
		if metrics == nil {
			metrics = observability.Handler()
		}
		metricsPath := mc.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.Method(http.MethodGet, metricsPath, metrics)
	}

	maxBody := deps.Config.Server.MaxBodyBytes

	r.Group(func(r chi.Router) {
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging(logger))

		r.Get("/api/themes", handleListThemes(deps.Lister))
		r.Get("/api/themes/{name}", handleDownloadTheme(deps.Store))
		r.Delete("/api/themes/{name}", handleDeleteTheme(deps.Store))
		r.Post("/api/themes/{name}/duplicate", handleDuplicateTheme(deps.Store, maxBody))
		r.Get("/api/themes/{name}/meta", handleGetMeta(deps.Store))
		r.Put("/api/themes/{name}/meta", handleUpdateMeta(deps.Store, maxBody))
		r.Post("/api/themes/{name}/meta", handleUpdateMeta(deps.Store, maxBody))

		r.Get("/api/validate", handleValidateCatalog(deps.Lister, deps.Aggregator))
		r.Post("/api/validate", handleValidateDocument(deps.Validator, deps.ValidationObserver, maxBody))
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"error": map[string]string{"code": "METHOD_NOT_ALLOWED", "message": "Method not allowed"},
		})
	})

	return r
}

package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/document-intake/internal/config"
	"github.com/kirillkom/document-intake/internal/core/ports"
	"github.com/kirillkom/document-intake/internal/observability/metrics"
)

const serviceName = "intake-api"

type Router struct {
	cfg       config.Config
	validator ports.SubmissionValidator
	metrics   *metrics.HTTPServerMetrics
}

// NewRouter builds the API surface. httpMetrics may be nil.
func NewRouter(
	cfg config.Config,
	validator ports.SubmissionValidator,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:       cfg,
		validator: validator,
		metrics:   httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware, accessLogMiddleware)
	if rt.metrics != nil {
		r.Use(func(next http.Handler) http.Handler {
			return rt.metrics.Middleware(serviceName, routePattern, next)
		})
	}

	r.Get("/healthz", rt.healthz)
	r.Get("/openapi.yaml", rt.openAPIDocument)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(rt.rateLimit, rt.backpressure)
		r.Post("/v1/submissions/validate", rt.validateSubmission)
		r.Post("/validate-submission", rt.validateSubmission)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})
	return r
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) rateLimit(next http.Handler) http.Handler {
	return rateLimitMiddleware(next, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.rejected("rate_limited"))
}

func (rt *Router) backpressure(next http.Handler) http.Handler {
	wait := time.Duration(rt.cfg.APIBackpressureWaitMS) * time.Millisecond
	return backpressureMiddleware(next, rt.cfg.APIMaxInFlight, wait, rt.rejected("backpressure"))
}

func (rt *Router) rejected(reason string) func() {
	if rt.metrics == nil {
		return nil
	}
	return func() { rt.metrics.RecordRejected(serviceName, reason) }
}

// routePattern labels metrics with the matched chi pattern so unknown paths
// cannot blow up label cardinality.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareRecordsStatusAndRoute(t *testing.T) {
	m := NewHTTPServerMetrics("intake-api")
	handler := m.Middleware("intake-api", func(*http.Request) string { return "/v1/submissions/validate" },
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate-submission", nil))

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("intake-api", http.MethodPost, "/v1/submissions/validate", "413"))
	if got != 1 {
		t.Fatalf("expected one 413 request, got %v", got)
	}
	if v := testutil.ToFloat64(m.requestInFlight); v != 0 {
		t.Fatalf("in-flight gauge should return to 0, got %v", v)
	}
}

func TestRecordValidationExposesOutcome(t *testing.T) {
	m := NewHTTPServerMetrics("intake-api")
	m.RecordValidation("intake-api", "deferred", 2, 15*time.Millisecond)
	m.RecordValidation("intake-api", "pass", 1, 5*time.Millisecond)
	m.RecordValidation("intake-api", "pass", 1, 5*time.Millisecond)
	m.RecordValidationError("intake-api", http.StatusServiceUnavailable)
	m.RecordRejected("intake-api", "rate_limited")

	if v := testutil.ToFloat64(m.validationOutcomes.WithLabelValues("intake-api", "pass")); v != 2 {
		t.Fatalf("expected 2 pass outcomes, got %v", v)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`intake_validation_outcomes_total{outcome="deferred",service="intake-api"} 1`,
		`intake_validation_errors_total{service="intake-api",status="503"} 1`,
		`intake_http_rejected_total{reason="rate_limited",service="intake-api"} 1`,
		"intake_validation_files_bucket",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/metrics"
)

// Registering the collectors twice panics, so every test shares one instance.
var testMetrics = metrics.New()

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		wantPath   string
		statusCode int
	}{
		{
			name:       "known ops path kept as-is",
			method:     http.MethodGet,
			path:       "/healthz",
			wantPath:   "/healthz",
			statusCode: http.StatusOK,
		},
		{
			name:       "unknown path collapsed",
			method:     http.MethodGet,
			path:       "/wp-admin/setup.php",
			wantPath:   "other",
			statusCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			testMetrics.HTTPRequests.Reset()
			testMetrics.HTTPDuration.Reset()
			testMetrics.HTTPInFlight.Set(0)

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(tc.statusCode)
			})

			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()

			NewMetricsMiddleware(testMetrics).Wrap(next).ServeHTTP(rr, req)

			if !handlerCalled {
				t.Fatalf("next handler was not invoked")
			}

			if got := testutil.ToFloat64(testMetrics.HTTPInFlight); got != 0 {
				t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
			}

			counter := testMetrics.HTTPRequests.WithLabelValues(tc.method, tc.wantPath, strconv.Itoa(tc.statusCode))
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected counter to be 1, got %v", got)
			}
		})
	}
}

func TestMetricsMiddlewareNilMetricsPassesThrough(t *testing.T) {
	handlerCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	NewMetricsMiddleware(nil).Wrap(next).ServeHTTP(httptest.NewRecorder(), req)

	if !handlerCalled {
		t.Fatalf("next handler was not invoked")
	}
}

func TestNormalizePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/healthz/extra", "other"},
		{"/api/v1/accounts/ABC123", "other"},
	}

	for _, tc := range testCases {
		if got := normalizePath(tc.input); got != tc.expected {
			t.Fatalf("normalizePath(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}

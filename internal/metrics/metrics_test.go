package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripstory/internal/metrics"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/api/trips/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", metrics.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trips/0b4c1a7e-2f4d-4a0e-9d43-1c1e8b7e2c11", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `tripstory_http_requests_total{method="GET",route="/api/trips/{id}",status="418"}`)
	assert.False(t, strings.Contains(body, "0b4c1a7e"), "ids must not leak into labels")
}

func TestProviderRequests_Exposed(t *testing.T) {
	metrics.ProviderRequests.WithLabelValues("test", "ok").Inc()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// Label pairs are rendered in name order.
	assert.Contains(t, rec.Body.String(), `tripstory_provider_requests_total{outcome="ok",provider="test"}`)
}

package observability

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/uploads/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	})

	for _, id := range []string{"a1", "b2", "c3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/uploads/"+id, nil))
	}

	require.Equal(t, 3.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/api/uploads/{id}", "404")),
		"ids must collapse into one route series")
	require.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}

func TestMiddlewareUnknownRoute(t *testing.T) {
	m := NewMetrics()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("unknown", "200")))
}

func TestHandlerExposesJobSeries(t *testing.T) {
	m := NewMetrics()
	_ = m.Jobs().Track("ingest:validate").End(errors.New("bad sheet"))
	m.Jobs().AddUploadOutcome("Taiwan", "invalid")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `finconsol_jobs_failures_total{job="ingest:validate"} 1`)
	require.Contains(t, string(body), `finconsol_upload_outcomes_total{market="Taiwan",status="invalid"} 1`)
	require.Contains(t, string(body), "go_goroutines")
}

func TestNilMetricsAreInert(t *testing.T) {
	var m *Metrics
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	rr := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.NotNil(t, m.Jobs())
}

package insightshttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/finconsol/internal/insights"
)

type stubPayload struct{}

func (stubPayload) Build(ctx context.Context) (insights.Payload, error) {
	return insights.Payload{Period: "May 2024"}, nil
}

func newRouter(delay time.Duration) (http.Handler, *insights.Manager) {
	m := insights.NewManager(insights.StaticSummarizer{Text: "**ok**", Delay: delay}, time.Second, nil)
	r := chi.NewRouter()
	NewHandler(nil, m, stubPayload{}).MountRoutes(r)
	return r, m
}

func do(router http.Handler, method, path string) (*httptest.ResponseRecorder, insights.Snapshot) {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	var snap insights.Snapshot
	_ = json.Unmarshal(rr.Body.Bytes(), &snap)
	return rr, snap
}

func TestInsightLifecycle(t *testing.T) {
	router, m := newRouter(0)
	rr, snap := do(router, http.MethodPost, "/insights/variance")
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Equal(t, insights.PhasePending, snap.Phase)

	m.Wait()
	rr, snap = do(router, http.MethodGet, "/insights/variance")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, insights.PhaseSucceeded, snap.Phase)
	require.Contains(t, string(snap.HTML), "<strong>ok</strong>")
}

func TestInsightConflictAndCancel(t *testing.T) {
	router, m := newRouter(time.Hour)
	rr, _ := do(router, http.MethodPost, "/insights/variance")
	require.Equal(t, http.StatusAccepted, rr.Code)

	rr, _ = do(router, http.MethodPost, "/insights/variance")
	require.Equal(t, http.StatusConflict, rr.Code)

	rr, snap := do(router, http.MethodDelete, "/insights/variance")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, insights.PhaseIdle, snap.Phase)
	m.Wait()
}

func TestInsightUnknownView(t *testing.T) {
	router, _ := newRouter(0)
	rr, _ := do(router, http.MethodGet, "/insights/nowhere")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

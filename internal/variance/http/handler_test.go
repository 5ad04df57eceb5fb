package variancehttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/finconsol/internal/variance"
)

type stubTable struct {
	rows []variance.VarianceRow
}

func (s stubTable) Table(ctx context.Context) ([]variance.VarianceRow, error) {
	return s.rows, nil
}

func newRouter() http.Handler {
	rows := variance.Compare([]variance.ComparisonRow{
		{Metric: "Gross Revenue", Kind: variance.KindRevenue, Unit: "$m", Actual: 4285, Budget: 4150, Forecast: 4300},
	}, variance.Thresholds{})
	r := chi.NewRouter()
	NewHandler(nil, stubTable{rows: rows}).MountRoutes(r)
	return r
}

func TestCalculateZeroBaselineReturnsNA(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/variance/calc?actual=12&baseline=0", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var resp CalcResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Percent != nil || resp.Display != "N/A" {
		t.Fatalf("expected N/A got %+v", resp)
	}
}

func TestCalculateCostKind(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/variance/calc?actual=110&baseline=100&kind=cost", nil))
	var resp CalcResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Display != "+10.0%" || resp.Severity != variance.SeverityAdverse {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCalculateRejectsBadInput(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/variance/calc?actual=abc&baseline=1", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestCalculateRejectsNonFiniteValues(t *testing.T) {
	for _, query := range []string{
		"actual=NaN&baseline=1",
		"actual=1&baseline=Inf",
		"actual=1e308&baseline=-1e308",
	} {
		rr := httptest.NewRecorder()
		newRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/variance/calc?"+query, nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d body %q", query, rr.Code, rr.Body.String())
		}
	}
}

func TestExportCSV(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/variance/export", nil))
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, "Metric,Unit,Actual") || !strings.Contains(body, "Gross Revenue,$m,4285.00,4150.00,4300.00,+3.3%,-0.3%,false") {
		t.Fatalf("unexpected csv %q", body)
	}
}

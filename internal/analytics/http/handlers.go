package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/finconsol/internal/analytics"
	"github.com/odyssey-erp/finconsol/internal/analytics/export"
	"github.com/odyssey-erp/finconsol/internal/analytics/svg"
	"github.com/odyssey-erp/finconsol/internal/consol"
	"github.com/odyssey-erp/finconsol/internal/platform/httpx"
)

const requestTimeout = 2 * time.Second

// DashboardService defines the dashboard data contract used by the handler.
type DashboardService interface {
	Overview(ctx context.Context, req analytics.OverviewRequest) (analytics.Overview, error)
	GetKPIs(ctx context.Context) ([]analytics.KPIMetric, error)
	GetMacro(ctx context.Context) ([]analytics.MacroIndicator, error)
	GetBridge(ctx context.Context) ([]analytics.Step, error)
	GetTrend(ctx context.Context) ([]analytics.TrendPoint, error)
	BridgeChart(ctx context.Context, width, height int) (template.HTML, error)
	TrendChart(ctx context.Context, width, height int) (template.HTML, error)
}

// StateService persists workspace selections per session.
type StateService interface {
	Load(ctx context.Context, session string) (analytics.State, error)
	Save(ctx context.Context, session string, state analytics.State) (analytics.State, error)
}

// Handler coordinates HTTP requests for the consolidation dashboard.
type Handler struct {
	logger  *slog.Logger
	service DashboardService
	states  StateService
	csvPool sync.Pool
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService, states StateService) *Handler {
	h := &Handler{logger: logger, service: service, states: states}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := h.overviewRequest(ctx, r)
	if err != nil {
		h.respondError(w, "dashboard filters", err)
		return
	}
	overview, err := h.service.Overview(ctx, req)
	if err != nil {
		h.respondError(w, "load dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) handleKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.service.GetKPIs(r.Context())
	if err != nil {
		h.respondError(w, "load kpis", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"kpis": kpis})
}

func (h *Handler) handleMacro(w http.ResponseWriter, r *http.Request) {
	macro, err := h.service.GetMacro(r.Context())
	if err != nil {
		h.respondError(w, "load macro", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"indicators": macro})
}

func (h *Handler) handleBridge(w http.ResponseWriter, r *http.Request) {
	steps, err := h.service.GetBridge(r.Context())
	if err != nil {
		h.respondError(w, "load bridge", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"steps": steps})
}

func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.GetTrend(r.Context())
	if err != nil {
		h.respondError(w, "load trend", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"points": points})
}

func (h *Handler) handleBridgeChart(w http.ResponseWriter, r *http.Request) {
	h.writeChart(w, r, "bridge chart", h.service.BridgeChart)
}

func (h *Handler) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	h.writeChart(w, r, "trend chart", h.service.TrendChart)
}

func (h *Handler) writeChart(w http.ResponseWriter, r *http.Request, name string, render func(context.Context, int, int) (template.HTML, error)) {
	width, height, err := parseSize(r)
	if err != nil {
		h.respondError(w, name, err)
		return
	}
	chart, err := render(r.Context(), width, height)
	if err != nil {
		h.respondError(w, name, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "private, max-age=60")
	if _, err := w.Write([]byte(chart)); err != nil {
		h.logError("stream "+name, err)
	}
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := h.overviewRequest(ctx, r)
	if err != nil {
		h.respondError(w, "dashboard filters", err)
		return
	}
	overview, err := h.service.Overview(ctx, req)
	if err != nil {
		h.respondError(w, "load dashboard", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteKPICSV(buf, overview.KPIs); err != nil {
		h.respondError(w, "write kpi csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteBridgeCSV(buf, overview.Bridge); err != nil {
		h.respondError(w, "write bridge csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteTrendCSV(buf, overview.Trend); err != nil {
		h.respondError(w, "write trend csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteLedgerCSV(buf, overview.Ledger); err != nil {
		h.respondError(w, "write ledger csv", err)
		return
	}

	filename := fmt.Sprintf("consolidation-%d-%s.csv", analytics.DefaultFiscalYear, strings.ToLower(string(req.Currency)))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.states.Load(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		h.respondError(w, "load state", err)
		return
	}
	httpx.JSON(w, http.StatusOK, state)
}

func (h *Handler) handlePutState(w http.ResponseWriter, r *http.Request) {
	var state analytics.State
	if err := httpx.DecodeJSON(r, &state); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	saved, err := h.states.Save(r.Context(), chi.URLParam(r, "session"), state)
	if err != nil {
		h.respondError(w, "save state", err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

// overviewRequest resolves currency and expansion from the session state,
// with an explicit currency query overriding it.
func (h *Handler) overviewRequest(ctx context.Context, r *http.Request) (analytics.OverviewRequest, error) {
	req := analytics.OverviewRequest{Currency: consol.CurrencyHKD}
	if session := strings.TrimSpace(r.URL.Query().Get("session")); session != "" && h.states != nil {
		state, err := h.states.Load(ctx, session)
		if err != nil {
			return analytics.OverviewRequest{}, err
		}
		req.Currency = state.Currency
		req.Expanded = state.Expanded
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("currency")); raw != "" {
		currency, err := consol.ParseCurrency(raw)
		if err != nil {
			return analytics.OverviewRequest{}, httpx.Wrap(httpx.ErrValidation, err)
		}
		req.Currency = currency
	}
	return req, nil
}

func (h *Handler) respondError(w http.ResponseWriter, context string, err error) {
	switch {
	case errors.Is(err, analytics.ErrInvalidState):
		err = httpx.Wrap(httpx.ErrValidation, err)
	case errors.Is(err, errInvalidSize):
		err = httpx.Wrap(httpx.ErrValidation, err)
	default:
		h.logError(context, err)
	}
	httpx.RespondError(w, err)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

var errInvalidSize = errors.New("analytics: invalid chart size")

func parseSize(r *http.Request) (int, int, error) {
	width, height := svg.DefaultWidth, svg.DefaultHeight
	for name, dst := range map[string]*int{"width": &width, "height": &height} {
		raw := strings.TrimSpace(r.URL.Query().Get(name))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 120 || v > 2400 {
			return 0, 0, fmt.Errorf("%w: %s=%q", errInvalidSize, name, raw)
		}
		*dst = v
	}
	return width, height, nil
}

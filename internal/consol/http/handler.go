package consolhttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/finconsol/internal/analytics"
	"github.com/odyssey-erp/finconsol/internal/analytics/export"
	"github.com/odyssey-erp/finconsol/internal/consol"
	"github.com/odyssey-erp/finconsol/internal/consol/fx"
	"github.com/odyssey-erp/finconsol/internal/platform/httpx"
)

// LedgerService renders and navigates the consolidated grid.
type LedgerService interface {
	Render(ctx context.Context, expanded []string, currency consol.Currency) (consol.View, error)
	Toggle(ctx context.Context, expanded []string, id string) ([]string, error)
	Reconcile(opts consol.ReconcileOptions) []consol.Mismatch
	DefaultExpanded() []string
	Expandable(ids []string) []string
}

// StateService persists the expansion set with the rest of a session's workspace.
type StateService interface {
	Load(ctx context.Context, session string) (analytics.State, error)
	Save(ctx context.Context, session string, state analytics.State) (analytics.State, error)
}

// Handler serves FX and ledger endpoints.
type Handler struct {
	logger  *slog.Logger
	ledger  LedgerService
	states  StateService
	table   *fx.Table
	cache   *viewCache
	metrics *LedgerMetrics
}

// NewHandler constructs the handler. states may be nil, in which case
// expansion travels in the expanded query parameter.
func NewHandler(logger *slog.Logger, ledger LedgerService, states StateService, table *fx.Table) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, ledger: ledger, states: states, table: table, cache: newViewCache(cacheTTL, cacheLimit)}
}

// WithMetrics records grid cache lookups and render timings.
func (h *Handler) WithMetrics(m *LedgerMetrics) *Handler {
	h.metrics = m
	return h
}

// MountRoutes registers the fx and ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/fx", func(r chi.Router) {
		r.Get("/rates", h.rates)
		r.Get("/convert", h.convert)
	})
	r.Route("/ledger", func(r chi.Router) {
		r.Get("/", h.render)
		r.Get("/export.csv", h.exportCSV)
		r.Get("/reconcile", h.reconcile)
		r.Post("/{id}/toggle", h.toggle)
	})
}

func (h *Handler) rates(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"reporting_currency": fx.ReportingCurrency,
		"rates":              h.table.Rates(),
	})
}

// Conversion is the single-amount FX payload.
type Conversion struct {
	Market   fx.Market       `json:"market"`
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
	Local    decimal.Decimal `json:"local"`
	HKD      decimal.Decimal `json:"hkd"`
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	market, err := fx.ParseMarket(q.Get("market"))
	if err != nil {
		httpx.RespondError(w, httpx.Wrap(httpx.ErrValidation, err))
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(q.Get("amount")))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: amount: %v", httpx.ErrValidation, err))
		return
	}
	rate, err := h.table.Rate(market)
	if err != nil {
		h.respondError(w, "fx rate", err)
		return
	}
	out := Conversion{Market: market, Currency: market.Currency(), Rate: rate}
	switch strings.ToLower(q.Get("direction")) {
	case "", "to_hkd":
		out.Local = amount
		out.HKD, err = h.table.ToHKD(market, amount)
	case "from_hkd":
		out.HKD = amount
		out.Local, err = h.table.FromHKD(market, amount)
	default:
		httpx.RespondError(w, fmt.Errorf("%w: direction must be to_hkd or from_hkd", httpx.ErrValidation))
		return
	}
	if err != nil {
		h.respondError(w, "fx convert", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// expansion resolves the expansion set from the session state or the query string.
func (h *Handler) expansion(ctx context.Context, r *http.Request) ([]string, *analytics.State, error) {
	session := strings.TrimSpace(r.URL.Query().Get("view"))
	if session != "" && h.states != nil {
		state, err := h.states.Load(ctx, session)
		if err != nil {
			return nil, nil, err
		}
		return state.Expanded, &state, nil
	}
	if raw, ok := r.URL.Query()["expanded"]; ok {
		var ids []string
		for _, part := range strings.Split(strings.Join(raw, ","), ",") {
			if part = strings.TrimSpace(part); part != "" {
				ids = append(ids, part)
			}
		}
		return ids, nil, nil
	}
	return h.ledger.DefaultExpanded(), nil, nil
}

func (h *Handler) currency(r *http.Request, state *analytics.State) (consol.Currency, error) {
	raw := r.URL.Query().Get("currency")
	if raw == "" && state != nil {
		return state.Currency, nil
	}
	return consol.ParseCurrency(raw)
}

func (h *Handler) view(ctx context.Context, r *http.Request) (consol.View, error) {
	expanded, state, err := h.expansion(ctx, r)
	if err != nil {
		return consol.View{}, err
	}
	currency, err := h.currency(r, state)
	if err != nil {
		return consol.View{}, httpx.Wrap(httpx.ErrValidation, err)
	}
	expanded = h.ledger.Expandable(expanded)
	key := viewKey(currency, expanded)
	cached, hit := h.cache.Get(key)
	h.metrics.lookup(string(currency), hit)
	if hit {
		return cloneView(cached), nil
	}
	view, err, _ := singleflightRender(ctx, key, func(ctx context.Context) (consol.View, error) {
		start := time.Now()
		v, err := h.ledger.Render(ctx, expanded, currency)
		h.metrics.rendered(string(currency), time.Since(start))
		return v, err
	})
	if err != nil {
		return consol.View{}, err
	}
	h.cache.Set(key, view)
	return cloneView(view), nil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request) {
	view, err := h.view(r.Context(), r)
	if err != nil {
		h.respondError(w, "render ledger", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	view, err := h.view(r.Context(), r)
	if err != nil {
		h.respondError(w, "export ledger", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=ledger.csv")
	if err := export.WriteLedgerCSV(w, view); err != nil {
		h.logger.Error("write ledger csv", slog.Any("error", err))
	}
}

// ToggleResponse reports the expansion set after a toggle.
type ToggleResponse struct {
	ID       string   `json:"id"`
	Expanded []string `json:"expanded"`
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	expanded, state, err := h.expansion(ctx, r)
	if err != nil {
		h.respondError(w, "toggle ledger", err)
		return
	}
	id := chi.URLParam(r, "id")
	next, err := h.ledger.Toggle(ctx, expanded, id)
	if err != nil {
		h.respondError(w, "toggle ledger", err)
		return
	}
	if state != nil {
		state.Expanded = next
		if _, err := h.states.Save(ctx, r.URL.Query().Get("view"), *state); err != nil {
			h.respondError(w, "save expansion", err)
			return
		}
	}
	httpx.JSON(w, http.StatusOK, ToggleResponse{ID: id, Expanded: next})
}

// ReconcileResponse lists reconciliation mismatches.
type ReconcileResponse struct {
	Reconciled bool              `json:"reconciled"`
	CrossFoot  bool              `json:"cross_foot"`
	Mismatches []consol.Mismatch `json:"mismatches"`
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	crossFoot := r.URL.Query().Get("crossfoot") != "0"
	mismatches := h.ledger.Reconcile(consol.ReconcileOptions{CrossFoot: crossFoot})
	if mismatches == nil {
		mismatches = []consol.Mismatch{}
	}
	httpx.JSON(w, http.StatusOK, ReconcileResponse{Reconciled: len(mismatches) == 0, CrossFoot: crossFoot, Mismatches: mismatches})
}

func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	var missing *fx.MissingRateError
	switch {
	case errors.Is(err, httpx.ErrValidation):
	case errors.Is(err, consol.ErrUnknownRow):
		err = httpx.Wrap(httpx.ErrNotFound, err)
	case errors.Is(err, consol.ErrNotExpandable), errors.Is(err, analytics.ErrInvalidState):
		err = httpx.Wrap(httpx.ErrValidation, err)
	case errors.As(err, &missing):
		h.logger.Error(msg, slog.Any("error", err))
		err = httpx.Wrap(httpx.ErrUnavailable, err)
	default:
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

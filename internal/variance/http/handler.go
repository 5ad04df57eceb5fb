package variancehttp

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/finconsol/internal/platform/httpx"
	"github.com/odyssey-erp/finconsol/internal/variance"
)

// TableService exposes the comparison table.
type TableService interface {
	Table(ctx context.Context) ([]variance.VarianceRow, error)
}

// Handler serves variance endpoints.
type Handler struct {
	logger  *slog.Logger
	service TableService
}

// NewHandler constructs handler.
func NewHandler(logger *slog.Logger, service TableService) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/variance", func(r chi.Router) {
		r.Get("/", h.table)
		r.Get("/calc", h.calculate)
		r.Get("/export", h.export)
	})
}

func (h *Handler) table(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Table(r.Context())
	if err != nil {
		h.serverError(w, "variance table", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}

// CalcResponse is the single-variance payload. Percent is null when undefined.
type CalcResponse struct {
	Actual   float64             `json:"actual"`
	Baseline float64             `json:"baseline"`
	Kind     variance.MetricKind `json:"kind"`
	Percent  *float64            `json:"percent"`
	Display  string              `json:"display"`
	Severity variance.Severity   `json:"severity"`
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	actual, err := parseFloat(q.Get("actual"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: actual: %v", httpx.ErrValidation, err))
		return
	}
	baseline, err := parseFloat(q.Get("baseline"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: baseline: %v", httpx.ErrValidation, err))
		return
	}
	kind, err := variance.ParseMetricKind(q.Get("kind"))
	if err != nil {
		httpx.RespondError(w, httpx.Wrap(httpx.ErrValidation, err))
		return
	}
	resp := CalcResponse{Actual: actual, Baseline: baseline, Kind: kind}
	pct, err := variance.Calculate(actual, baseline)
	switch {
	case errors.Is(err, variance.ErrDivisionByZero):
		resp.Display = variance.NotAvailable
		resp.Severity = variance.SeverityUndefined
	case errors.Is(err, variance.ErrNonFinite):
		httpx.RespondError(w, httpx.Wrap(httpx.ErrValidation, err))
		return
	case err != nil:
		h.serverError(w, "variance calc", err)
		return
	default:
		resp.Percent = &pct
		resp.Display = variance.Format(pct)
		resp.Severity = variance.Assess(pct, kind)
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Table(r.Context())
	if err != nil {
		h.serverError(w, "variance export", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=variance.csv")
	writer := csv.NewWriter(w)
	for _, row := range variance.ExportRows(rows) {
		if err := writer.Write(row); err != nil {
			break
		}
	}
	writer.Flush()
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	if h.logger != nil {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parseFloat(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("required")
	}
	return strconv.ParseFloat(value, 64)
}

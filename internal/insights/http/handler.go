package insightshttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/finconsol/internal/analytics"
	"github.com/odyssey-erp/finconsol/internal/insights"
	"github.com/odyssey-erp/finconsol/internal/platform/httpx"
)

// RequestManager is the insight state machine surface.
type RequestManager interface {
	Request(ctx context.Context, view analytics.View, payload insights.Payload) (insights.Snapshot, error)
	Cancel(view analytics.View) bool
	State(view analytics.View) insights.Snapshot
}

// PayloadSource assembles the data sent to the summarizer.
type PayloadSource interface {
	Build(ctx context.Context) (insights.Payload, error)
}

// Handler serves insight endpoints.
type Handler struct {
	logger  *slog.Logger
	manager RequestManager
	payload PayloadSource
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, manager RequestManager, payload PayloadSource) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, manager: manager, payload: payload}
}

// MountRoutes registers insight routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/insights/{view}", func(r chi.Router) {
		r.Get("/", h.state)
		r.Post("/", h.request)
		r.Delete("/", h.cancel)
	})
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) (analytics.View, bool) {
	view, err := analytics.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		httpx.RespondError(w, httpx.Wrap(httpx.ErrValidation, err))
		return "", false
	}
	return view, true
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, h.manager.State(view))
}

func (h *Handler) request(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	payload, err := h.payload.Build(r.Context())
	if err != nil {
		h.logger.Error("build insight payload", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	snap, err := h.manager.Request(r.Context(), view, payload)
	switch {
	case errors.Is(err, insights.ErrRequestInFlight):
		httpx.RespondError(w, httpx.Wrap(httpx.ErrConflict, err))
		return
	case errors.Is(err, insights.ErrNoSummarizer):
		httpx.RespondError(w, httpx.Wrap(httpx.ErrUnavailable, err))
		return
	case err != nil:
		h.logger.Error("request insight", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, snap)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	h.manager.Cancel(view)
	httpx.JSON(w, http.StatusOK, h.manager.State(view))
}

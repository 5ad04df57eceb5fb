package jobs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/finconsol/internal/platform/httpx"
)

var errNoQueue = errors.New("jobs: queue not configured")

// QueueInspector reads queue statistics.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// WarmupEnqueuer queues an out-of-schedule dashboard warmup.
type WarmupEnqueuer interface {
	EnqueueDashboardWarmup(ctx context.Context, payload DashboardWarmupPayload) (*asynq.TaskInfo, error)
}

// Handler exposes queue health over HTTP.
type Handler struct {
	inspector QueueInspector
	warmup    WarmupEnqueuer
	logger    *slog.Logger
}

// NewHandler builds the handler. A nil inspector reports an inline setup.
func NewHandler(inspector QueueInspector, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, logger: logger}
}

// WithWarmup enables POST /warmup.
func (h *Handler) WithWarmup(enq WarmupEnqueuer) *Handler {
	h.warmup = enq
	return h
}

// QueueHealth summarises the validation queue.
type QueueHealth struct {
	Queue     string `json:"queue"`
	Mode      string `json:"mode"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
	Processed int    `json:"processed_today"`
	Failed    int    `json:"failed_today"`
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Post("/warmup", h.enqueueWarmup)
}

func (h *Handler) enqueueWarmup(w http.ResponseWriter, r *http.Request) {
	if h.warmup == nil {
		httpx.RespondError(w, httpx.Wrap(httpx.ErrUnavailable, errNoQueue))
		return
	}
	var payload DashboardWarmupPayload
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.RespondError(w, httpx.Wrap(httpx.ErrValidation, err))
			return
		}
	}
	payload.Refresh = true
	info, err := h.warmup.EnqueueDashboardWarmup(r.Context(), payload)
	if err != nil {
		h.logger.Error("enqueue warmup", slog.Any("error", err))
		httpx.RespondError(w, httpx.Wrap(httpx.ErrUnavailable, err))
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"task_id": info.ID, "queue": info.Queue})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, QueueHealth{Queue: QueueDefault, Mode: "inline"})
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Warn("jobs health", slog.Any("error", err))
		httpx.RespondError(w, httpx.Wrap(httpx.ErrUnavailable, err))
		return
	}
	httpx.JSON(w, http.StatusOK, QueueHealth{
		Queue:     info.Queue,
		Mode:      "queued",
		Pending:   info.Pending,
		Active:    info.Active,
		Retry:     info.Retry,
		Archived:  info.Archived,
		Processed: info.Processed,
		Failed:    info.Failed,
	})
}

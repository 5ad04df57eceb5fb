package ingesthttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/finconsol/internal/consol/fx"
	"github.com/odyssey-erp/finconsol/internal/ingest"
	"github.com/odyssey-erp/finconsol/internal/platform/httpx"
)

const maxUploadBytes = 20 << 20

// UploadService is the registry surface used by the handler.
type UploadService interface {
	List(ctx context.Context) ([]ingest.MarketFile, error)
	Get(ctx context.Context, id string) (ingest.MarketFile, error)
	Upload(ctx context.Context, in ingest.SubmitInput, content []byte) (ingest.MarketFile, error)
	Resolve(ctx context.Context, id string, in ingest.ResolveInput) (ingest.MarketFile, error)
}

// Handler serves the ingestion status endpoints.
type Handler struct {
	logger  *slog.Logger
	service UploadService
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service UploadService) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers upload routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/uploads", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.upload)
		r.Get("/{id}", h.get)
		r.Post("/{id}/resolve", h.resolve)
	})
}

// FileView is the table row shown on the ingestion screen.
type FileView struct {
	ingest.MarketFile
	MarketName  string `json:"market_name"`
	DisplayDate string `json:"display_date"`
}

func toView(file ingest.MarketFile) FileView {
	return FileView{MarketFile: file, MarketName: file.Market.Name(), DisplayDate: file.DisplayDate()}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, "list uploads", err)
		return
	}
	views := make([]FileView, len(files))
	for i, f := range files {
		views[i] = toView(f)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"files": views})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	file, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "get upload", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(file))
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: multipart form: %v", httpx.ErrValidation, err))
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: file: %v", httpx.ErrValidation, err))
		return
	}
	defer part.Close()
	content, err := io.ReadAll(part)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: file: %v", httpx.ErrValidation, err))
		return
	}
	file, err := h.service.Upload(r.Context(), ingest.SubmitInput{
		Market:   r.FormValue("market"),
		Filename: header.Filename,
	}, content)
	if err != nil {
		h.respondError(w, "upload", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, toView(file))
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	var in ingest.ResolveInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	file, err := h.service.Resolve(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondError(w, "resolve upload", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(file))
}

func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, ingest.ErrNotFound):
		err = httpx.Wrap(httpx.ErrNotFound, err)
	case errors.Is(err, ingest.ErrInvalidTransition):
		err = httpx.Wrap(httpx.ErrConflict, err)
	case errors.Is(err, ingest.ErrInvalidOutcome), errors.Is(err, ingest.ErrUnsupportedFile),
		errors.Is(err, fx.ErrUnknownMarket), errors.As(err, &verrs):
		err = httpx.Wrap(httpx.ErrValidation, err)
	default:
		if h.logger != nil {
			h.logger.Error(msg, slog.Any("error", err))
		}
	}
	httpx.RespondError(w, err)
}

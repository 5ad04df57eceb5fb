package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/finconsol/internal/consol/fx"
)

// Enqueuer schedules asynchronous validation of a stored upload.
type Enqueuer interface {
	EnqueueValidate(ctx context.Context, id string) error
}

// ResolveHook observes uploads reaching a terminal state.
type ResolveHook func(ctx context.Context, file MarketFile)

// Registry owns the upload lifecycle.
type Registry struct {
	store    Store
	blobs    Blobs
	enqueuer Enqueuer
	validate *validator.Validate
	logger   *slog.Logger
	clock    func() time.Time
	newID    func() string
	hooks    []ResolveHook
}

// Option customises a Registry.
type Option func(*Registry)

// WithClock overrides the upload timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithIDs overrides the id generator.
func WithIDs(fn func() string) Option {
	return func(r *Registry) { r.newID = fn }
}

// WithBlobs attaches content storage used by Upload.
func WithBlobs(blobs Blobs) Option {
	return func(r *Registry) { r.blobs = blobs }
}

// WithEnqueuer attaches the validation scheduler used by Upload.
func WithEnqueuer(enqueuer Enqueuer) Option {
	return func(r *Registry) { r.enqueuer = enqueuer }
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// OnResolve registers a hook fired after every successful resolve.
func OnResolve(hook ResolveHook) Option {
	return func(r *Registry) { r.hooks = append(r.hooks, hook) }
}

// NewRegistry constructs a registry over the store.
func NewRegistry(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:    store,
		validate: validator.New(),
		logger:   slog.Default(),
		clock:    func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit records a new upload in the processing state.
func (r *Registry) Submit(ctx context.Context, in SubmitInput) (MarketFile, error) {
	in.Market = strings.TrimSpace(in.Market)
	in.Filename = strings.TrimSpace(in.Filename)
	if err := r.validate.Struct(in); err != nil {
		return MarketFile{}, fmt.Errorf("ingest: submit: %w", err)
	}
	market, err := fx.ParseMarket(in.Market)
	if err != nil {
		return MarketFile{}, err
	}
	file := MarketFile{
		ID:         r.newID(),
		Market:     market,
		Filename:   in.Filename,
		Status:     StatusProcessing,
		UploadDate: r.clock(),
	}
	if err := r.store.Insert(ctx, file); err != nil {
		return MarketFile{}, err
	}
	return file, nil
}

// Upload submits the record, stores its content and schedules validation.
func (r *Registry) Upload(ctx context.Context, in SubmitInput, content []byte) (MarketFile, error) {
	if !Supported(in.Filename) {
		return MarketFile{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, in.Filename)
	}
	if r.blobs == nil || r.enqueuer == nil {
		return MarketFile{}, errors.New("ingest: upload pipeline not configured")
	}
	file, err := r.Submit(ctx, in)
	if err != nil {
		return MarketFile{}, err
	}
	if err := r.blobs.Put(ctx, file.ID, content); err != nil {
		return file, r.failIntake(ctx, file, err)
	}
	if err := r.enqueuer.EnqueueValidate(ctx, file.ID); err != nil {
		return file, r.failIntake(ctx, file, err)
	}
	return file, nil
}

func (r *Registry) failIntake(ctx context.Context, file MarketFile, cause error) error {
	r.logger.Error("upload intake failed", slog.String("upload_id", file.ID), slog.Any("error", cause))
	_, err := r.Resolve(ctx, file.ID, ResolveInput{Status: StatusError, Errors: []string{"Upload could not be queued for validation"}})
	return errors.Join(cause, err)
}

// Resolve moves a processing upload into its terminal state exactly once.
func (r *Registry) Resolve(ctx context.Context, id string, in ResolveInput) (MarketFile, error) {
	if err := r.validate.Struct(in); err != nil {
		return MarketFile{}, errors.Join(ErrInvalidOutcome, err)
	}
	at := r.clock()
	file, err := r.store.Update(ctx, id, func(current MarketFile) (MarketFile, error) {
		return current.resolve(in, at)
	})
	if err != nil {
		return file, err
	}
	r.logger.Info("upload resolved", slog.String("upload_id", id), slog.String("status", string(file.Status)), slog.Int("errors", len(file.Errors)))
	for _, hook := range r.hooks {
		hook(ctx, file)
	}
	return file, nil
}

// List returns uploads in submission order.
func (r *Registry) List(ctx context.Context) ([]MarketFile, error) {
	return r.store.List(ctx)
}

// Get returns one upload.
func (r *Registry) Get(ctx context.Context, id string) (MarketFile, error) {
	return r.store.Get(ctx, id)
}

// Seed inserts pre-existing records, skipping ids already present.
func (r *Registry) Seed(ctx context.Context, files []MarketFile) error {
	for _, file := range files {
		if _, err := r.store.Get(ctx, file.ID); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := r.store.Insert(ctx, file); err != nil && !errors.Is(err, ErrDuplicateID) {
			return err
		}
	}
	return nil
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Processor validates stored upload content and resolves the record.
type Processor struct {
	registry  *Registry
	blobs     Blobs
	validator Validator
	logger    *slog.Logger
}

// NewProcessor wires the validation pipeline.
func NewProcessor(registry *Registry, blobs Blobs, validator Validator, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{registry: registry, blobs: blobs, validator: validator, logger: logger}
}

// Process runs validation for one upload. Uploads already resolved are left alone.
func (p *Processor) Process(ctx context.Context, id string) (MarketFile, error) {
	file, err := p.registry.Get(ctx, id)
	if err != nil {
		return MarketFile{}, err
	}
	if file.Status.Terminal() {
		return file, nil
	}
	content, err := p.blobs.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return p.registry.Resolve(ctx, id, ResolveInput{Status: StatusError, Errors: []string{"Uploaded content is no longer available"}})
	}
	if err != nil {
		return file, fmt.Errorf("ingest: load content %s: %w", id, err)
	}
	problems, err := p.validator.Validate(file.Filename, content)
	if err != nil {
		p.logger.Warn("upload unreadable", slog.String("upload_id", id), slog.Any("error", err))
		problems = []string{"File could not be read"}
	}
	outcome := ResolveInput{Status: StatusValid}
	if len(problems) > 0 {
		outcome = ResolveInput{Status: StatusError, Errors: problems}
	}
	resolved, err := p.registry.Resolve(ctx, id, outcome)
	if errors.Is(err, ErrInvalidTransition) {
		return resolved, nil
	}
	if err != nil {
		return resolved, err
	}
	if err := p.blobs.Delete(ctx, id); err != nil {
		p.logger.Warn("drop upload content", slog.String("upload_id", id), slog.Any("error", err))
	}
	return resolved, nil
}

// InlineEnqueuer validates synchronously, used when no queue is configured.
type InlineEnqueuer struct {
	Processor *Processor
}

// EnqueueValidate processes the upload immediately.
func (e *InlineEnqueuer) EnqueueValidate(ctx context.Context, id string) error {
	if e == nil || e.Processor == nil {
		return errors.New("ingest: inline processor not configured")
	}
	_, err := e.Processor.Process(ctx, id)
	return err
}

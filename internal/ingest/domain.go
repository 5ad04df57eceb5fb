package ingest

import (
	"errors"
	"time"

	"github.com/odyssey-erp/finconsol/internal/consol/fx"
)

// Status enumerates the upload lifecycle.
type Status string

const (
	// StatusProcessing indicates the file awaits validation.
	StatusProcessing Status = "processing"
	// StatusValid indicates the file passed validation.
	StatusValid Status = "valid"
	// StatusError indicates validation failed.
	StatusError Status = "error"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusValid || s == StatusError
}

// DisplayLayout is the upload timestamp format shown on the ingestion screen.
const DisplayLayout = "2006-01-02 03:04 PM"

// MarketFile is a budget workbook submitted by a market.
type MarketFile struct {
	ID         string    `json:"id"`
	Market     fx.Market `json:"market"`
	Filename   string    `json:"filename"`
	Status     Status    `json:"status"`
	UploadDate time.Time `json:"upload_date"`
	ResolvedAt time.Time `json:"resolved_at,omitzero"`
	Errors     []string  `json:"errors,omitempty"`
}

// DisplayDate formats the upload date for the ingestion table.
func (f MarketFile) DisplayDate() string {
	return f.UploadDate.Format(DisplayLayout)
}

// SubmitInput captures an upload submission.
type SubmitInput struct {
	Market   string `json:"market" validate:"required"`
	Filename string `json:"filename" validate:"required,max=255"`
}

// ResolveInput captures the validation outcome of an upload.
type ResolveInput struct {
	Status Status   `json:"status" validate:"required,oneof=valid error"`
	Errors []string `json:"errors" validate:"dive,required"`
}

var (
	// ErrNotFound occurs when an upload id is unknown.
	ErrNotFound = errors.New("ingest: upload not found")
	// ErrInvalidTransition occurs when resolving an upload that already reached a terminal state.
	ErrInvalidTransition = errors.New("ingest: invalid status transition")
	// ErrInvalidOutcome occurs when an outcome and its error list disagree.
	ErrInvalidOutcome = errors.New("ingest: invalid outcome")
	// ErrDuplicateID occurs when inserting a record whose id is already stored.
	ErrDuplicateID = errors.New("ingest: duplicate upload id")
	// ErrUnsupportedFile occurs for extensions other than xlsx, xls and csv.
	ErrUnsupportedFile = errors.New("ingest: unsupported file type")
)

// resolve applies the single processing -> terminal transition. The receiver is never mutated.
func (f MarketFile) resolve(in ResolveInput, at time.Time) (MarketFile, error) {
	if f.Status.Terminal() {
		return f, ErrInvalidTransition
	}
	switch in.Status {
	case StatusValid:
		if len(in.Errors) > 0 {
			return f, errors.Join(ErrInvalidOutcome, errors.New("valid outcome must not carry errors"))
		}
	case StatusError:
		if len(in.Errors) == 0 {
			return f, errors.Join(ErrInvalidOutcome, errors.New("error outcome requires at least one message"))
		}
	default:
		return f, errors.Join(ErrInvalidOutcome, errors.New("outcome must be valid or error"))
	}
	next := f
	next.Status = in.Status
	next.ResolvedAt = at
	next.Errors = append([]string(nil), in.Errors...)
	return next, nil
}

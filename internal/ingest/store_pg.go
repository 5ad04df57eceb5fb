package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/finconsol/internal/consol/fx"
	"github.com/odyssey-erp/finconsol/internal/platform/db"
)

// Schema creates the upload table used by PGStore.
const Schema = `
CREATE TABLE IF NOT EXISTS market_files (
    seq         BIGSERIAL PRIMARY KEY,
    id          TEXT NOT NULL UNIQUE,
    market      TEXT NOT NULL,
    filename    TEXT NOT NULL,
    status      TEXT NOT NULL,
    upload_date TIMESTAMPTZ NOT NULL,
    resolved_at TIMESTAMPTZ,
    errors      TEXT[] NOT NULL DEFAULT '{}'
)`

const uniqueViolation = "23505"

const selectColumns = `id, market, filename, status, upload_date, resolved_at, errors`

// PGStore persists upload records in Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a store backed by the pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// EnsureSchema creates the backing table when missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// Insert stores a new record.
func (s *PGStore) Insert(ctx context.Context, file MarketFile) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO market_files (id, market, filename, status, upload_date, errors)
VALUES ($1, $2, $3, $4, $5, $6)`,
		file.ID, string(file.Market), file.Filename, string(file.Status), file.UploadDate, nonNil(file.Errors))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateID
	}
	if err != nil {
		return fmt.Errorf("ingest: insert upload: %w", err)
	}
	return nil
}

// Get fetches a record by id.
func (s *PGStore) Get(ctx context.Context, id string) (MarketFile, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM market_files WHERE id = $1`, id)
	file, err := scanFile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MarketFile{}, ErrNotFound
		}
		return MarketFile{}, err
	}
	return file, nil
}

// List returns records ordered by insertion sequence.
func (s *PGStore) List(ctx context.Context) ([]MarketFile, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+selectColumns+` FROM market_files ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MarketFile, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, file)
	}
	return out, rows.Err()
}

// Update locks the row, applies fn and writes the result in one transaction.
func (s *PGStore) Update(ctx context.Context, id string, fn func(MarketFile) (MarketFile, error)) (MarketFile, error) {
	var result MarketFile
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+selectColumns+` FROM market_files WHERE id = $1 FOR UPDATE`, id)
		current, err := scanFile(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		next, err := fn(current)
		if err != nil {
			result = current
			return err
		}
		_, err = tx.Exec(ctx, `
UPDATE market_files SET status = $2, resolved_at = $3, errors = $4 WHERE id = $1`,
			id, string(next.Status), nullableTime(next.ResolvedAt), nonNil(next.Errors))
		if err != nil {
			return fmt.Errorf("ingest: update upload: %w", err)
		}
		result = next
		return nil
	})
	return result, err
}

func scanFile(row pgx.Row) (MarketFile, error) {
	var (
		file       MarketFile
		market     string
		status     string
		resolvedAt *time.Time
	)
	if err := row.Scan(&file.ID, &market, &file.Filename, &status, &file.UploadDate, &resolvedAt, &file.Errors); err != nil {
		return MarketFile{}, err
	}
	file.Market = fx.Market(market)
	file.Status = Status(status)
	if resolvedAt != nil {
		file.ResolvedAt = *resolvedAt
	}
	if len(file.Errors) == 0 {
		file.Errors = nil
	}
	return file, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmylchreest/expatscrape/internal/logger"
	"github.com/jmylchreest/expatscrape/pkg/cleaner"
	"github.com/jmylchreest/expatscrape/pkg/dataset"
)

// pgExecutor is the subset of *pgxpool.Pool the sink uses.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresSink upserts cleaned rows into a listings table.
type PostgresSink struct {
	db    pgExecutor
	close func()
}

// NewPostgresSink connects to dsn and pings the server.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}
	return &PostgresSink{db: pool, close: pool.Close}, nil
}

// Close releases the pool.
func (s *PostgresSink) Close() {
	if s.close != nil {
		s.close()
	}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS listings (
	id BIGSERIAL PRIMARY KEY,
	category TEXT NOT NULL,
	row_key TEXT NOT NULL,
	price BIGINT,
	fields JSONB NOT NULL,
	scraped_at TIMESTAMPTZ NOT NULL,
	UNIQUE (category, row_key)
);

CREATE INDEX IF NOT EXISTS idx_listings_category_price ON listings(category, price);
`

const upsertSQL = `
INSERT INTO listings (category, row_key, price, fields, scraped_at)
VALUES ($1, $2, $3, $4::jsonb, $5)
ON CONFLICT (category, row_key) DO UPDATE SET scraped_at = EXCLUDED.scraped_at;
`

// EnsureSchema creates the listings table if needed.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// WriteBatch upserts every row of ds. Rows already present only get their
// scraped_at refreshed. It returns the number of statements executed.
func (s *PostgresSink) WriteBatch(ctx context.Context, ds *dataset.Dataset, at time.Time) (int, error) {
	if ds.Len() == 0 {
		return 0, nil
	}

	batch, err := buildBatch(ds, at)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return i, fmt.Errorf("batch insert failed at row %d: %w", i, err)
		}
	}

	logger.Debug("rows written to postgres", "category", ds.Category, "rows", batch.Len())
	return batch.Len(), nil
}

func buildBatch(ds *dataset.Dataset, at time.Time) (*pgx.Batch, error) {
	batch := &pgx.Batch{}
	records := ds.Records()
	for i, r := range ds.Rows {
		fields, err := json.Marshal(records[i])
		if err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i, err)
		}

		var amount *int64
		if n, err := cleaner.PriceOf(ds, r); err == nil {
			amount = &n
		}

		batch.Queue(upsertSQL, ds.Category.Slug(), RowKey(r), amount, string(fields), at.UTC())
	}
	return batch, nil
}

// RowKey is a stable digest of the full row, used as the dedup key.
func RowKey(r dataset.Row) string {
	sum := sha256.Sum256([]byte(r.Key()))
	return hex.EncodeToString(sum[:])
}

package storage

import (
	"context"
	"fmt"
)

const migrationSQL = `
CREATE TABLE IF NOT EXISTS price_samples (
    sample_ts     TIMESTAMPTZ PRIMARY KEY,
    comex_usd     NUMERIC,
    shanghai_cny  NUMERIC,
    shanghai_usd  NUMERIC,
    fx_rate       NUMERIC NOT NULL,
    spread_usd    NUMERIC,
    benchmark_usd NUMERIC,
    status        TEXT NOT NULL,
    error         TEXT,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS alerts (
    id         BIGSERIAL PRIMARY KEY,
    sample_ts  TIMESTAMPTZ NOT NULL,
    kind       TEXT NOT NULL,
    delta_usd  NUMERIC,
    detail     TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS alerts_created_at_idx ON alerts (created_at DESC);
`

// Migrate applies the schema; statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertSampleSQL = `INSERT INTO price_samples (
        sample_ts,
        comex_usd,
        shanghai_cny,
        shanghai_usd,
        fx_rate,
        spread_usd,
        benchmark_usd,
        status,
        error
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    ON CONFLICT (sample_ts) DO UPDATE
    SET
        comex_usd     = EXCLUDED.comex_usd,
        shanghai_cny  = EXCLUDED.shanghai_cny,
        shanghai_usd  = EXCLUDED.shanghai_usd,
        fx_rate       = EXCLUDED.fx_rate,
        spread_usd    = EXCLUDED.spread_usd,
        benchmark_usd = EXCLUDED.benchmark_usd,
        status        = EXCLUDED.status,
        error         = EXCLUDED.error;`

	listSamplesBetweenSQL = `SELECT
        sample_ts, comex_usd, shanghai_cny, shanghai_usd, fx_rate,
        spread_usd, benchmark_usd, status, error, created_at
    FROM price_samples
    WHERE sample_ts >= $1
      AND sample_ts < $2
    ORDER BY sample_ts;`

	listRecentSamplesSQL = `SELECT
        sample_ts, comex_usd, shanghai_cny, shanghai_usd, fx_rate,
        spread_usd, benchmark_usd, status, error, created_at
    FROM price_samples
    ORDER BY sample_ts DESC
    LIMIT $1;`

	insertAlertSQL = `INSERT INTO alerts (
        sample_ts,
        kind,
        delta_usd,
        detail
    ) VALUES (
        $1,$2,$3,$4
    );`

	listRecentAlertsSQL = `SELECT
        id, sample_ts, kind, delta_usd, detail, created_at
    FROM alerts
    ORDER BY created_at DESC
    LIMIT $1;`
)

// SampleStore defines operations for price sample auditing.
type SampleStore interface {
	InsertSample(ctx context.Context, sample PriceSample) error
	ListSamplesBetween(ctx context.Context, from, to time.Time) ([]PriceSample, error)
	ListRecentSamples(ctx context.Context, limit int) ([]PriceSample, error)
}

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) error
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
}

// Store aggregates access to price samples and alerts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertSample persists or updates a cycle observation.
func (s *Store) InsertSample(ctx context.Context, sample PriceSample) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var errMsg any
	if sample.Error != nil {
		errMsg = *sample.Error
	}

	_, execErr := pool.Exec(ctx, insertSampleSQL,
		sample.SampleTS,
		decimalString(sample.ComexUSD),
		decimalString(sample.ShanghaiCNY),
		decimalString(sample.ShanghaiUSD),
		sample.FXRate.String(),
		decimalString(sample.SpreadUSD),
		decimalString(sample.BenchmarkUSD),
		sample.Status,
		errMsg,
	)
	if execErr != nil {
		return fmt.Errorf("insert price sample: %w", execErr)
	}
	return nil
}

// ListSamplesBetween lists samples within a time window.
func (s *Store) ListSamplesBetween(ctx context.Context, from, to time.Time) ([]PriceSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSamplesBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list samples between: %w", queryErr)
	}
	defer rows.Close()

	samples := make([]PriceSample, 0)
	for rows.Next() {
		sample, scanErr := scanPriceSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// ListRecentSamples lists the most recent samples ordered by descending time.
func (s *Store) ListRecentSamples(ctx context.Context, limit int) ([]PriceSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSamplesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent samples: %w", queryErr)
	}
	defer rows.Close()

	samples := make([]PriceSample, 0, limit)
	for rows.Next() {
		sample, scanErr := scanPriceSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// InsertAlert persists an alert emission.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, insertAlertSQL,
		alert.SampleTS,
		alert.Kind,
		decimalString(alert.DeltaUSD),
		alert.Detail,
	)
	if execErr != nil {
		return fmt.Errorf("insert alert: %w", execErr)
	}
	return nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		var rec AlertRecord
		var delta sql.NullString
		if err := rows.Scan(
			&rec.ID,
			&rec.SampleTS,
			&rec.Kind,
			&delta,
			&rec.Detail,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if delta.Valid {
			value, convErr := decimal.NewFromString(delta.String)
			if convErr != nil {
				return nil, fmt.Errorf("parse delta usd: %w", convErr)
			}
			rec.DeltaUSD = &value
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

func scanPriceSample(rows pgx.Rows) (PriceSample, error) {
	var (
		sampleTS    time.Time
		comexStr    sql.NullString
		shanghaiCNY sql.NullString
		shanghaiUSD sql.NullString
		fxStr       string
		spreadStr   sql.NullString
		benchStr    sql.NullString
		status      string
		errMsg      sql.NullString
		createdAt   time.Time
	)

	if err := rows.Scan(
		&sampleTS,
		&comexStr,
		&shanghaiCNY,
		&shanghaiUSD,
		&fxStr,
		&spreadStr,
		&benchStr,
		&status,
		&errMsg,
		&createdAt,
	); err != nil {
		return PriceSample{}, err
	}

	fx, err := decimal.NewFromString(fxStr)
	if err != nil {
		return PriceSample{}, fmt.Errorf("parse fx rate: %w", err)
	}

	sample := PriceSample{
		SampleTS:  sampleTS,
		FXRate:    fx,
		Status:    status,
		CreatedAt: createdAt,
	}

	if sample.ComexUSD, err = nullDecimal(comexStr); err != nil {
		return PriceSample{}, fmt.Errorf("parse comex price: %w", err)
	}
	if sample.ShanghaiCNY, err = nullDecimal(shanghaiCNY); err != nil {
		return PriceSample{}, fmt.Errorf("parse shanghai price: %w", err)
	}
	if sample.ShanghaiUSD, err = nullDecimal(shanghaiUSD); err != nil {
		return PriceSample{}, fmt.Errorf("parse shanghai usd price: %w", err)
	}
	if sample.SpreadUSD, err = nullDecimal(spreadStr); err != nil {
		return PriceSample{}, fmt.Errorf("parse spread: %w", err)
	}
	if sample.BenchmarkUSD, err = nullDecimal(benchStr); err != nil {
		return PriceSample{}, fmt.Errorf("parse benchmark: %w", err)
	}
	if errMsg.Valid {
		msg := errMsg.String
		sample.Error = &msg
	}

	return sample, nil
}

func nullDecimal(v sql.NullString) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	parsed, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func decimalString(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

var _ SampleStore = (*Store)(nil)
var _ AlertStore = (*Store)(nil)

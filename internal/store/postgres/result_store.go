// Package postgres archives backtest results so runs can be compared across
// sessions. The store is optional: commands only construct it when a
// DATABASE_URL is configured.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"mm-backtest/internal/backtest"
)

// ResultStore persists one row per backtest run, with the parameter echo and
// summary stored as JSONB for ad-hoc querying.
type ResultStore struct {
	pool *pgxpool.Pool
}

// Open connects a pool and ensures the results table exists.
func Open(ctx context.Context, dsn string) (*ResultStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	s := &ResultStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *ResultStore) Close() { s.pool.Close() }

func (s *ResultStore) ensureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS backtest_results (
			id          UUID PRIMARY KEY,
			asset       TEXT NOT NULL,
			total_pnl   DOUBLE PRECISION NOT NULL,
			sharpe      DOUBLE PRECISION NOT NULL,
			config_json JSONB NOT NULL,
			result_json JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

// Save archives one result under the given run id.
func (s *ResultStore) Save(ctx context.Context, id string, res *backtest.Result) error {
	configJSON, err := json.Marshal(res.Config)
	if err != nil {
		return fmt.Errorf("postgres: marshal config %s: %w", res.Asset, err)
	}
	// Fill logs can be large; the archive keeps the summary only.
	slim := *res
	slim.Fills = nil
	resultJSON, err := json.Marshal(&slim)
	if err != nil {
		return fmt.Errorf("postgres: marshal result %s: %w", res.Asset, err)
	}

	const query = `
		INSERT INTO backtest_results (id, asset, total_pnl, sharpe, config_json, result_json)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = s.pool.Exec(ctx, query, id, res.Asset, res.TotalPnL, res.SharpeRatio, configJSON, resultJSON)
	if err != nil {
		return fmt.Errorf("postgres: save result %s: %w", res.Asset, err)
	}
	return nil
}

// ArchivedRun is one stored row, summary only.
type ArchivedRun struct {
	ID        string           `json:"id"`
	Asset     string           `json:"asset"`
	TotalPnL  float64          `json:"total_pnl"`
	Sharpe    float64          `json:"sharpe"`
	Result    *backtest.Result `json:"result"`
	CreatedAt time.Time        `json:"created_at"`
}

// List returns the most recent runs for an asset, newest first. An empty
// asset lists across all assets.
func (s *ResultStore) List(ctx context.Context, asset string, limit int) ([]ArchivedRun, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, asset, total_pnl, sharpe, result_json, created_at
		FROM backtest_results
		WHERE ($1 = '' OR asset = $1)
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, asset, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list results: %w", err)
	}
	defer rows.Close()

	var out []ArchivedRun
	for rows.Next() {
		var run ArchivedRun
		var resultJSON []byte
		if err := rows.Scan(&run.ID, &run.Asset, &run.TotalPnL, &run.Sharpe, &resultJSON, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan result row: %w", err)
		}
		if resultJSON != nil {
			if err := json.Unmarshal(resultJSON, &run.Result); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal result %s: %w", run.ID, err)
			}
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

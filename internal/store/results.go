package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/delorean-quant/delorean/internal/contracts"
)

// BacktestRecord is one persisted simulation run.
type BacktestRecord struct {
	ID         int64                        `json:"id"`
	StrategyID string                       `json:"strategy_id"`
	ConfigHash string                       `json:"config_hash"`
	RunAt      time.Time                    `json:"run_at"`
	Summary    contracts.PerformanceSummary `json:"summary"`
	Equity     []contracts.EquityPoint      `json:"equity"`
}

// ResultRepository persists backtest runs for later comparison.
type ResultRepository struct {
	pool *pgxpool.Pool
}

func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Save inserts a run and returns its id.
func (r *ResultRepository) Save(ctx context.Context, rec *BacktestRecord) (int64, error) {
	summary, err := json.Marshal(rec.Summary)
	if err != nil {
		return 0, fmt.Errorf("marshal summary: %w", err)
	}
	equity, err := json.Marshal(rec.Equity)
	if err != nil {
		return 0, fmt.Errorf("marshal equity curve: %w", err)
	}

	query := `
		INSERT INTO strategy.backtest_results (strategy_id, config_hash, run_at, summary, equity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err = r.pool.QueryRow(ctx, query, rec.StrategyID, rec.ConfigHash, rec.RunAt, summary, equity).Scan(&id)
	return id, err
}

// Latest returns the most recent run for a strategy.
func (r *ResultRepository) Latest(ctx context.Context, strategyID string) (*BacktestRecord, error) {
	query := `
		SELECT id, strategy_id, config_hash, run_at, summary, equity
		FROM strategy.backtest_results
		WHERE strategy_id = $1
		ORDER BY run_at DESC
		LIMIT 1
	`

	return r.scanOne(r.pool.QueryRow(ctx, query, strategyID))
}

// List returns recent runs, newest first.
func (r *ResultRepository) List(ctx context.Context, strategyID string, limit int) ([]*BacktestRecord, error) {
	query := `
		SELECT id, strategy_id, config_hash, run_at, summary, equity
		FROM strategy.backtest_results
		WHERE strategy_id = $1
		ORDER BY run_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, strategyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*BacktestRecord
	for rows.Next() {
		rec, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ResultRepository) scanOne(row rowScanner) (*BacktestRecord, error) {
	var rec BacktestRecord
	var summary, equity []byte
	if err := row.Scan(&rec.ID, &rec.StrategyID, &rec.ConfigHash, &rec.RunAt, &summary, &equity); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(summary, &rec.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	if err := json.Unmarshal(equity, &rec.Equity); err != nil {
		return nil, fmt.Errorf("unmarshal equity curve: %w", err)
	}
	return &rec, nil
}

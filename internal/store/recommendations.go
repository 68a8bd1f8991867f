package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/delorean-quant/delorean/internal/contracts"
)

// RecommendationRepository persists daily recommendation artifacts.
// The artifact body is stored as JSONB so the schema never lags the
// artifact format.
type RecommendationRepository struct {
	pool *pgxpool.Pool
}

func NewRecommendationRepository(pool *pgxpool.Pool) *RecommendationRepository {
	return &RecommendationRepository{pool: pool}
}

// Save upserts one day's recommendation. Re-running the pipeline for a
// date replaces the previous artifact.
func (r *RecommendationRepository) Save(ctx context.Context, rec *contracts.Recommendation) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal recommendation: %w", err)
	}

	query := `
		INSERT INTO strategy.recommendations (strategy_id, rec_date, config_hash, body, generated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (strategy_id, rec_date) DO UPDATE SET
			config_hash = EXCLUDED.config_hash,
			body = EXCLUDED.body,
			generated_at = EXCLUDED.generated_at
	`

	_, err = r.pool.Exec(ctx, query, rec.StrategyID, rec.Date, rec.ConfigHash, body, rec.GeneratedAt)
	return err
}

// Latest returns the most recent recommendation for a strategy.
func (r *RecommendationRepository) Latest(ctx context.Context, strategyID string) (*contracts.Recommendation, error) {
	query := `
		SELECT body
		FROM strategy.recommendations
		WHERE strategy_id = $1
		ORDER BY rec_date DESC
		LIMIT 1
	`

	var body []byte
	if err := r.pool.QueryRow(ctx, query, strategyID).Scan(&body); err != nil {
		return nil, err
	}

	var rec contracts.Recommendation
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal recommendation: %w", err)
	}
	return &rec, nil
}

// GetByDate returns the recommendation for a specific date.
func (r *RecommendationRepository) GetByDate(ctx context.Context, strategyID string, date time.Time) (*contracts.Recommendation, error) {
	query := `
		SELECT body
		FROM strategy.recommendations
		WHERE strategy_id = $1 AND rec_date = $2
	`

	var body []byte
	if err := r.pool.QueryRow(ctx, query, strategyID, date).Scan(&body); err != nil {
		return nil, err
	}

	var rec contracts.Recommendation
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal recommendation: %w", err)
	}
	return &rec, nil
}

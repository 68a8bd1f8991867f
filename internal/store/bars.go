package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/delorean-quant/delorean/internal/contracts"
)

// BarRepository persists daily bars. All bar reads and writes go
// through here.
type BarRepository struct {
	pool *pgxpool.Pool
}

func NewBarRepository(pool *pgxpool.Pool) *BarRepository {
	return &BarRepository{pool: pool}
}

// Save upserts a single bar.
func (r *BarRepository) Save(ctx context.Context, bar *contracts.Bar) error {
	query := `
		INSERT INTO market.daily_bars (symbol, trade_date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`

	_, err := r.pool.Exec(ctx, query,
		bar.Symbol, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
	)
	return err
}

// SaveBatch upserts bars in one round trip per batch.
func (r *BarRepository) SaveBatch(ctx context.Context, bars []*contracts.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, bar := range bars {
		batch.Queue(`
			INSERT INTO market.daily_bars (symbol, trade_date, open, high, low, close, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (symbol, trade_date) DO UPDATE SET
				open = EXCLUDED.open,
				high = EXCLUDED.high,
				low = EXCLUDED.low,
				close = EXCLUDED.close,
				volume = EXCLUDED.volume
		`, bar.Symbol, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range bars {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch upsert bars: %w", err)
		}
	}
	return nil
}

// GetRange returns bars for one symbol within [from, to], oldest first.
func (r *BarRepository) GetRange(ctx context.Context, symbol string, from, to time.Time) ([]*contracts.Bar, error) {
	query := `
		SELECT symbol, trade_date, open, high, low, close, volume
		FROM market.daily_bars
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []*contracts.Bar
	for rows.Next() {
		var b contracts.Bar
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, &b)
	}
	return bars, rows.Err()
}

// LatestDate returns the most recent trade date stored for a symbol.
func (r *BarRepository) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	query := `
		SELECT trade_date
		FROM market.daily_bars
		WHERE symbol = $1
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var date time.Time
	if err := r.pool.QueryRow(ctx, query, symbol).Scan(&date); err != nil {
		return time.Time{}, err
	}
	return date, nil
}

// ClosePanel assembles a close-price panel for the given symbols, one
// row per trade date that has at least one close.
func (r *BarRepository) ClosePanel(ctx context.Context, symbols []string, from, to time.Time) (*contracts.Panel, error) {
	query := `
		SELECT symbol, trade_date, close
		FROM market.daily_bars
		WHERE symbol = ANY($1) AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC, symbol ASC
	`

	rows, err := r.pool.Query(ctx, query, symbols, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	panel := contracts.NewPanel(0)
	var current map[string]float64
	var currentDate time.Time
	for rows.Next() {
		var symbol string
		var date time.Time
		var close float64
		if err := rows.Scan(&symbol, &date, &close); err != nil {
			return nil, err
		}
		if current == nil || !date.Equal(currentDate) {
			if current != nil {
				panel.Append(currentDate, current)
			}
			current = make(map[string]float64)
			currentDate = date
		}
		current[symbol] = close
	}
	if current != nil {
		panel.Append(currentDate, current)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := panel.Validate(); err != nil {
		return nil, fmt.Errorf("close panel from store: %w", err)
	}
	return panel, nil
}

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/internal/marketdata"
	"github.com/delorean-quant/delorean/pkg/logger"
)

// BarSink persists fetched bars.
type BarSink interface {
	SaveBatch(ctx context.Context, bars []*contracts.Bar) error
	LatestDate(ctx context.Context, symbol string) (time.Time, error)
}

// BarSync pulls fresh daily bars for the universe plus the benchmark
// into the bar store. Each symbol syncs from its last stored date, with
// a bounded backfill for symbols never seen before.
type BarSync struct {
	source   marketdata.BarSource
	sink     BarSink
	symbols  []string
	schedule string
	backfill time.Duration
	logger   *logger.Logger
}

func NewBarSync(source marketdata.BarSource, sink BarSink, symbols []string, schedule string, log *logger.Logger) *BarSync {
	return &BarSync{
		source:   source,
		sink:     sink,
		symbols:  symbols,
		schedule: schedule,
		backfill: 3 * 365 * 24 * time.Hour,
		logger:   log,
	}
}

func (j *BarSync) Name() string { return "bar_sync" }

func (j *BarSync) Schedule() string { return j.schedule }

func (j *BarSync) Run(ctx context.Context) error {
	now := time.Now().UTC()
	synced := 0

	for _, symbol := range j.symbols {
		from := now.Add(-j.backfill)
		if latest, err := j.sink.LatestDate(ctx, symbol); err == nil && !latest.IsZero() {
			from = latest.AddDate(0, 0, 1)
		}
		if from.After(now) {
			continue
		}

		bars, err := j.source.DailyBars(ctx, symbol, from, now)
		if err != nil {
			return fmt.Errorf("syncing bars for %s: %w", symbol, err)
		}
		if err := j.sink.SaveBatch(ctx, bars); err != nil {
			return fmt.Errorf("storing bars for %s: %w", symbol, err)
		}
		synced += len(bars)
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(j.symbols),
		"bars":    synced,
	}).Info("Bar sync complete")

	return nil
}

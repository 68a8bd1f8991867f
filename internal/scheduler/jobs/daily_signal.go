package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/pkg/logger"
)

// RecommendationRunner produces one day's recommendation.
type RecommendationRunner interface {
	Run(ctx context.Context, asOf time.Time) (*contracts.Recommendation, error)
}

// RecommendationPublisher distributes a finished recommendation.
type RecommendationPublisher interface {
	Publish(ctx context.Context, rec *contracts.Recommendation) error
}

// DailySignal runs the live pipeline after the market close and
// publishes the result. Weekends are skipped up front so a Saturday
// trigger never burns a model training run.
type DailySignal struct {
	pipeline  RecommendationRunner
	publisher RecommendationPublisher
	schedule  string
	logger    *logger.Logger
}

func NewDailySignal(pipeline RecommendationRunner, publisher RecommendationPublisher, schedule string, log *logger.Logger) *DailySignal {
	return &DailySignal{pipeline: pipeline, publisher: publisher, schedule: schedule, logger: log}
}

func (j *DailySignal) Name() string { return "daily_signal" }

func (j *DailySignal) Schedule() string { return j.schedule }

func (j *DailySignal) Run(ctx context.Context) error {
	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if wd := asOf.Weekday(); wd == time.Saturday || wd == time.Sunday {
		j.logger.WithField("date", asOf.Format("2006-01-02")).Info("Market closed, skipping daily signal")
		return nil
	}

	rec, err := j.pipeline.Run(ctx, asOf)
	if err != nil {
		return fmt.Errorf("daily signal for %s: %w", asOf.Format("2006-01-02"), err)
	}

	if err := j.publisher.Publish(ctx, rec); err != nil {
		return fmt.Errorf("publishing daily signal: %w", err)
	}

	return nil
}

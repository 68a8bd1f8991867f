package live

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/pkg/logger"
	"github.com/delorean-quant/delorean/pkg/redis"
)

// Broadcaster pushes events to stream subscribers. *api.Hub satisfies
// this.
type Broadcaster interface {
	Publish(event string, payload interface{}) error
}

// RecommendationSink is the persistence slice the publisher needs.
type RecommendationSink interface {
	Save(ctx context.Context, rec *contracts.Recommendation) error
}

// Publisher distributes a finished recommendation: Postgres first, then
// cache, stream and the JSON artifact file. Persistence failure aborts;
// the downstream fan-out is best effort.
type Publisher struct {
	sink   RecommendationSink
	cache  *redis.Cache
	hub    Broadcaster
	dir    string
	logger *logger.Logger
}

func NewPublisher(sink RecommendationSink, cache *redis.Cache, hub Broadcaster, dir string, log *logger.Logger) *Publisher {
	return &Publisher{sink: sink, cache: cache, hub: hub, dir: dir, logger: log}
}

func (p *Publisher) Publish(ctx context.Context, rec *contracts.Recommendation) error {
	if err := p.sink.Save(ctx, rec); err != nil {
		return fmt.Errorf("persisting recommendation: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, "recommendation:latest", rec, 24*time.Hour); err != nil {
			p.logger.WithError(err).Warn("Failed to cache recommendation")
		}
	}

	if p.hub != nil {
		if err := p.hub.Publish("recommendation", rec); err != nil {
			p.logger.WithError(err).Warn("Failed to broadcast recommendation")
		}
	}

	if p.dir != "" {
		if err := WriteArtifact(p.dir, rec); err != nil {
			return err
		}
	}

	p.logger.WithFields(map[string]interface{}{"date": rec.Date}).Info("Recommendation published")
	return nil
}

// WriteArtifact writes the recommendation JSON file atomically: the
// file either holds the previous complete artifact or the new one,
// never a torn write.
func WriteArtifact(dir string, rec *contracts.Recommendation) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating artifact dir: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding recommendation: %w", err)
	}

	final := filepath.Join(dir, fmt.Sprintf("recommendation_%s.json", rec.Date))
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalizing artifact: %w", err)
	}

	// latest.json mirrors the newest artifact for easy consumption.
	latest := filepath.Join(dir, "latest.json")
	tmp = latest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing latest artifact: %w", err)
	}
	if err := os.Rename(tmp, latest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalizing latest artifact: %w", err)
	}

	return nil
}

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/delorean-quant/delorean/internal/live"
	"github.com/delorean-quant/delorean/internal/marketdata/feed"
	"github.com/delorean-quant/delorean/internal/scoring"
	"github.com/delorean-quant/delorean/internal/store"
	"github.com/delorean-quant/delorean/pkg/database"
	"github.com/delorean-quant/delorean/pkg/redis"
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Generate today's recommendation",
	Long: `Runs the live two-pass pipeline once: an out-of-sample validation
pass grades the current model, then a production pass produces the
target portfolio. A failed validation still produces an artifact with
its grade; a failed pipeline produces nothing.

Example:
  delorean signal
  delorean signal --as-of 2025-06-20 --publish`,
	RunE: runSignal,
}

var (
	signalAsOf    string
	signalPublish bool
)

func init() {
	rootCmd.AddCommand(signalCmd)

	signalCmd.Flags().StringVar(&signalAsOf, "as-of", "", "generation date (YYYY-MM-DD, default today)")
	signalCmd.Flags().BoolVar(&signalPublish, "publish", false, "persist to Postgres and cache in addition to the artifact file")
}

func runSignal(cmd *cobra.Command, args []string) error {
	d, err := setup()
	if err != nil {
		return err
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if signalAsOf != "" {
		asOf, err = time.Parse("2006-01-02", signalAsOf)
		if err != nil {
			return fmt.Errorf("invalid as-of date %q: %w", signalAsOf, err)
		}
	}

	ctx := cmd.Context()

	names := map[string]string{}
	if dataDir == "" {
		directory := feed.NewNameDirectory(d.cfg.Feed, d.log)
		names, err = directory.Fetch(ctx)
		if err != nil {
			d.log.WithError(err).Warn("Fetching instrument names failed, continuing without them")
			names = map[string]string{}
		}
	}

	oracle := scoring.NewHTTPOracle(d.cfg.Oracle, d.log)
	pipeline := live.NewPipeline(d.strategy, d.hash, oracle, d.provider(), names, d.log)

	rec, err := pipeline.Run(ctx, asOf)
	if err != nil {
		return fmt.Errorf("running signal pipeline: %w", err)
	}

	if signalPublish {
		db, err := database.New(d.cfg)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()

		redisClient, err := redis.New(d.cfg)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer redisClient.Close()

		publisher := live.NewPublisher(
			store.NewRecommendationRepository(db.Pool),
			redis.NewCache(redisClient, "delorean"),
			nil, // no stream hub outside the api process
			d.cfg.ArtifactsDir,
			d.log,
		)
		if err := publisher.Publish(ctx, rec); err != nil {
			return fmt.Errorf("publishing recommendation: %w", err)
		}
	} else {
		if err := live.WriteArtifact(d.cfg.ArtifactsDir, rec); err != nil {
			return fmt.Errorf("writing artifact: %w", err)
		}
	}

	printRecommendation(rec)
	return nil
}

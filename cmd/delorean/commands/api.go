package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/delorean-quant/delorean/internal/api"
	"github.com/delorean-quant/delorean/internal/api/handlers"
	"github.com/delorean-quant/delorean/internal/store"
	"github.com/delorean-quant/delorean/pkg/database"
	"github.com/delorean-quant/delorean/pkg/redis"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Serves recommendations, backtest results and the strategy
configuration over REST, plus a websocket stream for new
recommendations.

Endpoints:
  GET /health
  GET /api/recommendations/latest
  GET /api/recommendations/{date}
  GET /api/backtests/latest
  GET /api/backtests
  GET /api/performance
  GET /api/equity-curve
  GET /api/strategy/config
  GET /ws/recommendations

Example:
  delorean api
  delorean api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "listen port (default from PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	d, err := setup()
	if err != nil {
		return err
	}
	if apiPort != "" {
		d.cfg.Port = apiPort
	}

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
	cache := redis.NewCache(redisClient, "delorean")

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := api.NewHub(d.log)
	go hub.Run(hubCtx)

	recHandler := handlers.NewRecommendationHandler(
		store.NewRecommendationRepository(db.Pool), cache, d.strategy.Meta.StrategyID, d.log)
	resultHandler := handlers.NewResultHandler(
		store.NewResultRepository(db.Pool), d.strategy.Meta.StrategyID, d.log)
	strategyHandler := handlers.NewStrategyHandler(d.strategy, d.hash, d.log)

	router := api.NewRouter(recHandler, resultHandler, strategyHandler, hub, d.log)
	server := api.New(d.cfg, d.log, router)

	go func() {
		if err := server.Start(); err != nil {
			d.log.WithError(err).Fatal("Server failed")
		}
	}()

	fmt.Printf("✅ API server listening on :%s\n", d.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	d.log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/delorean-quant/delorean/internal/api/handlers"
	"github.com/delorean-quant/delorean/pkg/logger"
)

// NewRouter wires all HTTP routes. Routing lives here and nowhere else.
func NewRouter(
	recHandler *handlers.RecommendationHandler,
	resultHandler *handlers.ResultHandler,
	strategyHandler *handlers.StrategyHandler,
	hub *Hub,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/recommendations/latest", recHandler.GetLatest).Methods("GET")
	api.HandleFunc("/recommendations/{date}", recHandler.GetByDate).Methods("GET")

	api.HandleFunc("/backtests/latest", resultHandler.GetLatest).Methods("GET")
	api.HandleFunc("/backtests", resultHandler.List).Methods("GET")
	api.HandleFunc("/performance", resultHandler.GetPerformance).Methods("GET")
	api.HandleFunc("/equity-curve", resultHandler.GetEquityCurve).Methods("GET")

	api.HandleFunc("/strategy/config", strategyHandler.GetConfig).Methods("GET")

	r.HandleFunc("/ws/recommendations", hub.ServeWS)

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "delorean-api",
	})
}

func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

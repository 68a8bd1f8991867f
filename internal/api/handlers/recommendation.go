package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/pkg/logger"
	"github.com/delorean-quant/delorean/pkg/redis"
)

const latestCacheTTL = 5 * time.Minute

// RecommendationStore is the slice of the recommendation repository
// the handler needs.
type RecommendationStore interface {
	Latest(ctx context.Context, strategyID string) (*contracts.Recommendation, error)
	GetByDate(ctx context.Context, strategyID string, date time.Time) (*contracts.Recommendation, error)
}

// RecommendationHandler serves recommendation artifacts.
type RecommendationHandler struct {
	store      RecommendationStore
	cache      *redis.Cache
	strategyID string
	logger     *logger.Logger
}

func NewRecommendationHandler(store RecommendationStore, cache *redis.Cache, strategyID string, log *logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{store: store, cache: cache, strategyID: strategyID, logger: log}
}

// GetLatest returns the newest recommendation, cache first.
// GET /api/recommendations/latest
func (h *RecommendationHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rec contracts.Recommendation
	if hit, err := h.cache.Get(ctx, "recommendation:latest", &rec); err == nil && hit {
		writeJSON(w, http.StatusOK, &rec)
		return
	}

	latest, err := h.store.Latest(ctx, h.strategyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no recommendation available")
			return
		}
		h.logger.WithError(err).Error("Failed to load latest recommendation")
		writeError(w, http.StatusInternalServerError, "failed to load recommendation")
		return
	}

	if err := h.cache.Set(ctx, "recommendation:latest", latest, latestCacheTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache recommendation")
	}

	writeJSON(w, http.StatusOK, latest)
}

// GetByDate returns one day's recommendation.
// GET /api/recommendations/{date}
func (h *RecommendationHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["date"]
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	rec, err := h.store.GetByDate(r.Context(), h.strategyID, date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no recommendation for "+raw)
			return
		}
		h.logger.WithError(err).Error("Failed to load recommendation")
		writeError(w, http.StatusInternalServerError, "failed to load recommendation")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

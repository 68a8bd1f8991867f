package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/delorean-quant/delorean/internal/store"
	"github.com/delorean-quant/delorean/pkg/logger"
)

const defaultResultLimit = 20

// ResultStore is the slice of the result repository the handler needs.
type ResultStore interface {
	Latest(ctx context.Context, strategyID string) (*store.BacktestRecord, error)
	List(ctx context.Context, strategyID string, limit int) ([]*store.BacktestRecord, error)
}

// ResultHandler serves persisted backtest runs.
type ResultHandler struct {
	store      ResultStore
	strategyID string
	logger     *logger.Logger
}

func NewResultHandler(store ResultStore, strategyID string, log *logger.Logger) *ResultHandler {
	return &ResultHandler{store: store, strategyID: strategyID, logger: log}
}

// GetLatest returns the most recent backtest run.
// GET /api/backtests/latest
func (h *ResultHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Latest(r.Context(), h.strategyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no backtest results")
			return
		}
		h.logger.WithError(err).Error("Failed to load backtest result")
		writeError(w, http.StatusInternalServerError, "failed to load backtest result")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// GetPerformance returns only the latest run's summary metrics.
// GET /api/performance
func (h *ResultHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Latest(r.Context(), h.strategyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no backtest results")
			return
		}
		h.logger.WithError(err).Error("Failed to load performance summary")
		writeError(w, http.StatusInternalServerError, "failed to load performance summary")
		return
	}

	writeJSON(w, http.StatusOK, rec.Summary)
}

// GetEquityCurve returns the latest run's cumulative-return series for
// charting.
// GET /api/equity-curve
func (h *ResultHandler) GetEquityCurve(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Latest(r.Context(), h.strategyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no backtest results")
			return
		}
		h.logger.WithError(err).Error("Failed to load equity curve")
		writeError(w, http.StatusInternalServerError, "failed to load equity curve")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_at": rec.RunAt,
		"equity": rec.Equity,
	})
}

// List returns recent runs, newest first.
// GET /api/backtests?limit=N
func (h *ResultHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultResultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be an integer in [1, 100]")
			return
		}
		limit = n
	}

	records, err := h.store.List(r.Context(), h.strategyID, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list backtest results")
		writeError(w, http.StatusInternalServerError, "failed to list backtest results")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"results": records,
	})
}

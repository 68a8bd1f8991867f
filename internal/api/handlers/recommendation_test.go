package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delorean-quant/delorean/internal/contracts"
	storepkg "github.com/delorean-quant/delorean/internal/store"
	"github.com/delorean-quant/delorean/pkg/config"
	"github.com/delorean-quant/delorean/pkg/logger"
	"github.com/delorean-quant/delorean/pkg/redis"
)

type stubRecStore struct {
	rec *contracts.Recommendation
	err error
}

func (s *stubRecStore) Latest(context.Context, string) (*contracts.Recommendation, error) {
	return s.rec, s.err
}

func (s *stubRecStore) GetByDate(context.Context, string, time.Time) (*contracts.Recommendation, error) {
	return s.rec, s.err
}

func noopCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)
	return redis.NewCache(client, "test")
}

func TestGetLatestRecommendation(t *testing.T) {
	rec := &contracts.Recommendation{
		StrategyID: "cn_etf_rotation",
		Regime:     contracts.RegimeState{Label: contracts.RegimeBull, Exposure: 1},
	}
	h := NewRecommendationHandler(&stubRecStore{rec: rec}, noopCache(t), "cn_etf_rotation", logger.Nop())

	w := httptest.NewRecorder()
	h.GetLatest(w, httptest.NewRequest("GET", "/api/recommendations/latest", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got contracts.Recommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "cn_etf_rotation", got.StrategyID)
}

func TestGetLatestRecommendationNotFound(t *testing.T) {
	h := NewRecommendationHandler(&stubRecStore{err: pgx.ErrNoRows}, noopCache(t), "cn_etf_rotation", logger.Nop())

	w := httptest.NewRecorder()
	h.GetLatest(w, httptest.NewRequest("GET", "/api/recommendations/latest", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetByDateRejectsBadDate(t *testing.T) {
	h := NewRecommendationHandler(&stubRecStore{}, noopCache(t), "cn_etf_rotation", logger.Nop())

	r := httptest.NewRequest("GET", "/api/recommendations/not-a-date", nil)
	r = mux.SetURLVars(r, map[string]string{"date": "not-a-date"})
	w := httptest.NewRecorder()
	h.GetByDate(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubResultStore struct {
	records []*storepkg.BacktestRecord
	err     error
}

func (s *stubResultStore) Latest(context.Context, string) (*storepkg.BacktestRecord, error) {
	if len(s.records) == 0 {
		return nil, pgx.ErrNoRows
	}
	return s.records[0], s.err
}

func (s *stubResultStore) List(_ context.Context, _ string, limit int) ([]*storepkg.BacktestRecord, error) {
	if limit < len(s.records) {
		return s.records[:limit], s.err
	}
	return s.records, s.err
}

func TestListBacktestsLimitValidation(t *testing.T) {
	h := NewResultHandler(&stubResultStore{}, "cn_etf_rotation", logger.Nop())

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest("GET", "/api/backtests?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.List(w, httptest.NewRequest("GET", "/api/backtests?limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBacktests(t *testing.T) {
	records := []*storepkg.BacktestRecord{
		{ID: 2, StrategyID: "cn_etf_rotation"},
		{ID: 1, StrategyID: "cn_etf_rotation"},
	}
	h := NewResultHandler(&stubResultStore{records: records}, "cn_etf_rotation", logger.Nop())

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest("GET", "/api/backtests?limit=1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
}

func TestGetPerformanceReturnsSummaryOnly(t *testing.T) {
	records := []*storepkg.BacktestRecord{{
		ID:         1,
		StrategyID: "cn_etf_rotation",
		Summary:    contracts.PerformanceSummary{Sharpe: 1.2, TradingDays: 250},
	}}
	h := NewResultHandler(&stubResultStore{records: records}, "cn_etf_rotation", logger.Nop())

	w := httptest.NewRecorder()
	h.GetPerformance(w, httptest.NewRequest("GET", "/api/performance", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got contracts.PerformanceSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.InDelta(t, 1.2, got.Sharpe, 1e-9)
	assert.Equal(t, 250, got.TradingDays)
}

func TestGetLatestBacktestNotFound(t *testing.T) {
	h := NewResultHandler(&stubResultStore{}, "cn_etf_rotation", logger.Nop())

	w := httptest.NewRecorder()
	h.GetLatest(w, httptest.NewRequest("GET", "/api/backtests/latest", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

package contracts

import "time"

// RecommendationEntry is one ranked instrument in the daily recommendation.
// Buffer entries are shown so the user can see hysteresis candidates.
type RecommendationEntry struct {
	Rank         int     `json:"rank"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name,omitempty"`
	Score        float64 `json:"score"`
	Volatility   float64 `json:"volatility"`
	CurrentPrice float64 `json:"current_price,omitempty"`
	TargetWeight float64 `json:"target_weight"`
	IsBuffer     bool    `json:"is_buffer"`
}

// RankingEntry is one row of the full cross-sectional ranking.
type RankingEntry struct {
	Symbol     string  `json:"symbol"`
	Score      float64 `json:"score"`
	Volatility float64 `json:"volatility"`
}

// ValidationReport summarizes the out-of-sample validation pass of the
// live pipeline.
type ValidationReport struct {
	RankIC       float64 `json:"rank_ic"`
	Sharpe       float64 `json:"sharpe"`
	ICStatus     string  `json:"ic_status"`
	SharpeStatus string  `json:"sharpe_status"`
}

// MarketData carries the benchmark snapshot behind the regime decision.
type MarketData struct {
	BenchmarkClose float64 `json:"benchmark_close"`
	BenchmarkMA    float64 `json:"benchmark_ma"`
}

// Recommendation is the single current-day output of the live pipeline,
// the object persisted, cached and served to the dashboard.
type Recommendation struct {
	Date            string                `json:"date"`
	GeneratedAt     time.Time             `json:"generated_at"`
	MarketStatus    string                `json:"market_status"`
	RegimeRatio     float64               `json:"regime_ratio"`
	Regime          RegimeState           `json:"regime"`
	Validation      ValidationReport      `json:"validation"`
	StrategyID      string                `json:"strategy_id"`
	ConfigHash      string                `json:"config_hash"`
	EstimatedAnnVol float64               `json:"estimated_ann_vol"`
	Top             []RecommendationEntry `json:"top_recommendations"`
	FullRankings    []RankingEntry        `json:"full_rankings"`
	Market          MarketData            `json:"market_data"`
}

// EquityPoint is one point of a backtest equity curve.
type EquityPoint struct {
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`
	Return    float64   `json:"return"`
	CumReturn float64   `json:"cum_return"`
}

// PerformanceSummary holds derived backtest metrics for reporting.
type PerformanceSummary struct {
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	TradingDays        int       `json:"trading_days"`
	TotalReturn        float64   `json:"total_return"`
	AnnualizedReturn   float64   `json:"annualized_return"`
	Volatility         float64   `json:"volatility"`
	Sharpe             float64   `json:"sharpe"`
	Sortino            float64   `json:"sortino"`
	MaxDrawdown        float64   `json:"max_drawdown"`
	AnnualizedTurnover float64   `json:"annualized_turnover"`
	RankIC             float64   `json:"rank_ic"`
	WinRate            float64   `json:"win_rate"`
}

package live

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/delorean-quant/delorean/internal/backtest"
	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/internal/marketdata"
	"github.com/delorean-quant/delorean/internal/portfolio"
	"github.com/delorean-quant/delorean/internal/regime"
	"github.com/delorean-quant/delorean/internal/scoring"
	"github.com/delorean-quant/delorean/internal/selection"
	"github.com/delorean-quant/delorean/internal/signal"
	"github.com/delorean-quant/delorean/internal/strategyconfig"
	"github.com/delorean-quant/delorean/pkg/logger"
)

// Validation classification thresholds. IC above icPass with a positive
// validation Sharpe is a healthy model; anything negative is critical.
const (
	icPass     = 0.02
	sharpePass = 0.5
)

// Pipeline produces the daily recommendation in two passes: first a
// validation pass on a held-out recent window to grade the model,
// then a production pass trained on everything up to the split. All
// randomness is off; the same inputs always produce the same artifact.
type Pipeline struct {
	cfg      *strategyconfig.Config
	hash     string
	oracle   scoring.Oracle
	provider marketdata.PanelProvider
	names    map[string]string // symbol -> display name, optional
	logger   *logger.Logger
}

func NewPipeline(
	cfg *strategyconfig.Config,
	hash string,
	oracle scoring.Oracle,
	provider marketdata.PanelProvider,
	names map[string]string,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{cfg: cfg, hash: hash, oracle: oracle, provider: provider, names: names, logger: log}
}

// Run generates the recommendation for asOf. Any failure returns an
// error and no artifact; a stale or partial recommendation is worse
// than none.
func (p *Pipeline) Run(ctx context.Context, asOf time.Time) (*contracts.Recommendation, error) {
	trainStart := asOf.AddDate(0, -p.cfg.WalkForward.TrainWindowMonths, 0)

	prices, err := p.provider.ClosePanel(ctx, p.cfg.Universe.Instruments, trainStart, asOf)
	if err != nil {
		return nil, fmt.Errorf("loading price panel: %w", err)
	}
	bench, err := p.provider.Benchmark(ctx, p.cfg.Meta.Benchmark, trainStart, asOf)
	if err != nil {
		return nil, fmt.Errorf("loading benchmark: %w", err)
	}
	if err := marketdata.CheckCalendar(prices, bench); err != nil {
		return nil, err
	}

	validation, err := p.validationPass(ctx, asOf, trainStart, prices)
	if err != nil {
		return nil, fmt.Errorf("validation pass: %w", err)
	}

	rec, err := p.productionPass(ctx, asOf, trainStart, prices, bench)
	if err != nil {
		return nil, fmt.Errorf("production pass: %w", err)
	}
	rec.Validation = *validation

	p.logger.WithFields(map[string]interface{}{
		"date":          rec.Date,
		"regime":        string(rec.Regime.Label),
		"rank_ic":       validation.RankIC,
		"ic_status":     validation.ICStatus,
		"sharpe_status": validation.SharpeStatus,
	}).Info("Recommendation generated")

	return rec, nil
}

// validationPass trains with the last ValidationDays held out, scores
// that window out-of-sample and grades the model.
func (p *Pipeline) validationPass(ctx context.Context, asOf, trainStart time.Time, prices *contracts.Panel) (*contracts.ValidationReport, error) {
	valStart := asOf.AddDate(0, 0, -p.cfg.Live.ValidationDays)

	raw, err := p.oracle.Scores(ctx, scoring.Request{
		Instruments: p.cfg.Universe.Instruments,
		TrainStart:  trainStart,
		TrainEnd:    valStart.AddDate(0, 0, -1),
		PredStart:   valStart,
		PredEnd:     asOf,
	})
	if err != nil {
		return nil, err
	}

	smoother := signal.NewSmoother(p.cfg.Smoothing)
	smoothed, err := smoother.SmoothPanel(raw)
	if err != nil {
		return nil, err
	}

	ic, sharpe := p.gradeWindow(smoothed, prices)

	report := &contracts.ValidationReport{
		RankIC:       ic,
		Sharpe:       sharpe,
		ICStatus:     grade(ic, icPass, 0),
		SharpeStatus: grade(sharpe, sharpePass, 0),
	}
	return report, nil
}

// gradeWindow computes the window's mean daily rank IC and the Sharpe
// of a naive top-K equal-weight portfolio over it. The naive portfolio
// isolates signal quality from sizing and turnover machinery.
func (p *Pipeline) gradeWindow(smoothed, prices *contracts.Panel) (ic, sharpe float64) {
	priceIdx := make(map[string]int, prices.Len())
	for i, d := range prices.Dates {
		priceIdx[d.Format("2006-01-02")] = i
	}

	icTotal := 0.0
	icSamples := 0
	var dailyReturns []float64

	for si, d := range smoothed.Dates {
		pi, found := priceIdx[d.Format("2006-01-02")]
		if !found || pi+1 >= prices.Len() {
			continue
		}
		today, next := prices.Row(pi), prices.Row(pi+1)
		forward := make(map[string]float64, len(next))
		for symbol, close := range next {
			if base, ok := today[symbol]; ok && base > 0 {
				forward[symbol] = close/base - 1
			}
		}

		if v, ok := backtest.SpearmanIC(smoothed.Row(si), forward); ok {
			icTotal += v
			icSamples++
		}

		ranked := selection.Rank(smoothed.Row(si))
		n := p.cfg.Selection.TopK
		if n > len(ranked) {
			n = len(ranked)
		}
		dayRet := 0.0
		counted := 0
		for _, r := range ranked[:n] {
			if fwd, found := forward[r.Symbol]; found {
				dayRet += fwd
				counted++
			}
		}
		if counted > 0 {
			dailyReturns = append(dailyReturns, dayRet/float64(counted))
		}
	}

	if icSamples > 0 {
		ic = icTotal / float64(icSamples)
	}
	return ic, backtest.Sharpe(dailyReturns)
}

// productionPass retrains with the recent split included and builds the
// artifact from the final day's state.
func (p *Pipeline) productionPass(ctx context.Context, asOf, trainStart time.Time, prices *contracts.Panel, bench contracts.PriceSeries) (*contracts.Recommendation, error) {
	predStart := asOf.AddDate(0, 0, -p.cfg.Live.ProductionSplitDays)

	raw, err := p.oracle.Scores(ctx, scoring.Request{
		Instruments: p.cfg.Universe.Instruments,
		TrainStart:  trainStart,
		TrainEnd:    predStart.AddDate(0, 0, -1),
		PredStart:   predStart,
		PredEnd:     asOf,
	})
	if err != nil {
		return nil, err
	}

	smoother := signal.NewSmoother(p.cfg.Smoothing)
	smoothed, err := smoother.SmoothPanel(raw)
	if err != nil {
		return nil, err
	}
	if smoothed.Len() == 0 {
		return nil, fmt.Errorf("production scores are empty")
	}

	// Replay selection over the split window so the held set carries
	// the same hysteresis it would have accumulated day by day.
	selector := selection.NewSelector(p.cfg.Selection, p.logger)
	held := contracts.HeldSet{}
	var decision *selection.Decision
	for i := range smoothed.Dates {
		decision, err = selector.Select(smoothed.Row(i), held)
		if err != nil {
			return nil, fmt.Errorf("selection on %s: %w", smoothed.Dates[i].Format("2006-01-02"), err)
		}
		held = decision.Held
	}

	filter := regime.NewFilter(p.cfg.Regime, p.logger)
	var state contracts.RegimeState
	for i := range bench.Dates {
		state, err = filter.Observe(bench.Dates[i], bench.Close[i])
		if err != nil && filter.Ready() {
			return nil, fmt.Errorf("regime filter: %w", err)
		}
	}
	if !filter.Ready() {
		return nil, fmt.Errorf("benchmark history too short for MA(%d) regime", p.cfg.Regime.MAWindow)
	}

	vols := make(map[string]float64)
	lastClose := make(map[string]float64)
	for _, symbol := range p.cfg.Universe.Instruments {
		closes, _ := denseSeries(prices, symbol)
		vols[symbol] = portfolio.AnnualizedVol(portfolio.DailyReturns(closes), p.cfg.Sizing.VolWindow)
		if len(closes) > 0 {
			lastClose[symbol] = closes[len(closes)-1]
		}
	}

	sizer := portfolio.NewSizer(p.cfg.Sizing, p.logger)
	sized, err := sizer.Size(portfolio.Inputs{Held: held, Vols: vols, Regime: state})
	if err != nil {
		return nil, fmt.Errorf("sizing: %w", err)
	}

	return p.buildArtifact(asOf, decision, sized, state, vols, lastClose, bench), nil
}

func (p *Pipeline) buildArtifact(
	asOf time.Time,
	decision *selection.Decision,
	sized *portfolio.Result,
	state contracts.RegimeState,
	vols map[string]float64,
	lastClose map[string]float64,
	bench contracts.PriceSeries,
) *contracts.Recommendation {
	limit := p.cfg.Selection.TopK + p.cfg.Selection.Buffer

	top := make([]contracts.RecommendationEntry, 0, limit)
	for _, r := range decision.Rankings {
		if r.Rank > limit {
			break
		}
		top = append(top, contracts.RecommendationEntry{
			Rank:         r.Rank,
			Symbol:       r.Symbol,
			Name:         p.displayName(r.Symbol),
			Score:        r.Score,
			Volatility:   vols[r.Symbol],
			CurrentPrice: lastClose[r.Symbol],
			TargetWeight: sized.Weights[r.Symbol],
			IsBuffer:     r.Rank > p.cfg.Selection.TopK,
		})
	}

	full := make([]contracts.RankingEntry, 0, len(decision.Rankings))
	for _, r := range decision.Rankings {
		full = append(full, contracts.RankingEntry{
			Symbol:     r.Symbol,
			Score:      r.Score,
			Volatility: vols[r.Symbol],
		})
	}

	benchClose := bench.Close[bench.Len()-1]
	market := contracts.MarketData{BenchmarkClose: benchClose}
	if state.Ratio > 0 {
		market.BenchmarkMA = benchClose / state.Ratio
	}

	return &contracts.Recommendation{
		Date:            asOf.Format("2006-01-02"),
		GeneratedAt:     time.Now().UTC(),
		MarketStatus:    marketStatus(asOf),
		RegimeRatio:     state.Ratio,
		Regime:          state,
		StrategyID:      p.cfg.Meta.StrategyID,
		ConfigHash:      p.hash,
		EstimatedAnnVol: sized.EstimatedAnnVol,
		Top:             top,
		FullRankings:    full,
		Market:          market,
	}
}

// displayName tolerates both suffixed symbols and the bare instrument
// codes the name directory is keyed by.
func (p *Pipeline) displayName(symbol string) string {
	if p.names == nil {
		return ""
	}
	if name, found := p.names[symbol]; found {
		return name
	}
	code := symbol
	if i := strings.IndexByte(symbol, '.'); i >= 0 {
		code = symbol[:i]
	}
	return p.names[code]
}

func grade(value, pass, warn float64) string {
	switch {
	case value >= pass:
		return "pass"
	case value >= warn:
		return "warning"
	default:
		return "critical"
	}
}

func marketStatus(asOf time.Time) string {
	switch asOf.Weekday() {
	case time.Saturday, time.Sunday:
		return "closed"
	default:
		return "open"
	}
}

// denseSeries extracts the observed closes for one symbol, gaps
// removed.
func denseSeries(panel *contracts.Panel, symbol string) ([]float64, bool) {
	values, ok := panel.Series(symbol)
	out := make([]float64, 0, len(values))
	for i, present := range ok {
		if present {
			out = append(out, values[i])
		}
	}
	return out, len(out) > 0
}

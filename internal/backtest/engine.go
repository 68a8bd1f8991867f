package backtest

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/internal/execution"
	"github.com/delorean-quant/delorean/internal/portfolio"
	"github.com/delorean-quant/delorean/internal/regime"
	"github.com/delorean-quant/delorean/internal/selection"
	"github.com/delorean-quant/delorean/internal/signal"
	"github.com/delorean-quant/delorean/internal/strategyconfig"
	"github.com/delorean-quant/delorean/pkg/logger"
)

// Inputs is everything a simulation needs, fully resolved up front so
// the loop itself never reaches outside its date.
type Inputs struct {
	Scores    *contracts.Panel // raw model scores per instrument
	Prices    *contracts.Panel // daily closes per instrument
	Benchmark contracts.PriceSeries
}

// Report is the outcome of one run.
type Report struct {
	Summary      contracts.PerformanceSummary
	Equity       []contracts.EquityPoint
	FinalWeights contracts.WeightVector
	FinalHeld    contracts.HeldSet
}

// Engine wires the strategy stages into a serial daily loop:
// smooth, select, size, execute, record. Each day sees only data up to
// itself; the score panel is smoothed causally before the loop starts.
type Engine struct {
	cfg    *strategyconfig.Config
	logger *logger.Logger
}

func NewEngine(cfg *strategyconfig.Config, log *logger.Logger) *Engine {
	return &Engine{cfg: cfg, logger: log}
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Run executes the simulation over the price panel's calendar.
func (e *Engine) Run(ctx context.Context, in Inputs) (*Report, error) {
	if err := e.validate(in); err != nil {
		return nil, err
	}

	smoother := signal.NewSmoother(e.cfg.Smoothing)
	smoothed, err := smoother.SmoothPanel(in.Scores)
	if err != nil {
		return nil, fmt.Errorf("smoothing scores: %w", err)
	}

	scoreIdx := make(map[string]int, smoothed.Len())
	for i, d := range smoothed.Dates {
		scoreIdx[dateKey(d)] = i
	}
	benchClose := make(map[string]float64, in.Benchmark.Len())
	for i, d := range in.Benchmark.Dates {
		benchClose[dateKey(d)] = in.Benchmark.Close[i]
	}

	selector := selection.NewSelector(e.cfg.Selection, e.logger)
	sizer := portfolio.NewSizer(e.cfg.Sizing, e.logger)
	filter := regime.NewFilter(e.cfg.Regime, e.logger)
	rng := rand.New(rand.NewSource(e.cfg.Execution.RandomSeed))
	controller := execution.NewController(e.cfg.Execution, rng, e.logger)

	ledger := NewLedger(e.cfg.Backtest.InitialValue)
	costRate := (e.cfg.Backtest.CommissionBps + e.cfg.Backtest.SlippageBps) / 10_000

	value := e.cfg.Backtest.InitialValue
	realized := contracts.WeightVector{}
	held := contracts.HeldSet{}
	prevClose := make(map[string]float64)
	returnHist := make(map[string][]float64)
	icSamples := make([]float64, 0, in.Prices.Len())

	for i, date := range in.Prices.Dates {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("backtest cancelled at %s: %w", dateKey(date), ctx.Err())
		default:
		}

		row := in.Prices.Row(i)

		// Settle yesterday's book against today's closes.
		dayReturns := make(map[string]float64, len(row))
		for symbol, close := range row {
			if close <= 0 {
				return nil, fmt.Errorf("non-positive close for %s on %s", symbol, dateKey(date))
			}
			if pc, seen := prevClose[symbol]; seen {
				r := close/pc - 1
				dayReturns[symbol] = r
				returnHist[symbol] = append(returnHist[symbol], r)
			}
			prevClose[symbol] = close
		}
		dayReturn := 0.0
		for symbol, w := range realized {
			r, found := dayReturns[symbol]
			if !found {
				// A held instrument must price every day; a silent gap
				// would distort the book.
				return nil, fmt.Errorf("missing close for held instrument %s on %s", symbol, dateKey(date))
			}
			dayReturn += w * r
		}
		value *= 1 + dayReturn

		bench, found := benchClose[dateKey(date)]
		if !found {
			return nil, fmt.Errorf("missing benchmark close on %s", dateKey(date))
		}
		state, err := filter.Observe(date, bench)
		if err != nil {
			if !filter.Ready() {
				// Warming up the regime MA: stay in cash.
				if err := ledger.Record(date, value, dayReturn, 0, realized); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("regime filter on %s: %w", dateKey(date), err)
		}

		si, haveScores := scoreIdx[dateKey(date)]
		if !haveScores {
			// No model output today: hold the book.
			if err := ledger.Record(date, value, dayReturn, 0, realized); err != nil {
				return nil, err
			}
			continue
		}
		scores := smoothed.Row(si)

		decision, err := selector.Select(scores, held)
		if err != nil {
			return nil, fmt.Errorf("selection on %s: %w", dateKey(date), err)
		}
		held = decision.Held

		vols := make(map[string]float64, len(held))
		for _, symbol := range held {
			vols[symbol] = portfolio.AnnualizedVol(returnHist[symbol], e.cfg.Sizing.VolWindow)
		}
		sized, err := sizer.Size(portfolio.Inputs{Held: held, Vols: vols, Regime: state})
		if err != nil {
			return nil, fmt.Errorf("sizing on %s: %w", dateKey(date), err)
		}

		step := controller.Apply(sized.Weights, realized)
		realized = step.Realized
		value *= 1 - step.Turnover*costRate

		if err := ledger.Record(date, value, dayReturn, step.Turnover, realized); err != nil {
			return nil, err
		}
	}

	// Rank information coefficient: today's smoothed scores against
	// tomorrow's realized returns.
	priceIdx := make(map[string]int, in.Prices.Len())
	for i, d := range in.Prices.Dates {
		priceIdx[dateKey(d)] = i
	}
	for si, d := range smoothed.Dates {
		pi, found := priceIdx[dateKey(d)]
		if !found || pi+1 >= in.Prices.Len() {
			continue
		}
		today, next := in.Prices.Row(pi), in.Prices.Row(pi+1)
		forward := make(map[string]float64, len(next))
		for symbol, close := range next {
			if base, ok := today[symbol]; ok && base > 0 {
				forward[symbol] = close/base - 1
			}
		}
		if ic, ok := SpearmanIC(smoothed.Row(si), forward); ok {
			icSamples = append(icSamples, ic)
		}
	}

	ledger.Finalize()
	return e.report(ledger, held, icSamples), nil
}

func (e *Engine) validate(in Inputs) error {
	if in.Scores == nil || in.Prices == nil {
		return fmt.Errorf("backtest inputs require both score and price panels")
	}
	if err := in.Scores.Validate(); err != nil {
		return fmt.Errorf("score panel: %w", err)
	}
	if err := in.Prices.Validate(); err != nil {
		return fmt.Errorf("price panel: %w", err)
	}
	if err := in.Benchmark.Validate(); err != nil {
		return fmt.Errorf("benchmark series: %w", err)
	}
	if in.Prices.Len() == 0 {
		return fmt.Errorf("price panel is empty")
	}
	return nil
}

func (e *Engine) report(ledger *Ledger, held contracts.HeldSet, icSamples []float64) *Report {
	returns := ledger.Returns()
	values := ledger.Values()
	points := ledger.Equity()

	summary := contracts.PerformanceSummary{
		TradingDays:        ledger.Len(),
		AnnualizedTurnover: 0,
		RankIC:             mean(icSamples),
		WinRate:            WinRate(returns),
		Volatility:         AnnualizedVolatility(returns),
		Sharpe:             Sharpe(returns),
		Sortino:            Sortino(returns),
		MaxDrawdown:        MaxDrawdown(values),
	}
	if ledger.Len() > 0 {
		summary.StartDate = points[0].Date
		summary.EndDate = points[len(points)-1].Date
		summary.TotalReturn = points[len(points)-1].CumReturn
		summary.AnnualizedReturn = AnnualizedReturn(summary.TotalReturn, ledger.Len())
		summary.AnnualizedTurnover = ledger.TotalTurnover() / float64(ledger.Len()) * tradingDaysPerYear
	}

	e.logger.WithFields(map[string]interface{}{
		"days":         summary.TradingDays,
		"total_return": summary.TotalReturn,
		"sharpe":       summary.Sharpe,
		"max_drawdown": summary.MaxDrawdown,
		"rank_ic":      summary.RankIC,
	}).Info("Backtest complete")

	return &Report{
		Summary:      summary,
		Equity:       points,
		FinalWeights: ledger.FinalWeights(),
		FinalHeld:    held,
	}
}

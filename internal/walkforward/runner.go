package walkforward

import (
	"context"
	"fmt"
	"time"

	"github.com/delorean-quant/delorean/internal/backtest"
	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/internal/scoring"
	"github.com/delorean-quant/delorean/internal/signal"
	"github.com/delorean-quant/delorean/internal/strategyconfig"
	"github.com/delorean-quant/delorean/pkg/logger"
)

// FoldResult is one fold's out-of-sample quality.
type FoldResult struct {
	Window  Window
	RankIC  float64
	Samples int // score dates with a usable forward return
}

// Summary aggregates a full walk-forward run.
type Summary struct {
	Folds    []FoldResult
	MeanIC   float64
	OOSPanel *contracts.Panel // concatenated out-of-sample scores
}

// Runner retrains the model per fold through the oracle and measures
// each fold's out-of-sample rank IC. Folds run sequentially; the
// concatenated panel preserves date order because folds never overlap.
type Runner struct {
	cfg    *strategyconfig.Config
	oracle scoring.Oracle
	logger *logger.Logger
}

func NewRunner(cfg *strategyconfig.Config, oracle scoring.Oracle, log *logger.Logger) *Runner {
	return &Runner{cfg: cfg, oracle: oracle, logger: log}
}

// Run walks folds over [start, end] using prices for forward returns.
func (r *Runner) Run(ctx context.Context, prices *contracts.Panel, start, end time.Time) (*Summary, error) {
	if err := prices.Validate(); err != nil {
		return nil, fmt.Errorf("price panel: %w", err)
	}

	windows, err := Windows(start, end,
		r.cfg.WalkForward.TrainWindowMonths, r.cfg.WalkForward.RetrainFrequencyMonths)
	if err != nil {
		return nil, err
	}

	smoother := signal.NewSmoother(r.cfg.Smoothing)
	summary := &Summary{OOSPanel: contracts.NewPanel(0)}
	icTotal := 0.0
	icFolds := 0

	for _, w := range windows {
		r.logger.WithFields(map[string]interface{}{"window": w.String()}).Info("Walk-forward fold")

		raw, err := r.oracle.Scores(ctx, scoring.Request{
			Instruments: r.cfg.Universe.Instruments,
			TrainStart:  w.TrainStart,
			TrainEnd:    w.TrainEnd,
			PredStart:   w.PredStart,
			PredEnd:     w.PredEnd,
		})
		if err != nil {
			return nil, fmt.Errorf("fold %s: %w", w, err)
		}

		smoothed, err := smoother.SmoothPanel(raw)
		if err != nil {
			return nil, fmt.Errorf("fold %s: %w", w, err)
		}

		fold := r.scoreFold(w, smoothed, prices)
		summary.Folds = append(summary.Folds, fold)
		if fold.Samples > 0 {
			icTotal += fold.RankIC
			icFolds++
		}

		for i, d := range raw.Dates {
			summary.OOSPanel.Append(d, raw.Values[i])
		}
	}

	if err := summary.OOSPanel.Validate(); err != nil {
		return nil, fmt.Errorf("concatenated out-of-sample panel: %w", err)
	}
	if icFolds > 0 {
		summary.MeanIC = icTotal / float64(icFolds)
	}

	r.logger.WithFields(map[string]interface{}{
		"folds":   len(summary.Folds),
		"mean_ic": summary.MeanIC,
	}).Info("Walk-forward complete")

	return summary, nil
}

// scoreFold computes the fold's mean daily Spearman IC of smoothed
// scores against next-day returns.
func (r *Runner) scoreFold(w Window, smoothed, prices *contracts.Panel) FoldResult {
	priceIdx := make(map[string]int, prices.Len())
	for i, d := range prices.Dates {
		priceIdx[d.Format("2006-01-02")] = i
	}

	total := 0.0
	samples := 0
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
		if ic, ok := backtest.SpearmanIC(smoothed.Row(si), forward); ok {
			total += ic
			samples++
		}
	}

	fold := FoldResult{Window: w, Samples: samples}
	if samples > 0 {
		fold.RankIC = total / float64(samples)
	}
	return fold
}

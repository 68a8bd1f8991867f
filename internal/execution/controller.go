package execution

import (
	"math/rand"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/internal/strategyconfig"
	"github.com/delorean-quant/delorean/pkg/logger"
)

// Controller turns target weights into realized weights while keeping
// turnover down. Two brakes apply in a fixed order: a probabilistic
// retention gate that skips the whole day's rebalance (backtest only,
// one draw per day), then a per-instrument threshold that carries small
// drifts forward instead of trading them.
type Controller struct {
	cfg    strategyconfig.Execution
	rng    *rand.Rand // nil disables retention, as in live mode
	logger *logger.Logger
}

// StepResult is the outcome of one execution day.
type StepResult struct {
	Realized contracts.WeightVector
	Traded   bool
	Retained bool // day skipped by the retention gate
	Turnover float64
}

// NewController builds a controller. Pass a seeded rng for backtests;
// pass nil for live runs so output is fully deterministic.
func NewController(cfg strategyconfig.Execution, rng *rand.Rand, log *logger.Logger) *Controller {
	return &Controller{cfg: cfg, rng: rng, logger: log}
}

// Apply reconciles target against the previously realized weights.
func (c *Controller) Apply(target, prev contracts.WeightVector) *StepResult {
	// The draw happens every day so a given seed always produces the
	// same random stream regardless of downstream decisions.
	retained := false
	if c.rng != nil && c.cfg.RetentionProbability > 0 {
		retained = c.rng.Float64() < c.cfg.RetentionProbability
	}

	// An empty book with positive target exposure always trades, even
	// on a retained day. Without this the strategy can idle in cash
	// indefinitely.
	forceTrade := prev.Sum() < contracts.WeightTolerance && target.Sum() > contracts.WeightTolerance

	if retained && !forceTrade {
		return &StepResult{Realized: prev.Clone(), Retained: true}
	}

	realized := make(contracts.WeightVector)
	for symbol := range prev {
		realized[symbol] = prev[symbol]
	}
	traded := false
	for symbol, tw := range target {
		pw := prev[symbol]
		if abs(tw-pw) < c.cfg.RebalanceThreshold {
			continue
		}
		realized[symbol] = tw
		traded = true
	}
	// Positions absent from the target are exits; the threshold applies
	// to them the same way.
	for symbol, pw := range prev {
		if _, ok := target[symbol]; ok {
			continue
		}
		if abs(pw) < c.cfg.RebalanceThreshold {
			continue
		}
		realized[symbol] = 0
		traded = true
	}

	for symbol, w := range realized {
		if abs(w) < contracts.WeightTolerance {
			delete(realized, symbol)
		}
	}

	turnover := contracts.Turnover(prev, realized)
	if traded {
		c.logger.WithFields(map[string]interface{}{
			"turnover":  turnover,
			"positions": len(realized),
		}).Debug("Rebalanced")
	}

	return &StepResult{Realized: realized, Traded: traded, Turnover: turnover}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

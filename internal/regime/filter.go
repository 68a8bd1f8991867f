package regime

import (
	"fmt"
	"time"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/internal/strategyconfig"
	"github.com/delorean-quant/delorean/pkg/logger"
)

// Filter classifies the market as bull or bear from the benchmark price
// relative to its moving average, with a hysteresis band so the label
// does not flap while the price oscillates around the MA.
type Filter struct {
	cfg    strategyconfig.Regime
	logger *logger.Logger

	window []float64 // rolling close window, oldest first
	state  *contracts.RegimeState
}

func NewFilter(cfg strategyconfig.Regime, log *logger.Logger) *Filter {
	return &Filter{
		cfg:    cfg,
		logger: log,
		window: make([]float64, 0, cfg.MAWindow),
	}
}

// Ready reports whether enough benchmark closes have been observed to
// compute the moving average.
func (f *Filter) Ready() bool {
	return len(f.window) >= f.cfg.MAWindow
}

// State returns the current regime, or an error before the first
// classification.
func (f *Filter) State() (contracts.RegimeState, error) {
	if f.state == nil {
		return contracts.RegimeState{}, fmt.Errorf("regime filter has no state yet: need %d closes, have %d", f.cfg.MAWindow, len(f.window))
	}
	return *f.state, nil
}

// Observe feeds one benchmark close and returns the regime after it.
// Until the window fills the state is unavailable and Observe returns
// an error; callers warming up should check Ready first.
func (f *Filter) Observe(date time.Time, close float64) (contracts.RegimeState, error) {
	if close <= 0 {
		return contracts.RegimeState{}, fmt.Errorf("benchmark close must be positive on %s, got %f", date.Format("2006-01-02"), close)
	}

	f.window = append(f.window, close)
	if len(f.window) > f.cfg.MAWindow {
		f.window = f.window[1:]
	}
	if !f.Ready() {
		return contracts.RegimeState{}, fmt.Errorf("regime filter warming up: %d/%d closes", len(f.window), f.cfg.MAWindow)
	}

	ma := 0.0
	for _, c := range f.window {
		ma += c
	}
	ma /= float64(len(f.window))
	ratio := close / ma

	label := f.classify(ratio)
	if f.state == nil || f.state.Label != label {
		exposure := f.cfg.ExposureBull
		if label == contracts.RegimeBear {
			exposure = f.cfg.ExposureBear
		}
		f.state = &contracts.RegimeState{Label: label, Exposure: exposure, Since: date}
		f.logger.WithFields(map[string]interface{}{
			"regime": string(label),
			"ratio":  ratio,
			"date":   date.Format("2006-01-02"),
		}).Info("Regime changed")
	}
	f.state.Ratio = ratio

	return *f.state, nil
}

// classify applies the hysteresis band. The first classification uses
// the bare MA comparison; after that a flip requires the price to clear
// the band on the far side.
func (f *Filter) classify(ratio float64) contracts.RegimeLabel {
	if f.state == nil {
		if ratio >= 1 {
			return contracts.RegimeBull
		}
		return contracts.RegimeBear
	}

	band := f.cfg.HysteresisBand
	switch f.state.Label {
	case contracts.RegimeBull:
		if ratio < 1-band {
			return contracts.RegimeBear
		}
		return contracts.RegimeBull
	default:
		if ratio > 1+band {
			return contracts.RegimeBull
		}
		return contracts.RegimeBear
	}
}

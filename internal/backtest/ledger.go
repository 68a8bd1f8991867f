package backtest

import (
	"fmt"
	"time"

	"github.com/delorean-quant/delorean/internal/contracts"
)

// Ledger is the append-only record of a simulation run. Once finalized
// it rejects further writes; all read accessors are safe after that.
type Ledger struct {
	initial   float64
	points    []contracts.EquityPoint
	weights   []contracts.WeightVector
	turnover  float64
	finalized bool
}

func NewLedger(initialValue float64) *Ledger {
	return &Ledger{initial: initialValue}
}

// Record appends one trading day. Value is the end-of-day portfolio
// value after costs; turnover is that day's one-sided trade volume.
func (l *Ledger) Record(date time.Time, value, dayReturn, turnover float64, weights contracts.WeightVector) error {
	if l.finalized {
		return fmt.Errorf("ledger is finalized, cannot record %s", date.Format("2006-01-02"))
	}
	l.points = append(l.points, contracts.EquityPoint{
		Date:      date,
		Value:     value,
		Return:    dayReturn,
		CumReturn: value/l.initial - 1,
	})
	l.weights = append(l.weights, weights.Clone())
	l.turnover += turnover
	return nil
}

// Finalize freezes the ledger.
func (l *Ledger) Finalize() {
	l.finalized = true
}

// Len returns the number of recorded days.
func (l *Ledger) Len() int {
	return len(l.points)
}

// Equity returns the recorded equity curve.
func (l *Ledger) Equity() []contracts.EquityPoint {
	return l.points
}

// Returns extracts the daily return series.
func (l *Ledger) Returns() []float64 {
	out := make([]float64, len(l.points))
	for i, p := range l.points {
		out[i] = p.Return
	}
	return out
}

// Values extracts the portfolio value series.
func (l *Ledger) Values() []float64 {
	out := make([]float64, len(l.points))
	for i, p := range l.points {
		out[i] = p.Value
	}
	return out
}

// TotalTurnover is the accumulated one-sided turnover.
func (l *Ledger) TotalTurnover() float64 {
	return l.turnover
}

// Weights returns the full recorded weight history, one vector per day.
func (l *Ledger) Weights() []contracts.WeightVector {
	return l.weights
}

// FinalWeights returns the last recorded weight vector, or an empty
// vector for an empty ledger.
func (l *Ledger) FinalWeights() contracts.WeightVector {
	if len(l.weights) == 0 {
		return contracts.WeightVector{}
	}
	return l.weights[len(l.weights)-1]
}

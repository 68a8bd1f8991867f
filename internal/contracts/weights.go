package contracts

import (
	"fmt"
	"math"
)

// WeightTolerance is the floating tolerance for weight-sum comparisons.
const WeightTolerance = 1e-6

// WeightVector maps instrument to portfolio weight in [0, 1]. The residual
// to 1.0 is cash.
type WeightVector map[string]float64

// Sum returns the total invested weight.
func (w WeightVector) Sum() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// Clone returns a deep copy.
func (w WeightVector) Clone() WeightVector {
	out := make(WeightVector, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// CheckFinite returns an error if any weight is NaN or infinite. A
// non-finite weight reaching execution is a defect, so callers check
// before emitting.
func (w WeightVector) CheckFinite() error {
	for symbol, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite weight for %s: %v", symbol, v)
		}
	}
	return nil
}

// Turnover computes the one-day turnover between two weight vectors:
// the sum of absolute weight changes over the union of instruments.
func Turnover(prev, curr WeightVector) float64 {
	total := 0.0
	for symbol, v := range curr {
		total += math.Abs(v - prev[symbol])
	}
	for symbol, v := range prev {
		if _, held := curr[symbol]; !held {
			total += v
		}
	}
	return total
}

// HeldSet is the ordered list of instruments currently allocated non-zero
// weight, best rank first.
type HeldSet []string

// Contains reports whether symbol is in the set.
func (h HeldSet) Contains(symbol string) bool {
	for _, s := range h {
		if s == symbol {
			return true
		}
	}
	return false
}

// Clone returns a copy.
func (h HeldSet) Clone() HeldSet {
	out := make(HeldSet, len(h))
	copy(out, h)
	return out
}

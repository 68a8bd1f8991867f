package contracts

import "time"

// RegimeLabel classifies the coarse market state.
type RegimeLabel string

const (
	RegimeBull RegimeLabel = "bull"
	RegimeBear RegimeLabel = "bear"
)

// RegimeState carries the current market regime and the exposure fraction
// in force. Since records the date of the last transition.
type RegimeState struct {
	Label    RegimeLabel `json:"label"`
	Exposure float64     `json:"exposure"`
	Ratio    float64     `json:"ratio"` // price / moving average
	Since    time.Time   `json:"since"`
}

// IsBull reports whether the current state is bull.
func (s RegimeState) IsBull() bool {
	return s.Label == RegimeBull
}

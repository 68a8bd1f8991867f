package contracts

import (
	"fmt"
	"sort"
	"time"
)

// Panel is a date-ordered cross-section of per-instrument values (model
// scores, volatilities). One row per trading day; missing entries are
// allowed for instruments with no value that day.
type Panel struct {
	Dates  []time.Time
	Values []map[string]float64
}

// NewPanel creates an empty panel with capacity for n dates.
func NewPanel(n int) *Panel {
	return &Panel{
		Dates:  make([]time.Time, 0, n),
		Values: make([]map[string]float64, 0, n),
	}
}

// Append adds one date row. Dates must arrive in ascending order; Validate
// enforces it but appending out of order is a caller bug either way.
func (p *Panel) Append(date time.Time, values map[string]float64) {
	p.Dates = append(p.Dates, date)
	p.Values = append(p.Values, values)
}

// Len returns the number of date rows.
func (p *Panel) Len() int {
	return len(p.Dates)
}

// Row returns the value map for date index i.
func (p *Panel) Row(i int) map[string]float64 {
	return p.Values[i]
}

// Validate checks the panel invariants: parallel slices, strictly
// ascending dates, no duplicates. The core never fabricates missing
// trading days, so a malformed calendar fails here before any strategy
// code runs.
func (p *Panel) Validate() error {
	if len(p.Dates) != len(p.Values) {
		return fmt.Errorf("panel has %d dates but %d value rows", len(p.Dates), len(p.Values))
	}

	for i := 1; i < len(p.Dates); i++ {
		if !p.Dates[i].After(p.Dates[i-1]) {
			return fmt.Errorf("panel dates not strictly ascending at index %d: %s then %s",
				i, p.Dates[i-1].Format("2006-01-02"), p.Dates[i].Format("2006-01-02"))
		}
	}

	return nil
}

// Instruments returns the sorted union of all instruments appearing in the
// panel. Sorted so downstream iteration is deterministic.
func (p *Panel) Instruments() []string {
	seen := make(map[string]struct{})
	for _, row := range p.Values {
		for symbol := range row {
			seen[symbol] = struct{}{}
		}
	}

	symbols := make([]string, 0, len(seen))
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	return symbols
}

// Slice returns the sub-panel with dates in [from, to] inclusive.
func (p *Panel) Slice(from, to time.Time) *Panel {
	out := NewPanel(0)
	for i, d := range p.Dates {
		if d.Before(from) || d.After(to) {
			continue
		}
		out.Append(d, p.Values[i])
	}
	return out
}

// Series extracts the dense per-instrument series for one symbol. The
// returned ok slice marks dates where the instrument had a value.
func (p *Panel) Series(symbol string) (values []float64, ok []bool) {
	values = make([]float64, len(p.Dates))
	ok = make([]bool, len(p.Dates))
	for i, row := range p.Values {
		if v, found := row[symbol]; found {
			values[i] = v
			ok[i] = true
		}
	}
	return values, ok
}

// PriceSeries is a date-ordered benchmark close series used by the regime
// filter.
type PriceSeries struct {
	Dates []time.Time
	Close []float64
}

// Validate checks series invariants: parallel slices, strictly ascending
// dates, positive prices.
func (s *PriceSeries) Validate() error {
	if len(s.Dates) != len(s.Close) {
		return fmt.Errorf("price series has %d dates but %d closes", len(s.Dates), len(s.Close))
	}

	for i := range s.Dates {
		if i > 0 && !s.Dates[i].After(s.Dates[i-1]) {
			return fmt.Errorf("price series dates not strictly ascending at index %d", i)
		}
		if s.Close[i] <= 0 {
			return fmt.Errorf("non-positive close %.4f at %s", s.Close[i], s.Dates[i].Format("2006-01-02"))
		}
	}

	return nil
}

// Len returns the number of observations.
func (s *PriceSeries) Len() int {
	return len(s.Dates)
}

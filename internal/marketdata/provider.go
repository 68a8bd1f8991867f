package marketdata

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/delorean-quant/delorean/internal/contracts"
)

// PanelProvider supplies the price data the strategy consumes. The
// engine only ever asks for closes; bar-level detail stays behind this
// boundary.
type PanelProvider interface {
	// ClosePanel returns daily closes for the symbols over [from, to].
	ClosePanel(ctx context.Context, symbols []string, from, to time.Time) (*contracts.Panel, error)
	// Benchmark returns the benchmark close series over [from, to].
	Benchmark(ctx context.Context, symbol string, from, to time.Time) (contracts.PriceSeries, error)
}

// BarSource fetches raw daily bars for one symbol.
type BarSource interface {
	DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]*contracts.Bar, error)
}

// CheckCalendar verifies that the benchmark covers every panel date.
// The regime filter needs a benchmark close on every trading day, so a
// hole here fails fast instead of mid-simulation.
func CheckCalendar(panel *contracts.Panel, bench contracts.PriceSeries) error {
	have := make(map[string]struct{}, bench.Len())
	for _, d := range bench.Dates {
		have[d.Format("2006-01-02")] = struct{}{}
	}
	for _, d := range panel.Dates {
		key := d.Format("2006-01-02")
		if _, found := have[key]; !found {
			return fmt.Errorf("benchmark is missing trading day %s", key)
		}
	}
	return nil
}

// PanelFromBars pivots per-symbol bars into a close panel.
func PanelFromBars(barsBySymbol map[string][]*contracts.Bar) (*contracts.Panel, error) {
	closes := make(map[string]map[string]float64) // date key -> symbol -> close
	dates := make(map[string]time.Time)
	for symbol, bars := range barsBySymbol {
		for _, bar := range bars {
			key := bar.Date.Format("2006-01-02")
			if _, found := closes[key]; !found {
				closes[key] = make(map[string]float64)
				dates[key] = bar.Date
			}
			closes[key][symbol] = bar.Close
		}
	}

	keys := make([]string, 0, len(closes))
	for key := range closes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	panel := contracts.NewPanel(len(keys))
	for _, key := range keys {
		panel.Append(dates[key], closes[key])
	}
	if err := panel.Validate(); err != nil {
		return nil, err
	}
	return panel, nil
}

// SeriesFromBars extracts a close series from one symbol's bars.
func SeriesFromBars(bars []*contracts.Bar) (contracts.PriceSeries, error) {
	series := contracts.PriceSeries{
		Dates: make([]time.Time, 0, len(bars)),
		Close: make([]float64, 0, len(bars)),
	}
	for _, bar := range bars {
		series.Dates = append(series.Dates, bar.Date)
		series.Close = append(series.Close, bar.Close)
	}
	if err := series.Validate(); err != nil {
		return contracts.PriceSeries{}, err
	}
	return series, nil
}

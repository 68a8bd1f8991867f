package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/delorean-quant/delorean/internal/contracts"
)

// FeedProvider adapts a BarSource (live feed or bar repository) into a
// PanelProvider.
type FeedProvider struct {
	source BarSource
}

func NewFeedProvider(source BarSource) *FeedProvider {
	return &FeedProvider{source: source}
}

func (p *FeedProvider) ClosePanel(ctx context.Context, symbols []string, from, to time.Time) (*contracts.Panel, error) {
	barsBySymbol := make(map[string][]*contracts.Bar, len(symbols))
	for _, symbol := range symbols {
		bars, err := p.source.DailyBars(ctx, symbol, from, to)
		if err != nil {
			return nil, fmt.Errorf("bars for %s: %w", symbol, err)
		}
		barsBySymbol[symbol] = bars
	}
	return PanelFromBars(barsBySymbol)
}

func (p *FeedProvider) Benchmark(ctx context.Context, symbol string, from, to time.Time) (contracts.PriceSeries, error) {
	bars, err := p.source.DailyBars(ctx, symbol, from, to)
	if err != nil {
		return contracts.PriceSeries{}, fmt.Errorf("benchmark bars for %s: %w", symbol, err)
	}
	return SeriesFromBars(bars)
}

package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/delorean-quant/delorean/internal/contracts"
)

// CSVProvider reads per-symbol bar files from a directory. Used for
// offline backtests and test fixtures; file layout is <symbol>.csv with
// a header row and date,open,high,low,close,volume columns.
type CSVProvider struct {
	dir string
}

func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

func (p *CSVProvider) ClosePanel(_ context.Context, symbols []string, from, to time.Time) (*contracts.Panel, error) {
	barsBySymbol := make(map[string][]*contracts.Bar, len(symbols))
	for _, symbol := range symbols {
		bars, err := p.readFile(symbol, from, to)
		if err != nil {
			return nil, err
		}
		barsBySymbol[symbol] = bars
	}
	return PanelFromBars(barsBySymbol)
}

func (p *CSVProvider) Benchmark(_ context.Context, symbol string, from, to time.Time) (contracts.PriceSeries, error) {
	bars, err := p.readFile(symbol, from, to)
	if err != nil {
		return contracts.PriceSeries{}, err
	}
	return SeriesFromBars(bars)
}

func (p *CSVProvider) readFile(symbol string, from, to time.Time) ([]*contracts.Bar, error) {
	path := filepath.Join(p.dir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bar file for %s: %w", symbol, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s has no data rows", path)
	}

	bars := make([]*contracts.Bar, 0, len(records)-1)
	for i, rec := range records[1:] { // skip header
		if len(rec) < 6 {
			return nil, fmt.Errorf("%s row %d: expected 6 columns, got %d", path, i+2, len(rec))
		}
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad date %q: %w", path, i+2, rec[0], err)
		}
		if date.Before(from) || date.After(to) {
			continue
		}

		var values [5]float64
		for j := 1; j <= 5; j++ {
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d col %d: %w", path, i+2, j+1, err)
			}
			values[j-1] = v
		}
		bars = append(bars, &contracts.Bar{
			Symbol: symbol,
			Date:   date,
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}
	return bars, nil
}

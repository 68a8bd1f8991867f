package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delorean-quant/delorean/internal/contracts"
)

func d(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestPanelFromBars(t *testing.T) {
	bars := map[string][]*contracts.Bar{
		"AAA": {
			{Symbol: "AAA", Date: d("2025-01-02"), Close: 10},
			{Symbol: "AAA", Date: d("2025-01-03"), Close: 11},
		},
		"BBB": {
			{Symbol: "BBB", Date: d("2025-01-03"), Close: 20},
		},
	}

	panel, err := PanelFromBars(bars)

	require.NoError(t, err)
	require.Equal(t, 2, panel.Len())
	assert.Equal(t, map[string]float64{"AAA": 10}, panel.Row(0))
	assert.Equal(t, map[string]float64{"AAA": 11, "BBB": 20}, panel.Row(1))
}

func TestSeriesFromBarsRejectsNonPositiveClose(t *testing.T) {
	_, err := SeriesFromBars([]*contracts.Bar{
		{Symbol: "AAA", Date: d("2025-01-02"), Close: 0},
	})

	assert.Error(t, err)
}

func TestCheckCalendar(t *testing.T) {
	panel := contracts.NewPanel(2)
	panel.Append(d("2025-01-02"), map[string]float64{"AAA": 10})
	panel.Append(d("2025-01-03"), map[string]float64{"AAA": 11})

	full := contracts.PriceSeries{
		Dates: []time.Time{d("2025-01-02"), d("2025-01-03")},
		Close: []float64{100, 101},
	}
	assert.NoError(t, CheckCalendar(panel, full))

	holey := contracts.PriceSeries{
		Dates: []time.Time{d("2025-01-02")},
		Close: []float64{100},
	}
	err := CheckCalendar(panel, holey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2025-01-03")
}

func writeCSV(t *testing.T, dir, symbol, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(content), 0o644))
}

func TestCSVProviderClosePanel(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "AAA", "date,open,high,low,close,volume\n2025-01-02,9,11,8,10,1000\n2025-01-03,10,12,9,11,1100\n")
	writeCSV(t, dir, "BBB", "date,open,high,low,close,volume\n2025-01-02,19,21,18,20,500\n2025-01-03,20,22,19,21,600\n")

	p := NewCSVProvider(dir)
	panel, err := p.ClosePanel(context.Background(), []string{"AAA", "BBB"}, d("2025-01-01"), d("2025-01-31"))

	require.NoError(t, err)
	require.Equal(t, 2, panel.Len())
	assert.Equal(t, map[string]float64{"AAA": 10, "BBB": 20}, panel.Row(0))
}

func TestCSVProviderDateFilter(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "AAA", "date,open,high,low,close,volume\n2025-01-02,9,11,8,10,1000\n2025-02-03,10,12,9,11,1100\n")

	p := NewCSVProvider(dir)
	series, err := p.Benchmark(context.Background(), "AAA", d("2025-02-01"), d("2025-02-28"))

	require.NoError(t, err)
	require.Equal(t, 1, series.Len())
	assert.Equal(t, 11.0, series.Close[0])
}

func TestCSVProviderMissingFile(t *testing.T) {
	p := NewCSVProvider(t.TempDir())

	_, err := p.ClosePanel(context.Background(), []string{"NOPE"}, d("2025-01-01"), d("2025-01-31"))

	assert.Error(t, err)
}

func TestCSVProviderBadRow(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "AAA", "date,open,high,low,close,volume\n2025-01-02,9,11,8,x,1000\n")

	p := NewCSVProvider(dir)
	_, err := p.ClosePanel(context.Background(), []string{"AAA"}, d("2025-01-01"), d("2025-01-31"))

	assert.Error(t, err)
}

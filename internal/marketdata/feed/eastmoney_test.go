package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delorean-quant/delorean/pkg/config"
	"github.com/delorean-quant/delorean/pkg/logger"
)

func TestSecID(t *testing.T) {
	cases := []struct {
		symbol string
		want   string
	}{
		{"510300.SH", "1.510300"},
		{"159915.SZ", "0.159915"},
		{"510300", "1.510300"},
		{"159915", "0.159915"},
		{"600000", "1.600000"},
	}
	for _, tc := range cases {
		got, err := secID(tc.symbol)
		require.NoError(t, err, tc.symbol)
		assert.Equal(t, tc.want, got, tc.symbol)
	}

	_, err := secID("51030")
	assert.Error(t, err)

	_, err = secID("510300.XX")
	assert.Error(t, err)
}

func TestParseKline(t *testing.T) {
	bar, err := parseKline("510300.SH", "2025-03-03,3.95,3.98,3.99,3.93,1234567")

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), bar.Date)
	assert.Equal(t, 3.95, bar.Open)
	assert.Equal(t, 3.98, bar.Close)
	assert.Equal(t, 3.99, bar.High)
	assert.Equal(t, 3.93, bar.Low)
	assert.Equal(t, 1234567.0, bar.Volume)
}

func TestParseKlineMalformed(t *testing.T) {
	_, err := parseKline("510300.SH", "2025-03-03,3.95")
	assert.Error(t, err)

	_, err = parseKline("510300.SH", "not-a-date,1,2,3,4,5")
	assert.Error(t, err)
}

func TestDailyBarsFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1.510300", r.URL.Query().Get("secid"))
		assert.Equal(t, "101", r.URL.Query().Get("klt"))
		json.NewEncoder(w).Encode(klineResponse{Data: &klineData{
			Code: "510300",
			Klines: []string{
				"2025-03-03,3.95,3.98,3.99,3.93,1000",
				"2025-03-04,3.98,4.00,4.01,3.97,1100",
			},
		}})
	}))
	defer srv.Close()

	f := NewEastmoneyFeed(config.FeedConfig{BaseURL: srv.URL, RatePerSecond: 100}, logger.Nop())
	bars, err := f.DailyBars(context.Background(), "510300.SH",
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 3.98, bars[0].Close)
	assert.Equal(t, "510300.SH", bars[0].Symbol)
}

func TestDailyBarsEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(klineResponse{})
	}))
	defer srv.Close()

	f := NewEastmoneyFeed(config.FeedConfig{BaseURL: srv.URL, RatePerSecond: 100}, logger.Nop())
	_, err := f.DailyBars(context.Background(), "510300.SH",
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))

	assert.Error(t, err)
}

func TestNameDirectoryFetch(t *testing.T) {
	page := `<html><body><table>
		<tr><th>code</th><th>name</th></tr>
		<tr><td>510300</td><td>CSI 300 ETF</td></tr>
		<tr><td>159915</td><td>ChiNext ETF</td></tr>
	</table></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	dir := NewNameDirectory(config.FeedConfig{DirectoryURL: srv.URL, RatePerSecond: 100}, logger.Nop())
	names, err := dir.Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "CSI 300 ETF", names["510300"])
	assert.Equal(t, "ChiNext ETF", Lookup(names, "510300.SH"))
	assert.Equal(t, "000000.SH", Lookup(names, "000000.SH"))
}

func TestNameDirectoryEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body></body></html>"))
	}))
	defer srv.Close()

	dir := NewNameDirectory(config.FeedConfig{DirectoryURL: srv.URL, RatePerSecond: 100}, logger.Nop())
	_, err := dir.Fetch(context.Background())

	assert.Error(t, err)
}

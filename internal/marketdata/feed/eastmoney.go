package feed

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/pkg/config"
	"github.com/delorean-quant/delorean/pkg/httputil"
	"github.com/delorean-quant/delorean/pkg/logger"
)

// EastmoneyFeed downloads daily ETF bars from the Eastmoney kline API.
// Requests are rate limited to stay friendly with the public endpoint.
type EastmoneyFeed struct {
	baseURL string
	client  *httputil.Client
	logger  *logger.Logger
}

type klineResponse struct {
	Data *klineData `json:"data"`
}

type klineData struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Klines []string `json:"klines"`
}

func NewEastmoneyFeed(cfg config.FeedConfig, log *logger.Logger) *EastmoneyFeed {
	return &EastmoneyFeed{
		baseURL: cfg.BaseURL,
		client:  httputil.New(log).WithRateLimit(cfg.RatePerSecond),
		logger:  log,
	}
}

// secID maps an exchange-suffixed or bare symbol to Eastmoney's secid
// form: market prefix 1 for Shanghai, 0 for Shenzhen.
func secID(symbol string) (string, error) {
	code := symbol
	market := ""
	if i := strings.IndexByte(symbol, '.'); i >= 0 {
		code = symbol[:i]
		market = strings.ToUpper(symbol[i+1:])
	}
	if len(code) != 6 {
		return "", fmt.Errorf("symbol %q is not a 6 digit instrument code", symbol)
	}

	switch market {
	case "SH":
		return "1." + code, nil
	case "SZ":
		return "0." + code, nil
	case "":
		// Shanghai ETFs start with 5, Shenzhen with 1.
		if strings.HasPrefix(code, "5") || strings.HasPrefix(code, "6") {
			return "1." + code, nil
		}
		return "0." + code, nil
	default:
		return "", fmt.Errorf("unknown market suffix %q in symbol %q", market, symbol)
	}
}

// DailyBars fetches forward-adjusted daily bars for [from, to].
func (f *EastmoneyFeed) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]*contracts.Bar, error) {
	sid, err := secID(symbol)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("secid", sid)
	params.Set("fields1", "f1,f2,f3,f4,f5,f6")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56")
	params.Set("klt", "101") // daily
	params.Set("fqt", "1")   // forward adjusted
	params.Set("beg", from.Format("20060102"))
	params.Set("end", to.Format("20060102"))

	var resp klineResponse
	endpoint := f.baseURL + "/api/qt/stock/kline/get?" + params.Encode()
	if err := f.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("eastmoney klines for %s: %w", symbol, err)
	}
	if resp.Data == nil || len(resp.Data.Klines) == 0 {
		return nil, fmt.Errorf("eastmoney returned no bars for %s in %s..%s",
			symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	bars := make([]*contracts.Bar, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		bar, err := parseKline(symbol, line)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}

	f.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"bars":   len(bars),
	}).Debug("Fetched daily bars")

	return bars, nil
}

// parseKline decodes one "date,open,close,high,low,volume" line.
func parseKline(symbol, line string) (*contracts.Bar, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 6 {
		return nil, fmt.Errorf("malformed kline for %s: %q", symbol, line)
	}

	date, err := time.Parse("2006-01-02", fields[0])
	if err != nil {
		return nil, fmt.Errorf("kline for %s has bad date %q: %w", symbol, fields[0], err)
	}

	var values [5]float64
	for i := 1; i <= 5; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("kline for %s field %d: %w", symbol, i, err)
		}
		values[i-1] = v
	}

	return &contracts.Bar{
		Symbol: symbol,
		Date:   date,
		Open:   values[0],
		Close:  values[1],
		High:   values[2],
		Low:    values[3],
		Volume: values[4],
	}, nil
}

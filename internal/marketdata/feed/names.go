package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/delorean-quant/delorean/pkg/config"
	"github.com/delorean-quant/delorean/pkg/httputil"
	"github.com/delorean-quant/delorean/pkg/logger"
)

// NameDirectory scrapes the Eastmoney ETF listing page for instrument
// display names. Names are cosmetic; a missing entry falls back to the
// symbol itself downstream.
type NameDirectory struct {
	url    string
	client *httputil.Client
	logger *logger.Logger
}

func NewNameDirectory(cfg config.FeedConfig, log *logger.Logger) *NameDirectory {
	return &NameDirectory{
		url:    cfg.DirectoryURL,
		client: httputil.New(log).WithRateLimit(cfg.RatePerSecond),
		logger: log,
	}
}

// Fetch returns symbol -> display name for every ETF row on the page.
func (n *NameDirectory) Fetch(ctx context.Context) (map[string]string, error) {
	resp, err := n.client.Get(ctx, n.url)
	if err != nil {
		return nil, fmt.Errorf("fetch ETF directory: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse ETF directory: %w", err)
	}

	names := make(map[string]string)
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		code := strings.TrimSpace(cells.Eq(0).Text())
		name := strings.TrimSpace(cells.Eq(1).Text())
		if len(code) == 6 && name != "" {
			names[code] = name
		}
	})
	if len(names) == 0 {
		return nil, fmt.Errorf("ETF directory page had no recognizable rows")
	}

	n.logger.WithFields(map[string]interface{}{"etfs": len(names)}).Debug("Fetched ETF name directory")

	return names, nil
}

// Lookup resolves one symbol's display name from a fetched directory,
// tolerating exchange suffixes, falling back to the symbol.
func Lookup(names map[string]string, symbol string) string {
	code := symbol
	if i := strings.IndexByte(symbol, '.'); i >= 0 {
		code = symbol[:i]
	}
	if name, found := names[code]; found {
		return name
	}
	return symbol
}

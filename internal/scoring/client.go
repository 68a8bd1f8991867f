package scoring

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/pkg/config"
	"github.com/delorean-quant/delorean/pkg/httputil"
	"github.com/delorean-quant/delorean/pkg/logger"
)

// HTTPOracle talks to the external model service. Training runs are
// slow, so the client timeout comes from config rather than a default.
type HTTPOracle struct {
	baseURL string
	client  *httputil.Client
	logger  *logger.Logger
}

type scoreRequest struct {
	Instruments []string `json:"instruments"`
	TrainStart  string   `json:"train_start"`
	TrainEnd    string   `json:"train_end"`
	PredStart   string   `json:"pred_start"`
	PredEnd     string   `json:"pred_end"`
}

type scoreResponse struct {
	Rows []scoreRow `json:"rows"`
}

type scoreRow struct {
	Date   string             `json:"date"`
	Scores map[string]float64 `json:"scores"`
}

func NewHTTPOracle(cfg config.OracleConfig, log *logger.Logger) *HTTPOracle {
	return &HTTPOracle{
		baseURL: cfg.BaseURL,
		client:  httputil.New(log).WithTimeout(cfg.Timeout),
		logger:  log,
	}
}

// Scores requests a score panel from the model service. The request is
// validated before any network traffic.
func (o *HTTPOracle) Scores(ctx context.Context, req Request) (*contracts.Panel, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring request: %w", err)
	}

	wire := scoreRequest{
		Instruments: req.Instruments,
		TrainStart:  req.TrainStart.Format("2006-01-02"),
		TrainEnd:    req.TrainEnd.Format("2006-01-02"),
		PredStart:   req.PredStart.Format("2006-01-02"),
		PredEnd:     req.PredEnd.Format("2006-01-02"),
	}

	o.logger.WithFields(map[string]interface{}{
		"train_start": wire.TrainStart,
		"train_end":   wire.TrainEnd,
		"pred_start":  wire.PredStart,
		"pred_end":    wire.PredEnd,
		"instruments": len(req.Instruments),
	}).Info("Requesting model scores")

	var resp scoreResponse
	if err := o.client.PostJSON(ctx, o.baseURL+"/v1/scores", wire, &resp); err != nil {
		return nil, fmt.Errorf("score service: %w", err)
	}
	if len(resp.Rows) == 0 {
		return nil, fmt.Errorf("score service returned no rows for %s..%s", wire.PredStart, wire.PredEnd)
	}

	sort.Slice(resp.Rows, func(i, j int) bool { return resp.Rows[i].Date < resp.Rows[j].Date })

	panel := contracts.NewPanel(len(resp.Rows))
	for _, row := range resp.Rows {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			return nil, fmt.Errorf("score service returned bad date %q: %w", row.Date, err)
		}
		if date.Before(req.PredStart) || date.After(req.PredEnd) {
			return nil, fmt.Errorf("score service returned out-of-range date %s", row.Date)
		}
		panel.Append(date, row.Scores)
	}
	if err := panel.Validate(); err != nil {
		return nil, fmt.Errorf("score panel from service: %w", err)
	}

	return panel, nil
}

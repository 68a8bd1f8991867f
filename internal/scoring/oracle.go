package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/delorean-quant/delorean/internal/contracts"
)

// Oracle is the boundary to the score model. The engine never sees how
// scores are produced; it only receives a panel for the requested
// prediction range.
type Oracle interface {
	Scores(ctx context.Context, req Request) (*contracts.Panel, error)
}

// Request describes one scoring call: the training window the model may
// fit on and the prediction range it must score.
type Request struct {
	Instruments []string  `json:"instruments"`
	TrainStart  time.Time `json:"train_start"`
	TrainEnd    time.Time `json:"train_end"`
	PredStart   time.Time `json:"pred_start"`
	PredEnd     time.Time `json:"pred_end"`
}

// Validate rejects malformed windows. The training window overlapping
// the prediction range would leak future information into the model, so
// that is fatal here rather than a warning.
func (r Request) Validate() error {
	if len(r.Instruments) == 0 {
		return fmt.Errorf("scoring request has no instruments")
	}
	if !r.TrainStart.Before(r.TrainEnd) {
		return fmt.Errorf("train window start %s is not before end %s",
			r.TrainStart.Format("2006-01-02"), r.TrainEnd.Format("2006-01-02"))
	}
	if !r.PredStart.Before(r.PredEnd) && !r.PredStart.Equal(r.PredEnd) {
		return fmt.Errorf("prediction range start %s is after end %s",
			r.PredStart.Format("2006-01-02"), r.PredEnd.Format("2006-01-02"))
	}
	if !r.TrainEnd.Before(r.PredStart) {
		return fmt.Errorf("train window ends %s, on or after prediction start %s: look-ahead leak",
			r.TrainEnd.Format("2006-01-02"), r.PredStart.Format("2006-01-02"))
	}
	return nil
}

package walkforward

import (
	"fmt"
	"time"
)

// Window is one train/predict fold. The train window ends strictly
// before the prediction range starts.
type Window struct {
	TrainStart time.Time
	TrainEnd   time.Time
	PredStart  time.Time
	PredEnd    time.Time
}

func (w Window) String() string {
	return fmt.Sprintf("train %s..%s predict %s..%s",
		w.TrainStart.Format("2006-01-02"), w.TrainEnd.Format("2006-01-02"),
		w.PredStart.Format("2006-01-02"), w.PredEnd.Format("2006-01-02"))
}

// Validate checks fold invariants.
func (w Window) Validate() error {
	if !w.TrainStart.Before(w.TrainEnd) {
		return fmt.Errorf("window %s: empty train range", w)
	}
	if !w.TrainEnd.Before(w.PredStart) {
		return fmt.Errorf("window %s: train range overlaps prediction range", w)
	}
	if w.PredEnd.Before(w.PredStart) {
		return fmt.Errorf("window %s: empty prediction range", w)
	}
	return nil
}

// Windows generates rolling folds covering [start, end]. Each fold
// trains on trainMonths of history and predicts the following
// stepMonths; the train window then rolls forward by stepMonths. The
// last fold's prediction range is clamped to end.
func Windows(start, end time.Time, trainMonths, stepMonths int) ([]Window, error) {
	if trainMonths <= 0 || stepMonths <= 0 {
		return nil, fmt.Errorf("train and step months must be positive, got %d and %d", trainMonths, stepMonths)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("start %s is not before end %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	var windows []Window
	trainStart := start
	for {
		trainEnd := trainStart.AddDate(0, trainMonths, 0).AddDate(0, 0, -1)
		predStart := trainEnd.AddDate(0, 0, 1)
		if predStart.After(end) {
			break
		}
		predEnd := predStart.AddDate(0, stepMonths, 0).AddDate(0, 0, -1)
		if predEnd.After(end) {
			predEnd = end
		}

		w := Window{TrainStart: trainStart, TrainEnd: trainEnd, PredStart: predStart, PredEnd: predEnd}
		if err := w.Validate(); err != nil {
			return nil, err
		}
		windows = append(windows, w)

		trainStart = trainStart.AddDate(0, stepMonths, 0)
	}

	if len(windows) == 0 {
		return nil, fmt.Errorf("range %s..%s too short for a %d month train window",
			start.Format("2006-01-02"), end.Format("2006-01-02"), trainMonths)
	}

	return windows, nil
}

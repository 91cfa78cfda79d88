// Package progress computes progress snapshots for batch jobs. Everything here is a
// pure function of its arguments.
package progress

import (
	"math"
	"time"

	"github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
)

// Compute builds a progress snapshot.
// Percentage is 100*(completed+failed)/total rounded to two decimals and clamped to
// [0,100]; it is 0 whenever total is 0.
func Compute(total, completed, failed int, currentItem string) model.Progress {
	return model.Progress{
		Total:       total,
		Completed:   completed,
		Failed:      failed,
		Percentage:  Percentage(total, completed+failed),
		CurrentItem: currentItem,
	}
}

// Percentage returns 100*processed/total, clamped to [0,100].
func Percentage(total, processed int) float64 {
	if total <= 0 {
		return 0
	}
	p := 100 * float64(processed) / float64(total)
	p = math.Round(p*100) / 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// EstimateRemaining extrapolates the remaining time from the average duration of
// the items processed so far. It returns nil until at least one item is done.
func EstimateRemaining(elapsed time.Duration, processed, total int) *time.Duration {
	if processed <= 0 || total <= 0 {
		return nil
	}
	remaining := total - processed
	if remaining < 0 {
		remaining = 0
	}
	est := time.Duration(int64(elapsed) / int64(processed) * int64(remaining))
	return &est
}

// Advance returns the snapshot after one more item finished, carrying the elapsed time
// estimate along.
func Advance(prev model.Progress, succeeded bool, elapsed time.Duration) model.Progress {
	completed, failed := prev.Completed, prev.Failed
	if succeeded {
		completed++
	} else {
		failed++
	}
	next := Compute(prev.Total, completed, failed, prev.CurrentItem)
	next.EstimatedTimeRemaining = EstimateRemaining(elapsed, completed+failed, prev.Total)
	return next
}

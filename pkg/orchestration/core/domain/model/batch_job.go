package model

import (
	"fmt"
	"time"

	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// Progress is a snapshot of how far a batch job has advanced.
type Progress struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	Percentage  float64 `json:"percentage"`
	CurrentItem string  `json:"currentItem,omitempty"`
	// EstimatedTimeRemaining is nil until at least one item has been processed.
	EstimatedTimeRemaining *time.Duration `json:"estimatedTimeRemaining,omitempty"`
}

// Processed returns the number of items attempted so far.
func (p Progress) Processed() int {
	return p.Completed + p.Failed
}

// ItemOutput records the outputs produced for one successfully processed item.
type ItemOutput struct {
	Item    string   `json:"item"`
	Outputs []string `json:"outputs"`
}

// ItemError records why one item failed.
type ItemError struct {
	Item  string `json:"item"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

// BatchResult is the aggregate outcome of a batch job. It is set once, when the job
// reaches a terminal state.
type BatchResult struct {
	Success             bool          `json:"success"`
	OutputFiles         []ItemOutput  `json:"outputFiles"`
	FailedFiles         []string      `json:"failedFiles"`
	Errors              []ItemError   `json:"errors"`
	TotalProcessingTime time.Duration `json:"totalProcessingTime"`
}

// BatchJob is a flat list of independent items processed against one operation.
type BatchJob struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	Operation       string                 `json:"operation"`
	InputItems      []string               `json:"inputItems"`
	OutputDirectory string                 `json:"outputDirectory"`
	Options         map[string]interface{} `json:"options"`
	StopOnError     bool                   `json:"stopOnError"`
	Status          JobStatus              `json:"status"`
	Progress        Progress               `json:"progress"`
	Result          *BatchResult           `json:"result,omitempty"`
	// Attempt starts at 1 and is incremented by every retry.
	Attempt     int        `json:"attempt"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// NewBatchJob creates a PENDING batch job with a fresh progress snapshot.
func NewBatchJob(name, operation string, items []string, outputDir string, options map[string]interface{}, stopOnError bool) *BatchJob {
	now := time.Now()
	if name == "" {
		name = fmt.Sprintf("%s-batch", operation)
	}
	return &BatchJob{
		ID:              NewID(),
		Name:            name,
		Operation:       operation,
		InputItems:      append([]string(nil), items...),
		OutputDirectory: outputDir,
		Options:         CopyMap(options),
		StopOnError:     stopOnError,
		Status:          StatusPending,
		Progress:        Progress{Total: len(items)},
		Attempt:         1,
		CreatedAt:       now,
		LastUpdated:     now,
	}
}

// TransitionTo safely transitions the state of the BatchJob.
func (j *BatchJob) TransitionTo(newStatus JobStatus) error {
	if !isValidJobTransition(j.Status, newStatus) {
		return exception.NewOrchestrationErrorf("batch_job", exception.CodeInvalidState,
			"BatchJob (ID: %s): Invalid state transition: %s -> %s", j.ID, j.Status, newStatus)
	}
	j.Status = newStatus
	j.LastUpdated = time.Now()
	return nil
}

// MarkAsStarted moves the job to RUNNING and records the start time.
func (j *BatchJob) MarkAsStarted() error {
	if err := j.TransitionTo(StatusRunning); err != nil {
		return err
	}
	now := time.Now()
	j.StartedAt = &now
	return nil
}

// Finish moves a job to a terminal status and freezes its result.
func (j *BatchJob) Finish(status JobStatus, result *BatchResult) error {
	if !status.IsFinished() {
		return exception.NewOrchestrationErrorf("batch_job", exception.CodeInvalidState,
			"BatchJob (ID: %s): %s is not a terminal status", j.ID, status)
	}
	if err := j.TransitionTo(status); err != nil {
		return err
	}
	now := time.Now()
	j.CompletedAt = &now
	j.Progress.CurrentItem = ""
	j.Result = result
	return nil
}

// MarkAsCancelled cancels a job that has not started yet.
func (j *BatchJob) MarkAsCancelled() error {
	return j.Finish(StatusCancelled, &BatchResult{Success: false})
}

// ResetForRetry re-enters PENDING from FAILED with a fresh progress snapshot.
// The item list is never modified.
func (j *BatchJob) ResetForRetry() error {
	if j.Status != StatusFailed {
		return exception.NewOrchestrationErrorf("batch_job", exception.CodeInvalidState,
			"BatchJob (ID: %s): only FAILED jobs can be retried (current: %s)", j.ID, j.Status)
	}
	if err := j.TransitionTo(StatusPending); err != nil {
		return err
	}
	j.Progress = Progress{Total: len(j.InputItems)}
	j.Result = nil
	j.StartedAt = nil
	j.CompletedAt = nil
	j.Attempt++
	logger.Debugf("BatchJob (ID: %s) reset for retry, attempt %d.", j.ID, j.Attempt)
	return nil
}

// Clone returns a deep copy of the job, so callers never share state with the scheduler.
func (j *BatchJob) Clone() *BatchJob {
	if j == nil {
		return nil
	}
	c := *j
	c.InputItems = append([]string(nil), j.InputItems...)
	c.Options = CopyMap(j.Options)
	c.Progress.EstimatedTimeRemaining = copyDuration(j.Progress.EstimatedTimeRemaining)
	c.StartedAt = copyTime(j.StartedAt)
	c.CompletedAt = copyTime(j.CompletedAt)
	if j.Result != nil {
		r := *j.Result
		r.OutputFiles = make([]ItemOutput, len(j.Result.OutputFiles))
		for i, o := range j.Result.OutputFiles {
			r.OutputFiles[i] = ItemOutput{Item: o.Item, Outputs: append([]string(nil), o.Outputs...)}
		}
		r.FailedFiles = append([]string(nil), j.Result.FailedFiles...)
		r.Errors = append([]ItemError(nil), j.Result.Errors...)
		c.Result = &r
	}
	return &c
}

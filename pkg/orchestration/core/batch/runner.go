// Package batch implements the Batch Scheduler: it drives one BatchJob through its
// items against a single operation handler.
package batch

import (
	"context"
	"time"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	repository "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/repository"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/handler"
	metrics "github.com/tigerroll/pdfflow/pkg/orchestration/core/metrics"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/progress"
	exception "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/serialization"
)

const moduleName = "batch_runner"

// Options tunes a Runner.
type Options struct {
	// HandlerTimeout bounds every handler call. Zero disables the bound.
	HandlerTimeout time.Duration
	// MaskedOptionKeys are option keys whose values never appear in logs.
	MaskedOptionKeys []string
}

// Runner executes batch jobs. A Runner is stateless between jobs and may run several
// jobs concurrently; each job is only ever mutated by the goroutine running it.
type Runner struct {
	store          repository.BatchJobRepository
	registry       handler.Registry
	listeners      *port.Listeners
	metricRecorder metrics.MetricRecorder
	tracer         metrics.Tracer
	opts           Options
}

// NewRunner creates a new Runner.
func NewRunner(
	store repository.BatchJobRepository,
	registry handler.Registry,
	listeners *port.Listeners,
	metricRecorder metrics.MetricRecorder,
	tracer metrics.Tracer,
	opts Options,
) *Runner {
	if metricRecorder == nil {
		metricRecorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &Runner{
		store:          store,
		registry:       registry,
		listeners:      listeners,
		metricRecorder: metricRecorder,
		tracer:         tracer,
		opts:           opts,
	}
}

// Run executes the PENDING batch job identified by jobID until it reaches a terminal
// status. Cancelling ctx requests cooperative cancellation: it is observed between
// items and never interrupts a handler call.
//
// Item failures are recorded in the job's result and are not returned. Run only
// returns an error when the job cannot be loaded, is not PENDING, or cannot be persisted.
func (r *Runner) Run(ctx context.Context, jobID string) error {
	// Persistence must survive cancellation of the run context.
	storeCtx := context.WithoutCancel(ctx)

	job, err := r.store.FindBatchJobByID(storeCtx, jobID)
	if err != nil {
		return exception.NewOrchestrationErrorf(moduleName, exception.CodeNotFound, "batch job '%s' not found", jobID, err)
	}
	if job.Status != model.StatusPending {
		return exception.NewOrchestrationErrorf(moduleName, exception.CodeInvalidState,
			"batch job '%s' cannot be run from status %s", job.ID, job.Status)
	}

	if ctx.Err() != nil {
		logger.Infof("Batch job '%s' (ID: %s) was cancelled before it started.", job.Name, job.ID)
		if err := job.MarkAsCancelled(); err != nil {
			return err
		}
		return r.finish(storeCtx, ctx, job)
	}

	h, err := r.registry.Lookup(job.Operation)
	if err != nil {
		logger.Errorf("Batch job '%s' (ID: %s): %v", job.Name, job.ID, err)
		result := &model.BatchResult{
			OutputFiles: []model.ItemOutput{},
			FailedFiles: []string{},
			Errors: []model.ItemError{{
				Error: exception.ExtractErrorMessage(err),
				Code:  string(exception.CodeOf(err)),
			}},
		}
		if ferr := job.Finish(model.StatusFailed, result); ferr != nil {
			return ferr
		}
		return r.finish(storeCtx, ctx, job)
	}

	ctx, finishSpan := r.tracer.StartBatchSpan(ctx, job)
	defer finishSpan()

	if err := job.MarkAsStarted(); err != nil {
		return err
	}
	if err := r.store.UpdateBatchJob(storeCtx, job); err != nil {
		return err
	}
	logger.Infof("Starting batch job '%s' (ID: %s, attempt %d): operation '%s', %d items, options: %s",
		job.Name, job.ID, job.Attempt, job.Operation, len(job.InputItems),
		serialization.MaskedString(job.Options, r.opts.MaskedOptionKeys))
	r.listeners.BeforeBatch(ctx, job)

	started := time.Now()
	result := &model.BatchResult{
		OutputFiles: []model.ItemOutput{},
		FailedFiles: []string{},
		Errors:      []model.ItemError{},
	}
	final := model.StatusCompleted

	for _, item := range job.InputItems {
		// Cancellation wins over stopOnError when both apply.
		if ctx.Err() != nil {
			logger.Warnf("Batch job '%s' (ID: %s): cancellation observed, %d of %d items left unprocessed.",
				job.Name, job.ID, job.Progress.Total-job.Progress.Processed(), job.Progress.Total)
			final = model.StatusCancelled
			break
		}
		if job.StopOnError && job.Progress.Failed > 0 {
			logger.Warnf("Batch job '%s' (ID: %s): stopping after first failure, %d items skipped.",
				job.Name, job.ID, job.Progress.Total-job.Progress.Processed())
			final = model.StatusFailed
			break
		}

		job.Progress.CurrentItem = item
		job.LastUpdated = time.Now()
		if err := r.store.UpdateBatchJob(storeCtx, job); err != nil {
			return err
		}

		outputs, itemErr := r.processItem(ctx, job, h, item)

		if ctx.Err() != nil {
			logger.Warnf("Batch job '%s' (ID: %s): result of item '%s' discarded after cancellation.", job.Name, job.ID, item)
			final = model.StatusCancelled
			break
		}

		job.Progress = progress.Advance(job.Progress, itemErr == nil, time.Since(started))
		job.LastUpdated = time.Now()
		if itemErr == nil {
			result.OutputFiles = append(result.OutputFiles, model.ItemOutput{Item: item, Outputs: outputs})
		} else {
			logger.Warnf("Batch job '%s' (ID: %s): item '%s' failed: %v", job.Name, job.ID, item, itemErr)
			result.FailedFiles = append(result.FailedFiles, item)
			result.Errors = append(result.Errors, model.ItemError{
				Item:  item,
				Error: exception.ExtractErrorMessage(itemErr),
				Code:  string(exception.CodeOf(itemErr)),
			})
		}
		if err := r.store.UpdateBatchJob(storeCtx, job); err != nil {
			return err
		}
	}

	if final == model.StatusCompleted && job.Progress.Failed > 0 {
		final = model.StatusFailed
	}
	result.Success = final == model.StatusCompleted
	result.TotalProcessingTime = time.Since(started)

	if err := job.Finish(final, result); err != nil {
		return err
	}
	return r.finish(storeCtx, ctx, job)
}

// processItem invokes the handler for one item. The handler error, if any, is
// returned as the item failure.
func (r *Runner) processItem(ctx context.Context, job *model.BatchJob, h handler.Handler, item string) ([]string, error) {
	itemCtx, endSpan := r.tracer.StartItemSpan(ctx, job, item)
	defer endSpan()

	begin := time.Now()
	resp, err := handler.Invoke(itemCtx, h, handler.Request{
		Operation:    job.Operation,
		Item:         item,
		OutputTarget: job.OutputDirectory,
		Options:      model.CopyMap(job.Options),
	}, r.opts.HandlerTimeout)

	code := ""
	if err != nil {
		code = string(exception.CodeOf(err))
		r.tracer.RecordError(itemCtx, moduleName, err)
	}
	r.metricRecorder.RecordItem(itemCtx, job.Operation, code, time.Since(begin))

	if err != nil {
		return nil, err
	}
	outputs := resp.Outputs
	if outputs == nil {
		outputs = []string{}
	}
	return outputs, nil
}

// finish persists the terminal job and notifies listeners.
func (r *Runner) finish(storeCtx, ctx context.Context, job *model.BatchJob) error {
	if err := r.store.UpdateBatchJob(storeCtx, job); err != nil {
		return err
	}
	r.listeners.AfterBatch(ctx, job)
	logger.Infof("Batch job '%s' (ID: %s) finished. Final Status: %s, Completed: %d, Failed: %d",
		job.Name, job.ID, job.Status, job.Progress.Completed, job.Progress.Failed)
	return nil
}

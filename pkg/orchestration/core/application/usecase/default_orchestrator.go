package usecase

import (
	"context"
	"errors"
	"sync"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	repository "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/repository"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/handler"
	"github.com/tigerroll/pdfflow/pkg/orchestration/component/item"
	exception "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/serialization"
)

const moduleName = "orchestrator"

// Options tunes a DefaultOrchestrator.
type Options struct {
	// DefaultPageSize is used by list operations when a filter has no page size.
	DefaultPageSize int
	// MaskedOptionKeys are option keys whose values never appear in logs.
	MaskedOptionKeys []string
}

// DefaultOrchestrator implements Orchestrator on top of a JobStore, a BatchRunner and
// a WorkflowExecutor. Executions are started through a Launcher.
type DefaultOrchestrator struct {
	// mu serializes state changes made through the facade (start, cancel, retry, delete),
	// so a check and the write that follows it see the same record.
	mu         sync.Mutex
	store      repository.JobStore
	operations handler.Registry
	runner     port.BatchRunner
	executor   port.WorkflowExecutor
	launcher   *Launcher
	opts       Options
}

// NewDefaultOrchestrator creates a new DefaultOrchestrator.
func NewDefaultOrchestrator(
	store repository.JobStore,
	operations handler.Registry,
	runner port.BatchRunner,
	executor port.WorkflowExecutor,
	launcher *Launcher,
	opts Options,
) *DefaultOrchestrator {
	if launcher == nil {
		launcher = NewLauncher(0)
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 20
	}
	return &DefaultOrchestrator{
		store:      store,
		operations: operations,
		runner:     runner,
		executor:   executor,
		launcher:   launcher,
		opts:       opts,
	}
}

// SubmitBatch implements Orchestrator.
func (o *DefaultOrchestrator) SubmitBatch(ctx context.Context, req BatchRequest) (string, error) {
	if req.Operation == "" {
		return "", exception.NewOrchestrationError(moduleName, exception.CodeValidation, "operation is required", nil)
	}
	if !o.operations.Has(req.Operation) {
		return "", exception.NewOrchestrationErrorf(moduleName, exception.CodeUnknownOperation, "unknown operation '%s'", req.Operation)
	}

	items := req.Items
	if req.ExpandPatterns {
		expanded, err := item.ExpandInputs(items)
		if err != nil {
			return "", err
		}
		items = expanded
	}

	job := model.NewBatchJob(req.Name, req.Operation, items, req.OutputDirectory, req.Options, req.StopOnError)
	if err := o.store.SaveBatchJob(ctx, job); err != nil {
		return "", err
	}
	logger.Infof("Submitted batch job '%s' (ID: %s): operation '%s', %d items, options: %s",
		job.Name, job.ID, job.Operation, len(job.InputItems),
		serialization.MaskedString(job.Options, o.opts.MaskedOptionKeys))

	if req.AutoStart {
		o.mu.Lock()
		defer o.mu.Unlock()
		if err := o.launchBatch(ctx, job.ID); err != nil {
			return job.ID, err
		}
	}
	return job.ID, nil
}

// StartBatch implements Orchestrator.
func (o *DefaultOrchestrator) StartBatch(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	job, err := o.findBatch(ctx, id)
	if err != nil {
		return err
	}
	if job.Status != model.StatusPending || o.launcher.IsActive(id) {
		return exception.NewOrchestrationErrorf(moduleName, exception.CodeInvalidState,
			"batch job '%s' cannot be started from status %s", id, job.Status)
	}
	return o.launchBatch(ctx, id)
}

func (o *DefaultOrchestrator) launchBatch(ctx context.Context, id string) error {
	_, err := o.launcher.Launch(ctx, id, func(runCtx context.Context) {
		if err := o.runner.Run(runCtx, id); err != nil {
			logger.Errorf("Batch job (ID: %s) ended with an error: %v", id, err)
		}
	})
	return err
}

// GetBatch implements Orchestrator.
func (o *DefaultOrchestrator) GetBatch(ctx context.Context, id string) (*model.BatchJob, error) {
	return o.findBatch(ctx, id)
}

// ListBatches implements Orchestrator.
func (o *DefaultOrchestrator) ListBatches(ctx context.Context, filter BatchFilter) (*BatchPage, error) {
	return o.store.ListBatchJobs(ctx, repository.BatchJobFilter{
		Statuses: filter.Statuses,
		Page:     filter.Page,
		PageSize: o.pageSize(filter.PageSize),
	})
}

// CancelBatch implements Orchestrator.
func (o *DefaultOrchestrator) CancelBatch(ctx context.Context, id string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	job, err := o.findBatch(ctx, id)
	if err != nil {
		return false, err
	}
	if !job.Status.IsActive() {
		logger.Debugf("Batch job (ID: %s) is %s, nothing to cancel.", id, job.Status)
		return false, nil
	}
	if o.launcher.Cancel(id) {
		return true, nil
	}

	// Not launched: a PENDING job waiting for StartBatch is cancelled in place.
	if job.Status != model.StatusPending {
		return false, nil
	}
	if err := job.MarkAsCancelled(); err != nil {
		return false, err
	}
	if err := o.store.UpdateBatchJob(ctx, job); err != nil {
		return false, err
	}
	logger.Infof("Batch job '%s' (ID: %s) cancelled before it started.", job.Name, job.ID)
	return true, nil
}

// RetryBatch implements Orchestrator. A FAILED job is stored before its AfterBatch
// listeners run, so the previous attempt may still be active; RetryBatch waits for it.
func (o *DefaultOrchestrator) RetryBatch(ctx context.Context, id string) (bool, error) {
	job, err := o.findBatch(ctx, id)
	if err != nil {
		return false, err
	}
	if job.Status == model.StatusFailed {
		if err := o.waitForExecution(ctx, id); err != nil {
			return false, err
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	job, err = o.findBatch(ctx, id)
	if err != nil {
		return false, err
	}
	if job.Status != model.StatusFailed {
		logger.Debugf("Batch job (ID: %s) is %s, only FAILED jobs can be retried.", id, job.Status)
		return false, nil
	}
	if o.launcher.IsActive(id) {
		return false, exception.NewOrchestrationErrorf(moduleName, exception.CodeInvalidState,
			"batch job '%s' is still executing and cannot be retried", id)
	}

	failed := job.Clone()
	if err := job.ResetForRetry(); err != nil {
		return false, err
	}
	if err := o.store.UpdateBatchJob(ctx, job); err != nil {
		return false, err
	}
	logger.Infof("Retrying batch job '%s' (ID: %s), attempt %d.", job.Name, job.ID, job.Attempt)
	if err := o.launchBatch(ctx, id); err != nil {
		if rerr := o.store.UpdateBatchJob(context.WithoutCancel(ctx), failed); rerr != nil {
			logger.Errorf("Batch job (ID: %s): failed to restore FAILED state after launch error: %v", id, rerr)
		}
		return false, err
	}
	return true, nil
}

// DeleteBatch implements Orchestrator.
func (o *DefaultOrchestrator) DeleteBatch(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	job, err := o.findBatch(ctx, id)
	if err != nil {
		return err
	}
	if job.Status == model.StatusRunning || o.launcher.IsActive(id) {
		return exception.NewOrchestrationErrorf(moduleName, exception.CodeInvalidState,
			"batch job '%s' is executing and cannot be deleted", id)
	}
	if err := o.store.DeleteBatchJob(ctx, id); err != nil {
		return o.batchLookupError(id, err)
	}
	logger.Infof("Deleted batch job '%s' (ID: %s).", job.Name, job.ID)
	return nil
}

// AwaitBatch implements Orchestrator.
func (o *DefaultOrchestrator) AwaitBatch(ctx context.Context, id string) (*model.BatchJob, error) {
	if err := o.waitForExecution(ctx, id); err != nil {
		return nil, err
	}
	return o.findBatch(ctx, id)
}

// waitForExecution blocks until the execution id, if active, has returned.
func (o *DefaultOrchestrator) waitForExecution(ctx context.Context, id string) error {
	done, ok := o.launcher.Done(id)
	if !ok {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CreateWorkflow implements Orchestrator.
func (o *DefaultOrchestrator) CreateWorkflow(ctx context.Context, def model.WorkflowDefinition) (string, error) {
	graph := model.NewWorkflowGraph(def)
	if err := graph.Validate(); err != nil {
		return "", err
	}
	if err := o.store.SaveWorkflow(ctx, graph); err != nil {
		return "", err
	}
	logger.Infof("Created workflow '%s' (ID: %s): %d nodes, %d edges.", graph.Name, graph.ID, len(graph.Nodes), len(graph.Edges))
	return graph.ID, nil
}

// GetWorkflow implements Orchestrator.
func (o *DefaultOrchestrator) GetWorkflow(ctx context.Context, id string) (*model.WorkflowGraph, error) {
	return o.findWorkflow(ctx, id)
}

// UpdateWorkflow implements Orchestrator.
func (o *DefaultOrchestrator) UpdateWorkflow(ctx context.Context, id string, update model.WorkflowUpdate) (*model.WorkflowGraph, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	graph, err := o.findWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}
	graph.Apply(update)
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	if err := o.store.UpdateWorkflow(ctx, graph); err != nil {
		return nil, o.workflowLookupError(id, err)
	}
	return graph.Clone(), nil
}

// DeleteWorkflow implements Orchestrator. Runs of the workflow are kept.
func (o *DefaultOrchestrator) DeleteWorkflow(ctx context.Context, id string) error {
	if err := o.store.DeleteWorkflow(ctx, id); err != nil {
		return o.workflowLookupError(id, err)
	}
	logger.Infof("Deleted workflow (ID: %s).", id)
	return nil
}

// ListWorkflows implements Orchestrator.
func (o *DefaultOrchestrator) ListWorkflows(ctx context.Context, filter WorkflowFilter) (*WorkflowPage, error) {
	filter.PageSize = o.pageSize(filter.PageSize)
	return o.store.ListWorkflows(ctx, filter)
}

// RunWorkflow implements Orchestrator. When async is false and ctx is done before the
// run finishes, the run is cancelled and ctx.Err() is returned along with its id.
func (o *DefaultOrchestrator) RunWorkflow(ctx context.Context, workflowID string, inputs map[string]interface{}, async bool) (string, error) {
	graph, err := o.findWorkflow(ctx, workflowID)
	if err != nil {
		return "", err
	}

	run := model.NewWorkflowRun(graph.ID, inputs)
	if err := o.store.SaveWorkflowRun(ctx, run); err != nil {
		return "", err
	}
	if err := o.store.RecordWorkflowRun(ctx, graph.ID); err != nil {
		return run.ID, o.workflowLookupError(graph.ID, err)
	}
	logger.Infof("Created run '%s' of workflow '%s' (ID: %s).", run.ID, graph.Name, graph.ID)

	done, err := o.launcher.Launch(ctx, run.ID, func(runCtx context.Context) {
		if err := o.executor.Execute(runCtx, graph, run.ID); err != nil {
			logger.Errorf("Workflow run (ID: %s) ended with an error: %v", run.ID, err)
		}
	})
	if err != nil {
		return run.ID, err
	}
	if async {
		return run.ID, nil
	}

	select {
	case <-done:
		return run.ID, nil
	case <-ctx.Done():
		o.launcher.Cancel(run.ID)
		<-done
		return run.ID, ctx.Err()
	}
}

// GetRun implements Orchestrator.
func (o *DefaultOrchestrator) GetRun(ctx context.Context, id string) (*model.WorkflowRun, error) {
	return o.findRun(ctx, id)
}

// CancelRun implements Orchestrator.
func (o *DefaultOrchestrator) CancelRun(ctx context.Context, id string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	run, err := o.findRun(ctx, id)
	if err != nil {
		return false, err
	}
	if !run.Status.IsActive() {
		logger.Debugf("Workflow run (ID: %s) is %s, nothing to cancel.", id, run.Status)
		return false, nil
	}
	if o.launcher.Cancel(id) {
		return true, nil
	}
	if run.Status != model.StatusPending {
		return false, nil
	}
	if err := run.Finish(model.StatusCancelled, ""); err != nil {
		return false, err
	}
	if err := o.store.UpdateWorkflowRun(ctx, run); err != nil {
		return false, err
	}
	return true, nil
}

// ListRuns implements Orchestrator.
func (o *DefaultOrchestrator) ListRuns(ctx context.Context, filter RunFilter) (*RunPage, error) {
	filter.PageSize = o.pageSize(filter.PageSize)
	return o.store.ListWorkflowRuns(ctx, filter)
}

func (o *DefaultOrchestrator) pageSize(size int) int {
	if size <= 0 {
		return o.opts.DefaultPageSize
	}
	return size
}

func (o *DefaultOrchestrator) findBatch(ctx context.Context, id string) (*model.BatchJob, error) {
	job, err := o.store.FindBatchJobByID(ctx, id)
	if err != nil {
		return nil, o.batchLookupError(id, err)
	}
	return job, nil
}

func (o *DefaultOrchestrator) findWorkflow(ctx context.Context, id string) (*model.WorkflowGraph, error) {
	graph, err := o.store.FindWorkflowByID(ctx, id)
	if err != nil {
		return nil, o.workflowLookupError(id, err)
	}
	return graph, nil
}

func (o *DefaultOrchestrator) findRun(ctx context.Context, id string) (*model.WorkflowRun, error) {
	run, err := o.store.FindWorkflowRunByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrWorkflowRunNotFound) {
			return nil, exception.NewOrchestrationErrorf(moduleName, exception.CodeNotFound, "workflow run '%s' not found", id, err)
		}
		return nil, err
	}
	return run, nil
}

func (o *DefaultOrchestrator) batchLookupError(id string, err error) error {
	if errors.Is(err, repository.ErrBatchJobNotFound) {
		return exception.NewOrchestrationErrorf(moduleName, exception.CodeNotFound, "batch job '%s' not found", id, err)
	}
	return err
}

func (o *DefaultOrchestrator) workflowLookupError(id string, err error) error {
	if errors.Is(err, repository.ErrWorkflowNotFound) {
		return exception.NewOrchestrationErrorf(moduleName, exception.CodeNotFound, "workflow '%s' not found", id, err)
	}
	return err
}

var _ Orchestrator = (*DefaultOrchestrator)(nil)

// Package usecase provides the Orchestration Facade: the in-process API to submit,
// inspect and control batch jobs and workflow runs.
package usecase

import (
	"context"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	repository "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/repository"
)

// BatchRequest describes a batch job to submit.
type BatchRequest struct {
	Name            string
	Operation       string
	Items           []string
	OutputDirectory string
	Options         map[string]interface{}
	StopOnError     bool
	// AutoStart launches the job right away. Otherwise StartBatch must be called.
	AutoStart bool
	// ExpandPatterns replaces glob patterns among Items with the files they match.
	ExpandPatterns bool
}

// BatchFilter selects batch jobs. Page is 1-based; a zero PageSize uses the configured default.
type BatchFilter struct {
	Statuses []model.JobStatus
	Page     int
	PageSize int
}

// Pages returned by the list operations.
type (
	BatchPage    = repository.Page[*model.BatchJob]
	WorkflowPage = repository.Page[*model.WorkflowGraph]
	RunPage      = repository.Page[*model.WorkflowRun]
)

// WorkflowFilter selects workflows by status and a name/description search.
type WorkflowFilter = repository.WorkflowFilter

// RunFilter selects workflow runs.
type RunFilter = repository.WorkflowRunFilter

// Orchestrator is the Orchestration Facade. Every record it returns is a copy.
// Unknown ids yield NOT_FOUND errors.
type Orchestrator interface {
	// SubmitBatch validates the operation and stores a PENDING job. It returns the job id.
	SubmitBatch(ctx context.Context, req BatchRequest) (string, error)
	// StartBatch launches a PENDING job that was submitted without AutoStart.
	StartBatch(ctx context.Context, id string) error
	GetBatch(ctx context.Context, id string) (*model.BatchJob, error)
	// ListBatches returns jobs newest first.
	ListBatches(ctx context.Context, filter BatchFilter) (*BatchPage, error)
	// CancelBatch returns false when the job is neither PENDING nor RUNNING.
	CancelBatch(ctx context.Context, id string) (bool, error)
	// RetryBatch re-runs a FAILED job from its first item. It returns false for any other status.
	RetryBatch(ctx context.Context, id string) (bool, error)
	// DeleteBatch removes a job that is not running.
	DeleteBatch(ctx context.Context, id string) error
	// AwaitBatch blocks until the job is no longer executing, then returns it.
	AwaitBatch(ctx context.Context, id string) (*model.BatchJob, error)

	// CreateWorkflow validates and stores a workflow graph. It returns the workflow id.
	CreateWorkflow(ctx context.Context, def model.WorkflowDefinition) (string, error)
	GetWorkflow(ctx context.Context, id string) (*model.WorkflowGraph, error)
	UpdateWorkflow(ctx context.Context, id string, update model.WorkflowUpdate) (*model.WorkflowGraph, error)
	DeleteWorkflow(ctx context.Context, id string) error
	ListWorkflows(ctx context.Context, filter WorkflowFilter) (*WorkflowPage, error)

	// RunWorkflow starts a run of the workflow. Unless async is set it returns once
	// the run is terminal.
	RunWorkflow(ctx context.Context, workflowID string, inputs map[string]interface{}, async bool) (string, error)
	GetRun(ctx context.Context, id string) (*model.WorkflowRun, error)
	// CancelRun returns false when the run is neither PENDING nor RUNNING.
	CancelRun(ctx context.Context, id string) (bool, error)
	ListRuns(ctx context.Context, filter RunFilter) (*RunPage, error)
}

// Package repository defines the Job Record Store ports: a passive, concurrency-safe
// table of batch jobs, workflow graphs and workflow runs.
package repository

import (
	"context"
	"errors"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
)

// Standard lookup errors.
var (
	ErrBatchJobNotFound    = errors.New("batch job not found")
	ErrWorkflowNotFound    = errors.New("workflow not found")
	ErrWorkflowRunNotFound = errors.New("workflow run not found")
	// ErrAlreadyExists is returned when saving a record whose ID is already stored.
	ErrAlreadyExists = errors.New("record already exists")
)

// BatchJobFilter selects batch jobs for listing. Page is 1-based.
type BatchJobFilter struct {
	Statuses []model.JobStatus
	Page     int
	PageSize int
}

// WorkflowFilter selects workflow graphs for listing.
type WorkflowFilter struct {
	Statuses []model.WorkflowStatus
	// Search matches name or description, case-insensitively.
	Search   string
	Page     int
	PageSize int
}

// WorkflowRunFilter selects runs for listing.
type WorkflowRunFilter struct {
	WorkflowID string
	Statuses   []model.JobStatus
	Page       int
	PageSize   int
}

// Page is a slice of results plus pagination metadata.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// BatchJobRepository stores batch jobs.
type BatchJobRepository interface {
	SaveBatchJob(ctx context.Context, job *model.BatchJob) error
	UpdateBatchJob(ctx context.Context, job *model.BatchJob) error
	FindBatchJobByID(ctx context.Context, id string) (*model.BatchJob, error)
	// ListBatchJobs returns jobs sorted by creation time, newest first.
	ListBatchJobs(ctx context.Context, filter BatchJobFilter) (*Page[*model.BatchJob], error)
	DeleteBatchJob(ctx context.Context, id string) error
}

// WorkflowRepository stores workflow graphs.
type WorkflowRepository interface {
	SaveWorkflow(ctx context.Context, wf *model.WorkflowGraph) error
	UpdateWorkflow(ctx context.Context, wf *model.WorkflowGraph) error
	FindWorkflowByID(ctx context.Context, id string) (*model.WorkflowGraph, error)
	ListWorkflows(ctx context.Context, filter WorkflowFilter) (*Page[*model.WorkflowGraph], error)
	DeleteWorkflow(ctx context.Context, id string) error
	// RecordWorkflowRun atomically increments RunCount and sets LastRunAt.
	RecordWorkflowRun(ctx context.Context, id string) error
}

// WorkflowRunRepository stores workflow runs.
type WorkflowRunRepository interface {
	SaveWorkflowRun(ctx context.Context, run *model.WorkflowRun) error
	UpdateWorkflowRun(ctx context.Context, run *model.WorkflowRun) error
	FindWorkflowRunByID(ctx context.Context, id string) (*model.WorkflowRun, error)
	ListWorkflowRuns(ctx context.Context, filter WorkflowRunFilter) (*Page[*model.WorkflowRun], error)
}

// JobStore is the Job Record Store. Implementations must make concurrent reads
// and writes of distinct records safe and must hand out copies, never shared pointers.
type JobStore interface {
	BatchJobRepository
	WorkflowRepository
	WorkflowRunRepository

	// Clear drops every record.
	Clear()
	// Close releases resources held by the store.
	Close() error
}

// Paginate slices items into the requested page. page is 1-based; non-positive
// values fall back to page 1 and defaultSize.
func Paginate[T any](items []T, page, pageSize, defaultSize int) *Page[T] {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultSize
	}
	total := len(items)
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return &Page[T]{
		Items:      items[start:end],
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
}

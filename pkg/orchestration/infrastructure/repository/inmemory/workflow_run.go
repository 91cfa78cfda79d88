package inmemory

import (
	"context"
	"fmt"
	"sort"

	"github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/repository"
)

// SaveWorkflowRun stores a new run.
func (r *InMemoryJobStore) SaveWorkflowRun(ctx context.Context, run *model.WorkflowRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; exists {
		return fmt.Errorf("WorkflowRun with ID %s: %w", run.ID, repository.ErrAlreadyExists)
	}
	r.runs[run.ID] = run.Clone()
	return nil
}

// UpdateWorkflowRun replaces an existing run.
func (r *InMemoryJobStore) UpdateWorkflowRun(ctx context.Context, run *model.WorkflowRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; !exists {
		return fmt.Errorf("WorkflowRun with ID %s not found for update: %w", run.ID, repository.ErrWorkflowRunNotFound)
	}
	r.runs[run.ID] = run.Clone()
	return nil
}

// FindWorkflowRunByID returns a copy of the run.
func (r *InMemoryJobStore) FindWorkflowRunByID(ctx context.Context, id string) (*model.WorkflowRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, repository.ErrWorkflowRunNotFound
	}
	return run.Clone(), nil
}

// ListWorkflowRuns returns runs newest first, optionally restricted to one workflow.
func (r *InMemoryJobStore) ListWorkflowRuns(ctx context.Context, filter repository.WorkflowRunFilter) (*repository.Page[*model.WorkflowRun], error) {
	r.mu.RLock()
	matched := make([]*model.WorkflowRun, 0, len(r.runs))
	for _, run := range r.runs {
		if filter.WorkflowID != "" && run.WorkflowID != filter.WorkflowID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, run.Status) {
			continue
		}
		matched = append(matched, run.Clone())
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return repository.Paginate(matched, filter.Page, filter.PageSize, defaultPageSize), nil
}

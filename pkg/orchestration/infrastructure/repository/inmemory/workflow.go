package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/repository"
)

// SaveWorkflow stores a new workflow graph.
func (r *InMemoryJobStore) SaveWorkflow(ctx context.Context, wf *model.WorkflowGraph) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workflows[wf.ID]; exists {
		return fmt.Errorf("Workflow with ID %s: %w", wf.ID, repository.ErrAlreadyExists)
	}
	r.workflows[wf.ID] = wf.Clone()
	return nil
}

// UpdateWorkflow replaces an existing workflow graph.
func (r *InMemoryJobStore) UpdateWorkflow(ctx context.Context, wf *model.WorkflowGraph) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workflows[wf.ID]; !exists {
		return fmt.Errorf("Workflow with ID %s not found for update: %w", wf.ID, repository.ErrWorkflowNotFound)
	}
	r.workflows[wf.ID] = wf.Clone()
	return nil
}

// FindWorkflowByID returns a copy of the workflow graph.
func (r *InMemoryJobStore) FindWorkflowByID(ctx context.Context, id string) (*model.WorkflowGraph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wf, ok := r.workflows[id]
	if !ok {
		return nil, repository.ErrWorkflowNotFound
	}
	return wf.Clone(), nil
}

// ListWorkflows filters by status and search text and returns newest first.
func (r *InMemoryJobStore) ListWorkflows(ctx context.Context, filter repository.WorkflowFilter) (*repository.Page[*model.WorkflowGraph], error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	r.mu.RLock()
	matched := make([]*model.WorkflowGraph, 0, len(r.workflows))
	for _, wf := range r.workflows {
		if len(filter.Statuses) > 0 && !containsWorkflowStatus(filter.Statuses, wf.Status) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(wf.Name), search) &&
			!strings.Contains(strings.ToLower(wf.Description), search) {
			continue
		}
		matched = append(matched, wf.Clone())
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

// DeleteWorkflow removes a workflow graph. Existing runs keep their WorkflowID.
func (r *InMemoryJobStore) DeleteWorkflow(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.workflows[id]; !ok {
		return repository.ErrWorkflowNotFound
	}
	delete(r.workflows, id)
	return nil
}

// RecordWorkflowRun increments RunCount and stamps LastRunAt under the write lock.
func (r *InMemoryJobStore) RecordWorkflowRun(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wf, ok := r.workflows[id]
	if !ok {
		return repository.ErrWorkflowNotFound
	}
	now := time.Now()
	wf.RunCount++
	wf.LastRunAt = &now
	return nil
}

func containsWorkflowStatus(statuses []model.WorkflowStatus, s model.WorkflowStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

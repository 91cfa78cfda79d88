package inmemory

import (
	"context"
	"fmt"
	"sort"

	"github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/repository"
)

// SaveBatchJob stores a new batch job.
func (r *InMemoryJobStore) SaveBatchJob(ctx context.Context, job *model.BatchJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.batchJobs[job.ID]; exists {
		return fmt.Errorf("BatchJob with ID %s: %w", job.ID, repository.ErrAlreadyExists)
	}
	r.batchJobs[job.ID] = job.Clone()
	return nil
}

// UpdateBatchJob replaces an existing batch job.
func (r *InMemoryJobStore) UpdateBatchJob(ctx context.Context, job *model.BatchJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.batchJobs[job.ID]; !exists {
		return fmt.Errorf("BatchJob with ID %s not found for update: %w", job.ID, repository.ErrBatchJobNotFound)
	}
	r.batchJobs[job.ID] = job.Clone()
	return nil
}

// FindBatchJobByID returns a copy of the batch job.
func (r *InMemoryJobStore) FindBatchJobByID(ctx context.Context, id string) (*model.BatchJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.batchJobs[id]
	if !ok {
		return nil, repository.ErrBatchJobNotFound
	}
	return job.Clone(), nil
}

// ListBatchJobs returns the requested page of jobs, newest first.
func (r *InMemoryJobStore) ListBatchJobs(ctx context.Context, filter repository.BatchJobFilter) (*repository.Page[*model.BatchJob], error) {
	r.mu.RLock()
	matched := make([]*model.BatchJob, 0, len(r.batchJobs))
	for _, job := range r.batchJobs {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, job.Status) {
			continue
		}
		matched = append(matched, job.Clone())
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

// DeleteBatchJob removes a batch job.
func (r *InMemoryJobStore) DeleteBatchJob(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.batchJobs[id]; !ok {
		return repository.ErrBatchJobNotFound
	}
	delete(r.batchJobs, id)
	return nil
}

func containsStatus(statuses []model.JobStatus, s model.JobStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

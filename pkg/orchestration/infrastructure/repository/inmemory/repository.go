// Package inmemory provides the process-local JobStore. Records live only for the
// lifetime of the store; there is no persistence or crash recovery.
package inmemory

import (
	"sync"

	"github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/repository"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// defaultPageSize is used when a filter does not specify a page size.
const defaultPageSize = 20

// InMemoryJobStore keeps batch jobs, workflows and runs in maps guarded by one RWMutex.
// Records are cloned on the way in and on the way out.
type InMemoryJobStore struct {
	mu        sync.RWMutex
	batchJobs map[string]*model.BatchJob
	workflows map[string]*model.WorkflowGraph
	runs      map[string]*model.WorkflowRun
}

// NewInMemoryJobStore creates an empty store.
func NewInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		batchJobs: make(map[string]*model.BatchJob),
		workflows: make(map[string]*model.WorkflowGraph),
		runs:      make(map[string]*model.WorkflowRun),
	}
}

// Clear drops every record.
func (r *InMemoryJobStore) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Debugf("InMemoryJobStore: clearing %d batch jobs, %d workflows, %d runs.", len(r.batchJobs), len(r.workflows), len(r.runs))
	r.batchJobs = make(map[string]*model.BatchJob)
	r.workflows = make(map[string]*model.WorkflowGraph)
	r.runs = make(map[string]*model.WorkflowRun)
}

// Close clears the store.
func (r *InMemoryJobStore) Close() error {
	r.Clear()
	return nil
}

var _ repository.JobStore = (*InMemoryJobStore)(nil)

package inmemory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/repository"
)

func newTestJob(created time.Time, status model.JobStatus) *model.BatchJob {
	job := model.NewBatchJob("", "compress", []string{"a.pdf"}, "/out", nil, false)
	job.CreatedAt = created
	job.Status = status
	return job
}

func TestBatchJob_SaveFindUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryJobStore()
	job := newTestJob(time.Now(), model.StatusPending)

	require.NoError(t, store.SaveBatchJob(ctx, job))
	assert.ErrorIs(t, store.SaveBatchJob(ctx, job), repository.ErrAlreadyExists)

	found, err := store.FindBatchJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, found.ID)

	// the stored record is isolated from the caller's copy
	found.Status = model.StatusRunning
	again, _ := store.FindBatchJobByID(ctx, job.ID)
	assert.Equal(t, model.StatusPending, again.Status)

	require.NoError(t, store.UpdateBatchJob(ctx, found))
	again, _ = store.FindBatchJobByID(ctx, job.ID)
	assert.Equal(t, model.StatusRunning, again.Status)

	_, err = store.FindBatchJobByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrBatchJobNotFound)
	assert.ErrorIs(t, store.UpdateBatchJob(ctx, newTestJob(time.Now(), model.StatusPending)), repository.ErrBatchJobNotFound)
}

func TestListBatchJobs_SortedAndFiltered(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryJobStore()
	base := time.Now()

	oldest := newTestJob(base.Add(-3*time.Minute), model.StatusCompleted)
	middle := newTestJob(base.Add(-2*time.Minute), model.StatusFailed)
	newest := newTestJob(base.Add(-1*time.Minute), model.StatusCompleted)
	for _, j := range []*model.BatchJob{middle, oldest, newest} {
		require.NoError(t, store.SaveBatchJob(ctx, j))
	}

	page, err := store.ListBatchJobs(ctx, repository.BatchJobFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID}, []string{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID})

	completed, err := store.ListBatchJobs(ctx, repository.BatchJobFilter{Statuses: []model.JobStatus{model.StatusCompleted}, Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, completed.Total)
	assert.Equal(t, 2, completed.TotalPages)
	require.Len(t, completed.Items, 1)
	assert.Equal(t, newest.ID, completed.Items[0].ID)
}

func TestDeleteBatchJob(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryJobStore()
	job := newTestJob(time.Now(), model.StatusCompleted)
	require.NoError(t, store.SaveBatchJob(ctx, job))

	require.NoError(t, store.DeleteBatchJob(ctx, job.ID))
	assert.ErrorIs(t, store.DeleteBatchJob(ctx, job.ID), repository.ErrBatchJobNotFound)
}

func TestWorkflows_SearchAndRecordRun(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryJobStore()

	wf := &model.WorkflowGraph{ID: "wf-1", Name: "Invoice pipeline", Description: "compress and watermark", Status: model.WorkflowStatusActive, CreatedAt: time.Now()}
	other := &model.WorkflowGraph{ID: "wf-2", Name: "OCR", Status: model.WorkflowStatusDraft, CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, store.SaveWorkflow(ctx, wf))
	require.NoError(t, store.SaveWorkflow(ctx, other))

	page, err := store.ListWorkflows(ctx, repository.WorkflowFilter{Search: "WATERMARK"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "wf-1", page.Items[0].ID)

	page, err = store.ListWorkflows(ctx, repository.WorkflowFilter{Statuses: []model.WorkflowStatus{model.WorkflowStatusDraft}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "wf-2", page.Items[0].ID)

	require.NoError(t, store.RecordWorkflowRun(ctx, "wf-1"))
	require.NoError(t, store.RecordWorkflowRun(ctx, "wf-1"))
	found, err := store.FindWorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, 2, found.RunCount)
	assert.NotNil(t, found.LastRunAt)

	assert.ErrorIs(t, store.RecordWorkflowRun(ctx, "missing"), repository.ErrWorkflowNotFound)
	require.NoError(t, store.DeleteWorkflow(ctx, "wf-2"))
	_, err = store.FindWorkflowByID(ctx, "wf-2")
	assert.ErrorIs(t, err, repository.ErrWorkflowNotFound)
}

func TestWorkflowRuns_ListByWorkflow(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryJobStore()

	r1 := model.NewWorkflowRun("wf-1", nil)
	r2 := model.NewWorkflowRun("wf-2", nil)
	require.NoError(t, store.SaveWorkflowRun(ctx, r1))
	require.NoError(t, store.SaveWorkflowRun(ctx, r2))

	page, err := store.ListWorkflowRuns(ctx, repository.WorkflowRunFilter{WorkflowID: "wf-1"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, r1.ID, page.Items[0].ID)

	r1.Status = model.StatusRunning
	require.NoError(t, store.UpdateWorkflowRun(ctx, r1))
	found, err := store.FindWorkflowRunByID(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, found.Status)

	_, err = store.FindWorkflowRunByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrWorkflowRunNotFound)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryJobStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			job := model.NewBatchJob(fmt.Sprintf("job-%d", i), "compress", []string{"a.pdf"}, "/out", nil, false)
			assert.NoError(t, store.SaveBatchJob(ctx, job))
			_, err := store.FindBatchJobByID(ctx, job.ID)
			assert.NoError(t, err)
			_, err = store.ListBatchJobs(ctx, repository.BatchJobFilter{})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	page, err := store.ListBatchJobs(ctx, repository.BatchJobFilter{PageSize: 100})
	require.NoError(t, err)
	assert.Equal(t, 50, page.Total)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryJobStore()
	require.NoError(t, store.SaveBatchJob(ctx, newTestJob(time.Now(), model.StatusPending)))
	require.NoError(t, store.SaveWorkflowRun(ctx, model.NewWorkflowRun("wf", nil)))

	require.NoError(t, store.Close())

	page, _ := store.ListBatchJobs(ctx, repository.BatchJobFilter{})
	assert.Equal(t, 0, page.Total)
	runs, _ := store.ListWorkflowRuns(ctx, repository.WorkflowRunFilter{})
	assert.Equal(t, 0, runs.Total)
}

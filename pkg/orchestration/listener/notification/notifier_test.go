package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
)

type capturingNotifier struct {
	batches []*model.BatchJob
	runs    []*model.WorkflowRun
}

func (n *capturingNotifier) NotifyBatchCompletion(ctx context.Context, job *model.BatchJob) {
	n.batches = append(n.batches, job)
}

func (n *capturingNotifier) NotifyRunCompletion(ctx context.Context, run *model.WorkflowRun) {
	n.runs = append(n.runs, run)
}

func TestNotificationListener_NotifiesOnlyAfterCompletion(t *testing.T) {
	n := &capturingNotifier{}
	l := NewNotificationListener(n)
	ctx := context.Background()
	job := &model.BatchJob{ID: "job-1"}
	run := &model.WorkflowRun{ID: "run-1"}

	l.BeforeBatch(ctx, job)
	l.BeforeRun(ctx, run)
	assert.Empty(t, n.batches)
	assert.Empty(t, n.runs)

	l.AfterBatch(ctx, job)
	l.AfterRun(ctx, run)
	require.Len(t, n.batches, 1)
	require.Len(t, n.runs, 1)
	assert.Equal(t, "job-1", n.batches[0].ID)
	assert.Equal(t, "run-1", n.runs[0].ID)
}

func TestMessages(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Second)

	job := &model.BatchJob{
		ID: "job-1", Name: "nightly", Operation: "compress", Attempt: 2,
		Status:    model.StatusFailed,
		Progress:  model.Progress{Total: 3, Completed: 2, Failed: 1},
		StartedAt: &start, CompletedAt: &end,
	}
	assert.Equal(t,
		"Batch Notification: Job 'nightly' (ID: job-1, operation: compress, attempt: 2) finished with Status: FAILED. Duration: 3s, Completed: 2, Failed: 1, Total: 3",
		batchMessage(job))

	run := &model.WorkflowRun{ID: "run-1", WorkflowID: "wf-1", Status: model.StatusCancelled}
	assert.Equal(t,
		"Workflow Notification: Run run-1 of workflow wf-1 finished with Status: CANCELLED. Duration: 0s, Nodes executed: 0",
		runMessage(run))

	run.Status = model.StatusFailed
	run.Error = "No start node found"
	assert.Contains(t, runMessage(run), ", Error: No start node found")
}

func TestModule_ContributesListenerToBothGroups(t *testing.T) {
	var listeners *port.Listeners
	app := fxtest.New(t,
		Module,
		port.Module,
		fx.Populate(&listeners),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.Len(t, listeners.Batch, 1)
	require.Len(t, listeners.Run, 1)
	assert.Empty(t, listeners.Node)
	assert.Same(t, listeners.Batch[0], listeners.Run[0])
}

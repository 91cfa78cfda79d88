package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	config "github.com/tigerroll/pdfflow/pkg/orchestration/core/config"
	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/metrics"
)

type recordingRecorder struct {
	mu     sync.Mutex
	events []string
	block  chan struct{}
}

func (r *recordingRecorder) add(event string) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingRecorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordingRecorder) RecordBatchStart(ctx context.Context, job *model.BatchJob) {
	r.add("batch_start:" + job.ID)
}
func (r *recordingRecorder) RecordBatchEnd(ctx context.Context, job *model.BatchJob) {
	r.add("batch_end:" + job.ID + ":" + string(job.Status))
}
func (r *recordingRecorder) RecordItem(ctx context.Context, operation string, code string, duration time.Duration) {
	r.add("item:" + operation + ":" + code)
}
func (r *recordingRecorder) RecordRunStart(ctx context.Context, run *model.WorkflowRun) {
	r.add("run_start:" + run.ID)
}
func (r *recordingRecorder) RecordRunEnd(ctx context.Context, run *model.WorkflowRun) {
	r.add("run_end:" + run.ID + ":" + string(run.Status))
}
func (r *recordingRecorder) RecordNode(ctx context.Context, workflowID string, execution *model.NodeExecution) {
	r.add("node:" + workflowID + ":" + execution.NodeID)
}
func (r *recordingRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.add("duration:" + name)
}

func TestAsyncMetricRecorder_DeliversInOrderAndDrainsOnClose(t *testing.T) {
	target := &recordingRecorder{}
	async := NewAsyncMetricRecorder(16, target)
	ctx := context.Background()

	job := &model.BatchJob{ID: "job-1", Status: model.StatusRunning}
	async.RecordBatchStart(ctx, job)
	async.RecordItem(ctx, "compress", "", time.Millisecond)
	async.RecordItem(ctx, "compress", "TIMEOUT", time.Millisecond)
	job.Status = model.StatusCompleted
	async.RecordBatchEnd(ctx, job)
	async.RecordRunStart(ctx, &model.WorkflowRun{ID: "run-1"})
	async.RecordNode(ctx, "wf-1", &model.NodeExecution{NodeID: "start"})
	async.RecordRunEnd(ctx, &model.WorkflowRun{ID: "run-1", Status: model.StatusFailed})
	async.RecordDuration(ctx, "merge", time.Second, nil)
	async.Close()

	assert.Equal(t, []string{
		"batch_start:job-1",
		"item:compress:",
		"item:compress:TIMEOUT",
		"batch_end:job-1:COMPLETED",
		"run_start:run-1",
		"node:wf-1:start",
		"run_end:run-1:FAILED",
		"duration:merge",
	}, target.Events())
}

func TestAsyncMetricRecorder_SnapshotsRecords(t *testing.T) {
	target := &recordingRecorder{block: make(chan struct{})}
	async := NewAsyncMetricRecorder(4, target)

	job := &model.BatchJob{ID: "job-1", Status: model.StatusRunning}
	async.RecordBatchEnd(context.Background(), job)
	job.Status = model.StatusFailed
	close(target.block)
	async.Close()

	assert.Equal(t, []string{"batch_end:job-1:RUNNING"}, target.Events())
}

func TestAsyncMetricRecorder_DropsWhenFullOrClosed(t *testing.T) {
	target := &recordingRecorder{block: make(chan struct{})}
	async := NewAsyncMetricRecorder(1, target)
	ctx := context.Background()

	// The worker takes the first event and blocks on it, the second fills the queue.
	async.RecordItem(ctx, "a", "", 0)
	require.Eventually(t, func() bool { return len(async.eventQueue) == 0 }, time.Second, time.Millisecond)
	async.RecordItem(ctx, "b", "", 0)
	async.RecordItem(ctx, "c", "", 0)
	close(target.block)
	async.Close()
	async.RecordItem(ctx, "d", "", 0)
	async.Close()

	assert.Equal(t, []string{"item:a:", "item:b:"}, target.Events())
}

func TestMetricsListeners(t *testing.T) {
	rec := &recordingRecorder{}
	ctx := context.Background()

	bl := NewMetricsBatchJobListener(rec)
	bl.BeforeBatch(ctx, &model.BatchJob{ID: "job-1"})
	bl.AfterBatch(ctx, &model.BatchJob{ID: "job-1", Status: model.StatusCancelled})

	rl := NewMetricsWorkflowRunListener(rec)
	rl.BeforeRun(ctx, &model.WorkflowRun{ID: "run-1"})
	rl.AfterRun(ctx, &model.WorkflowRun{ID: "run-1", Status: model.StatusCompleted})

	assert.Equal(t, []string{
		"batch_start:job-1",
		"batch_end:job-1:CANCELLED",
		"run_start:run-1",
		"run_end:run-1:COMPLETED",
	}, rec.Events())
}

func TestDecorateAsync(t *testing.T) {
	cfg := config.NewConfig()

	t.Run("NoOpIsKept", func(t *testing.T) {
		lc := fxtest.NewLifecycle(t)
		noop := metrics.NewNoOpMetricRecorder()
		assert.Same(t, noop, DecorateAsync(lc, cfg, noop))
	})

	t.Run("ClosedOnStop", func(t *testing.T) {
		lc := fxtest.NewLifecycle(t)
		rec := &recordingRecorder{}
		decorated := DecorateAsync(lc, cfg, rec)
		require.IsType(t, &AsyncMetricRecorder{}, decorated)

		lc.RequireStart()
		decorated.RecordItem(context.Background(), "split", "", 0)
		lc.RequireStop()

		assert.Equal(t, []string{"item:split:"}, rec.Events())
	})
}

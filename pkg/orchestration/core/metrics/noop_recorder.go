package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
)

// NoOpMetricRecorder is an implementation of MetricRecorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

func (r *NoOpMetricRecorder) RecordBatchStart(ctx context.Context, job *model.BatchJob) {}
func (r *NoOpMetricRecorder) RecordBatchEnd(ctx context.Context, job *model.BatchJob)   {}
func (r *NoOpMetricRecorder) RecordItem(ctx context.Context, operation string, code string, duration time.Duration) {
}
func (r *NoOpMetricRecorder) RecordRunStart(ctx context.Context, run *model.WorkflowRun) {}
func (r *NoOpMetricRecorder) RecordRunEnd(ctx context.Context, run *model.WorkflowRun)   {}
func (r *NoOpMetricRecorder) RecordNode(ctx context.Context, workflowID string, execution *model.NodeExecution) {
}
func (r *NoOpMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// --- NoOpTracer ---

// NoOpTracer is an implementation of Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

func (t *NoOpTracer) StartBatchSpan(ctx context.Context, job *model.BatchJob) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) StartItemSpan(ctx context.Context, job *model.BatchJob, item string) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) StartRunSpan(ctx context.Context, run *model.WorkflowRun) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) StartNodeSpan(ctx context.Context, run *model.WorkflowRun, node model.Node) (context.Context, func()) {
	return ctx, func() {}
}

// RecordError does nothing.
func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

// RecordEvent does nothing.
func (t *NoOpTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {}

var _ Tracer = (*NoOpTracer)(nil)

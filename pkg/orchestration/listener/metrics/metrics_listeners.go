package metrics

import (
	"context"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/metrics"
)

// --- Batch Job Listener ---

type MetricsBatchJobListener struct {
	recorder metrics.MetricRecorder
}

func NewMetricsBatchJobListener(recorder metrics.MetricRecorder) *MetricsBatchJobListener {
	return &MetricsBatchJobListener{recorder: recorder}
}

func (l *MetricsBatchJobListener) BeforeBatch(ctx context.Context, job *model.BatchJob) {
	l.recorder.RecordBatchStart(ctx, job)
}

func (l *MetricsBatchJobListener) AfterBatch(ctx context.Context, job *model.BatchJob) {
	l.recorder.RecordBatchEnd(ctx, job)
}

var _ port.BatchJobListener = (*MetricsBatchJobListener)(nil)

// --- Workflow Run Listener ---

type MetricsWorkflowRunListener struct {
	recorder metrics.MetricRecorder
}

func NewMetricsWorkflowRunListener(recorder metrics.MetricRecorder) *MetricsWorkflowRunListener {
	return &MetricsWorkflowRunListener{recorder: recorder}
}

func (l *MetricsWorkflowRunListener) BeforeRun(ctx context.Context, run *model.WorkflowRun) {
	l.recorder.RecordRunStart(ctx, run)
}

func (l *MetricsWorkflowRunListener) AfterRun(ctx context.Context, run *model.WorkflowRun) {
	l.recorder.RecordRunEnd(ctx, run)
}

var _ port.WorkflowRunListener = (*MetricsWorkflowRunListener)(nil)

package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
)

// MetricRecorder is an abstract interface for recording metrics related to batch jobs
// and workflow runs.
//
// This facilitates integration with different metrics backends (e.g., Prometheus, OpenTelemetry Metrics).
type MetricRecorder interface {
	// RecordBatchStart records the start of a BatchJob.
	RecordBatchStart(ctx context.Context, job *model.BatchJob)

	// RecordBatchEnd records the terminal state of a BatchJob.
	RecordBatchEnd(ctx context.Context, job *model.BatchJob)

	// RecordItem records the outcome of one batch item.
	//
	// operation: The operation the item was processed with.
	// code: Empty on success, otherwise the error code of the failure (e.g., "TIMEOUT").
	// duration: How long the handler call took.
	RecordItem(ctx context.Context, operation string, code string, duration time.Duration)

	// RecordRunStart records the start of a WorkflowRun.
	RecordRunStart(ctx context.Context, run *model.WorkflowRun)

	// RecordRunEnd records the terminal state of a WorkflowRun.
	RecordRunEnd(ctx context.Context, run *model.WorkflowRun)

	// RecordNode records a finished node execution.
	RecordNode(ctx context.Context, workflowID string, execution *model.NodeExecution)

	// RecordDuration records the execution time of a specific operation.
	//
	// tags: A map of additional tags or attributes to associate with the duration.
	//       Example: `{"operation": "merge", "status": "success"}`
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)
}

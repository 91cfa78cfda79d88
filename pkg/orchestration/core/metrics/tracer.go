package metrics

import (
	"context"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
)

// Tracer is an abstract interface for distributed tracing.
// Every Start* method returns a context with the new span set, and a function to end
// the span. It is recommended to call the returned function in a defer statement.
type Tracer interface {
	// StartBatchSpan starts a span for a BatchJob execution.
	StartBatchSpan(ctx context.Context, job *model.BatchJob) (context.Context, func())

	// StartItemSpan starts a span for one batch item (typically under a batch span).
	StartItemSpan(ctx context.Context, job *model.BatchJob, item string) (context.Context, func())

	// StartRunSpan starts a span for a WorkflowRun.
	StartRunSpan(ctx context.Context, run *model.WorkflowRun) (context.Context, func())

	// StartNodeSpan starts a span for one node of a run.
	StartNodeSpan(ctx context.Context, run *model.WorkflowRun, node model.Node) (context.Context, func())

	// RecordError records an error in the current span.
	//
	// module: The component where the error occurred (e.g., "batch_runner", "workflow_executor").
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records an event in the current span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}

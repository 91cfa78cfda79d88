package tracing

import (
	"context"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/metrics"
)

// Span event names.
const (
	EventBatchStarted  = "batch.started"
	EventBatchFinished = "batch.finished"
	EventRunStarted    = "run.started"
	EventRunFinished   = "run.finished"
	EventNodeFinished  = "node.finished"
)

// TracingBatchJobListener annotates the batch span with lifecycle events.
// The span itself is owned by the batch runner.
type TracingBatchJobListener struct {
	tracer metrics.Tracer
}

func NewTracingBatchJobListener(tracer metrics.Tracer) *TracingBatchJobListener {
	return &TracingBatchJobListener{tracer: tracer}
}

func (l *TracingBatchJobListener) BeforeBatch(ctx context.Context, job *model.BatchJob) {
	l.tracer.RecordEvent(ctx, EventBatchStarted, map[string]interface{}{
		"job.id":    job.ID,
		"job.items": len(job.InputItems),
		"attempt":   job.Attempt,
	})
}

func (l *TracingBatchJobListener) AfterBatch(ctx context.Context, job *model.BatchJob) {
	l.tracer.RecordEvent(ctx, EventBatchFinished, map[string]interface{}{
		"job.id":    job.ID,
		"status":    job.Status.String(),
		"completed": job.Progress.Completed,
		"failed":    job.Progress.Failed,
	})
}

var _ port.BatchJobListener = (*TracingBatchJobListener)(nil)

// TracingWorkflowRunListener annotates the run span with lifecycle events.
type TracingWorkflowRunListener struct {
	tracer metrics.Tracer
}

func NewTracingWorkflowRunListener(tracer metrics.Tracer) *TracingWorkflowRunListener {
	return &TracingWorkflowRunListener{tracer: tracer}
}

func (l *TracingWorkflowRunListener) BeforeRun(ctx context.Context, run *model.WorkflowRun) {
	l.tracer.RecordEvent(ctx, EventRunStarted, map[string]interface{}{
		"run.id":      run.ID,
		"workflow.id": run.WorkflowID,
	})
}

func (l *TracingWorkflowRunListener) AfterRun(ctx context.Context, run *model.WorkflowRun) {
	attrs := map[string]interface{}{
		"run.id": run.ID,
		"status": run.Status.String(),
		"nodes":  len(run.NodeExecutions),
	}
	if run.Error != "" {
		attrs["error"] = run.Error
	}
	l.tracer.RecordEvent(ctx, EventRunFinished, attrs)
}

var _ port.WorkflowRunListener = (*TracingWorkflowRunListener)(nil)

// TracingNodeExecutionListener adds an event per finished node to the node span.
type TracingNodeExecutionListener struct {
	tracer metrics.Tracer
}

func NewTracingNodeExecutionListener(tracer metrics.Tracer) *TracingNodeExecutionListener {
	return &TracingNodeExecutionListener{tracer: tracer}
}

func (l *TracingNodeExecutionListener) BeforeNode(ctx context.Context, run *model.WorkflowRun, node model.Node) {
}

func (l *TracingNodeExecutionListener) AfterNode(ctx context.Context, run *model.WorkflowRun, execution *model.NodeExecution) {
	attrs := map[string]interface{}{
		"node.id":   execution.NodeID,
		"node.type": execution.NodeType,
		"status":    execution.Status.String(),
	}
	if execution.CompletedAt != nil {
		attrs["duration_ms"] = execution.CompletedAt.Sub(execution.StartedAt).Milliseconds()
	}
	l.tracer.RecordEvent(ctx, EventNodeFinished, attrs)
}

var _ port.NodeExecutionListener = (*TracingNodeExecutionListener)(nil)

package metrics

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	metrics "github.com/tigerroll/pdfflow/pkg/orchestration/core/metrics"
)

// meterName is the instrumentation scope of every instrument created by OtelRecorder.
const meterName = "github.com/tigerroll/pdfflow/orchestration"

// OtelRecorder is an OpenTelemetry implementation of the metrics.MetricRecorder
// interface. Measurements are pushed by the MeterProvider's reader.
type OtelRecorder struct {
	batchStarted  metric.Int64Counter
	batchFinished metric.Int64Counter
	batchDuration metric.Float64Histogram
	items         metric.Int64Counter
	itemDuration  metric.Float64Histogram
	runStarted    metric.Int64Counter
	runFinished   metric.Int64Counter
	runDuration   metric.Float64Histogram
	nodes         metric.Int64Counter
	nodeDuration  metric.Float64Histogram
	durations     metric.Float64Histogram
}

// NewOtelRecorder creates the instruments on a meter of provider.
func NewOtelRecorder(provider metric.MeterProvider) (*OtelRecorder, error) {
	m := provider.Meter(meterName)
	r := &OtelRecorder{}
	var errs []error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := m.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}
	histogram := func(name, desc string) metric.Float64Histogram {
		h, err := m.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		errs = append(errs, err)
		return h
	}

	r.batchStarted = counter("pdfflow.batch.jobs.started", "Batch jobs that entered RUNNING.")
	r.batchFinished = counter("pdfflow.batch.jobs.finished", "Finished batch jobs by final status.")
	r.batchDuration = histogram("pdfflow.batch.job.duration", "Duration of batch job executions.")
	r.items = counter("pdfflow.batch.items", "Processed batch items by outcome.")
	r.itemDuration = histogram("pdfflow.batch.item.duration", "Duration of operation handler calls for batch items.")
	r.runStarted = counter("pdfflow.workflow.runs.started", "Workflow runs that entered RUNNING.")
	r.runFinished = counter("pdfflow.workflow.runs.finished", "Finished workflow runs by final status.")
	r.runDuration = histogram("pdfflow.workflow.run.duration", "Duration of workflow runs.")
	r.nodes = counter("pdfflow.workflow.nodes", "Executed workflow nodes by type and status.")
	r.nodeDuration = histogram("pdfflow.workflow.node.duration", "Duration of workflow node executions.")
	r.durations = histogram("pdfflow.operation.duration", "Duration of named operations.")

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// RecordBatchStart records the start of a BatchJob.
func (r *OtelRecorder) RecordBatchStart(ctx context.Context, job *model.BatchJob) {
	r.batchStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", job.Operation)))
}

// RecordBatchEnd records the terminal state of a BatchJob.
func (r *OtelRecorder) RecordBatchEnd(ctx context.Context, job *model.BatchJob) {
	attrs := metric.WithAttributes(
		attribute.String("operation", job.Operation),
		attribute.String("status", job.Status.String()),
	)
	r.batchFinished.Add(ctx, 1, attrs)
	if job.StartedAt != nil && job.CompletedAt != nil {
		r.batchDuration.Record(ctx, job.CompletedAt.Sub(*job.StartedAt).Seconds(), attrs)
	}
}

// RecordItem records the outcome of one batch item.
func (r *OtelRecorder) RecordItem(ctx context.Context, operation string, code string, duration time.Duration) {
	r.items.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome(code)),
	))
	r.itemDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordRunStart records the start of a WorkflowRun.
func (r *OtelRecorder) RecordRunStart(ctx context.Context, run *model.WorkflowRun) {
	r.runStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("workflow_id", run.WorkflowID)))
}

// RecordRunEnd records the terminal state of a WorkflowRun.
func (r *OtelRecorder) RecordRunEnd(ctx context.Context, run *model.WorkflowRun) {
	attrs := metric.WithAttributes(
		attribute.String("workflow_id", run.WorkflowID),
		attribute.String("status", run.Status.String()),
	)
	r.runFinished.Add(ctx, 1, attrs)
	if run.StartedAt != nil && run.CompletedAt != nil {
		r.runDuration.Record(ctx, run.CompletedAt.Sub(*run.StartedAt).Seconds(), attrs)
	}
}

// RecordNode records a finished node execution.
func (r *OtelRecorder) RecordNode(ctx context.Context, workflowID string, execution *model.NodeExecution) {
	r.nodes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node_type", execution.NodeType),
		attribute.String("status", execution.Status.String()),
	))
	if execution.CompletedAt != nil {
		r.nodeDuration.Record(ctx, execution.CompletedAt.Sub(execution.StartedAt).Seconds(),
			metric.WithAttributes(attribute.String("node_type", execution.NodeType)))
	}
}

// RecordDuration records the execution time of a specific operation. Every tag becomes an attribute.
func (r *OtelRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	attrs := make([]attribute.KeyValue, 0, len(tags)+1)
	attrs = append(attrs, attribute.String("name", name))
	for k, v := range tags {
		attrs = append(attrs, attribute.String(k, v))
	}
	r.durations.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

var _ metrics.MetricRecorder = (*OtelRecorder)(nil)

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	metrics "github.com/tigerroll/pdfflow/pkg/orchestration/core/metrics"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// tracerName is the instrumentation scope of every span created by OtelTracer.
const tracerName = "github.com/tigerroll/pdfflow/orchestration"

// OtelTracer is an implementation of metrics.Tracer using OpenTelemetry.
// Batch item spans are children of the batch span, node spans children of the run span.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer creates an OtelTracer on a tracer of provider.
func NewOtelTracer(provider trace.TracerProvider) *OtelTracer {
	return &OtelTracer{tracer: provider.Tracer(tracerName)}
}

// StartBatchSpan starts a span for a BatchJob execution.
func (t *OtelTracer) StartBatchSpan(ctx context.Context, job *model.BatchJob) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "batch "+job.Operation, trace.WithAttributes(
		attribute.String("pdfflow.batch.id", job.ID),
		attribute.String("pdfflow.batch.name", job.Name),
		attribute.String("pdfflow.batch.operation", job.Operation),
		attribute.Int("pdfflow.batch.items", len(job.InputItems)),
		attribute.Int("pdfflow.batch.attempt", job.Attempt),
	))
	return ctx, func() { span.End() }
}

// StartItemSpan starts a span for one batch item.
func (t *OtelTracer) StartItemSpan(ctx context.Context, job *model.BatchJob, item string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "item "+job.Operation, trace.WithAttributes(
		attribute.String("pdfflow.batch.id", job.ID),
		attribute.String("pdfflow.item", item),
	))
	return ctx, func() { span.End() }
}

// StartRunSpan starts a span for a WorkflowRun.
func (t *OtelTracer) StartRunSpan(ctx context.Context, run *model.WorkflowRun) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "workflow run", trace.WithAttributes(
		attribute.String("pdfflow.run.id", run.ID),
		attribute.String("pdfflow.workflow.id", run.WorkflowID),
	))
	return ctx, func() { span.End() }
}

// StartNodeSpan starts a span for one node of a run.
func (t *OtelTracer) StartNodeSpan(ctx context.Context, run *model.WorkflowRun, node model.Node) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "node "+node.Type, trace.WithAttributes(
		attribute.String("pdfflow.run.id", run.ID),
		attribute.String("pdfflow.node.id", node.ID),
		attribute.String("pdfflow.node.type", node.Type),
	))
	return ctx, func() { span.End() }
}

// RecordError records err on the current span and marks the span as failed.
func (t *OtelTracer) RecordError(ctx context.Context, module string, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		logger.Debugf("Tracing: error in %s outside of a recording span: %v", module, err)
		return
	}
	span.RecordError(err, trace.WithAttributes(attribute.String("pdfflow.module", module)))
	span.SetStatus(codes.Error, err.Error())
}

// RecordEvent adds an event to the current span. Attribute values are stringified.
func (t *OtelTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		attrs = append(attrs, attribute.String(k, fmt.Sprint(v)))
	}
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

var _ metrics.Tracer = (*OtelTracer)(nil)

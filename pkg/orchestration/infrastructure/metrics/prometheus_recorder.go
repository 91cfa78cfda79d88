package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	metrics "github.com/tigerroll/pdfflow/pkg/orchestration/core/metrics"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// successOutcome labels items and nodes that did not fail.
const successOutcome = "success"

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	// Batch Metrics
	batchStartedCounter *prometheus.CounterVec
	batchStatusCounter  *prometheus.CounterVec
	batchDuration       *prometheus.HistogramVec

	// Item Metrics
	itemCounter  *prometheus.CounterVec
	itemDuration *prometheus.HistogramVec

	// Workflow Metrics
	runStartedCounter *prometheus.CounterVec
	runStatusCounter  *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
	nodeCounter       *prometheus.CounterVec
	nodeDuration      *prometheus.HistogramVec

	operationDuration *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a PrometheusRecorder backed by a private registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		batchStartedCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdfflow_batch_jobs_started_total",
			Help: "Total number of batch jobs that entered RUNNING.",
		}, []string{"operation"}),
		batchStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdfflow_batch_jobs_total",
			Help: "Total number of finished batch jobs by final status.",
		}, []string{"operation", "status"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pdfflow_batch_job_duration_seconds",
			Help:    "Duration of batch job executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		itemCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdfflow_batch_items_total",
			Help: "Total number of processed batch items by outcome (success or error code).",
		}, []string{"operation", "outcome"}),
		itemDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pdfflow_batch_item_duration_seconds",
			Help:    "Duration of operation handler calls for batch items.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		runStartedCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdfflow_workflow_runs_started_total",
			Help: "Total number of workflow runs that entered RUNNING.",
		}, []string{"workflow_id"}),
		runStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdfflow_workflow_runs_total",
			Help: "Total number of finished workflow runs by final status.",
		}, []string{"workflow_id", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pdfflow_workflow_run_duration_seconds",
			Help:    "Duration of workflow runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"workflow_id", "status"}),
		nodeCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdfflow_workflow_nodes_total",
			Help: "Total number of executed workflow nodes by type and status.",
		}, []string{"node_type", "status"}),
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pdfflow_workflow_node_duration_seconds",
			Help:    "Duration of workflow node executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"node_type"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pdfflow_operation_duration_seconds",
			Help:    "Duration of named operations recorded through RecordDuration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"name", "status"}),
	}

	registry.MustRegister(
		r.batchStartedCounter,
		r.batchStatusCounter,
		r.batchDuration,
		r.itemCounter,
		r.itemDuration,
		r.runStartedCounter,
		r.runStatusCounter,
		r.runDuration,
		r.nodeCounter,
		r.nodeDuration,
		r.operationDuration,
	)
	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// RecordBatchStart records the start of a BatchJob.
func (r *PrometheusRecorder) RecordBatchStart(ctx context.Context, job *model.BatchJob) {
	r.batchStartedCounter.WithLabelValues(job.Operation).Inc()
	logger.Debugf("Metrics: Batch job '%s' started.", job.Name)
}

// RecordBatchEnd records the terminal state of a BatchJob.
func (r *PrometheusRecorder) RecordBatchEnd(ctx context.Context, job *model.BatchJob) {
	status := job.Status.String()
	r.batchStatusCounter.WithLabelValues(job.Operation, status).Inc()
	// Jobs cancelled before they started have no duration.
	if job.StartedAt == nil || job.CompletedAt == nil {
		return
	}
	duration := job.CompletedAt.Sub(*job.StartedAt).Seconds()
	r.batchDuration.WithLabelValues(job.Operation, status).Observe(duration)
	logger.Debugf("Metrics: Batch job '%s' ended. Duration: %.3fs", job.Name, duration)
}

// RecordItem records the outcome of one batch item.
func (r *PrometheusRecorder) RecordItem(ctx context.Context, operation string, code string, duration time.Duration) {
	r.itemCounter.WithLabelValues(operation, outcome(code)).Inc()
	r.itemDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRunStart records the start of a WorkflowRun.
func (r *PrometheusRecorder) RecordRunStart(ctx context.Context, run *model.WorkflowRun) {
	r.runStartedCounter.WithLabelValues(run.WorkflowID).Inc()
	logger.Debugf("Metrics: Workflow run '%s' started.", run.ID)
}

// RecordRunEnd records the terminal state of a WorkflowRun.
func (r *PrometheusRecorder) RecordRunEnd(ctx context.Context, run *model.WorkflowRun) {
	status := run.Status.String()
	r.runStatusCounter.WithLabelValues(run.WorkflowID, status).Inc()
	if run.StartedAt == nil || run.CompletedAt == nil {
		return
	}
	duration := run.CompletedAt.Sub(*run.StartedAt).Seconds()
	r.runDuration.WithLabelValues(run.WorkflowID, status).Observe(duration)
	logger.Debugf("Metrics: Workflow run '%s' ended. Duration: %.3fs", run.ID, duration)
}

// RecordNode records a finished node execution.
func (r *PrometheusRecorder) RecordNode(ctx context.Context, workflowID string, execution *model.NodeExecution) {
	r.nodeCounter.WithLabelValues(execution.NodeType, execution.Status.String()).Inc()
	if execution.CompletedAt != nil {
		r.nodeDuration.WithLabelValues(execution.NodeType).Observe(execution.CompletedAt.Sub(execution.StartedAt).Seconds())
	}
}

// RecordDuration records the execution time of a specific operation. Only the
// "status" tag is kept as a label.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.operationDuration.WithLabelValues(name, tags["status"]).Observe(duration.Seconds())
}

func outcome(code string) string {
	if code == "" {
		return successOutcome
	}
	return code
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)

package metrics

import (
	"context"
	"sync"
	"time"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/metrics"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// MetricEvent represents a metric event to be recorded asynchronously.
type MetricEvent struct {
	Type       string
	Job        *model.BatchJob
	Run        *model.WorkflowRun
	Node       *model.NodeExecution
	WorkflowID string
	// Name is the operation of item events and the measured name of duration events.
	Name     string
	Code     string
	Duration time.Duration
	Tags     map[string]string
}

// Metric event type constants
const (
	MetricEventTypeBatchStart     = "batch_start"
	MetricEventTypeBatchEnd       = "batch_end"
	MetricEventTypeItem           = "item"
	MetricEventTypeRunStart       = "run_start"
	MetricEventTypeRunEnd         = "run_end"
	MetricEventTypeNode           = "node"
	MetricEventTypeRecordDuration = "record_duration"
)

// AsyncMetricRecorder asynchronously records metrics by pushing events to a channel
// and processing them in a separate goroutine.
type AsyncMetricRecorder struct {
	eventQueue   chan MetricEvent
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	syncRecorder metrics.MetricRecorder // The concrete instance that performs actual metric recording
}

// NewAsyncMetricRecorder creates a new asynchronous metric recorder.
// bufferSize: The buffer size for the event queue. If 0 or less, a default value is used.
// syncRec: The synchronous recorder that performs the actual metric recording.
func NewAsyncMetricRecorder(bufferSize int, syncRec metrics.MetricRecorder) *AsyncMetricRecorder {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	r := &AsyncMetricRecorder{
		eventQueue:   make(chan MetricEvent, bufferSize),
		stopCh:       make(chan struct{}),
		syncRecorder: syncRec,
	}
	r.wg.Add(1)
	go r.run()
	logger.Debugf("AsyncMetricRecorder: Worker goroutine started (buffer size: %d).", bufferSize)
	return r
}

// run reads events from the queue until Close, then drains what is left.
func (r *AsyncMetricRecorder) run() {
	defer r.wg.Done()
	for {
		select {
		case event := <-r.eventQueue:
			r.processEvent(event)
		case <-r.stopCh:
			remainingEvents := len(r.eventQueue)
			for i := 0; i < remainingEvents; i++ {
				r.processEvent(<-r.eventQueue)
			}
			logger.Debugf("AsyncMetricRecorder: Worker goroutine stopped. Processed %d remaining events.", remainingEvents)
			return
		}
	}
}

func (r *AsyncMetricRecorder) processEvent(event MetricEvent) {
	// The caller's context may be cancelled by the time the event is processed.
	ctx := context.Background()
	switch event.Type {
	case MetricEventTypeBatchStart:
		r.syncRecorder.RecordBatchStart(ctx, event.Job)
	case MetricEventTypeBatchEnd:
		r.syncRecorder.RecordBatchEnd(ctx, event.Job)
	case MetricEventTypeItem:
		r.syncRecorder.RecordItem(ctx, event.Name, event.Code, event.Duration)
	case MetricEventTypeRunStart:
		r.syncRecorder.RecordRunStart(ctx, event.Run)
	case MetricEventTypeRunEnd:
		r.syncRecorder.RecordRunEnd(ctx, event.Run)
	case MetricEventTypeNode:
		r.syncRecorder.RecordNode(ctx, event.WorkflowID, event.Node)
	case MetricEventTypeRecordDuration:
		r.syncRecorder.RecordDuration(ctx, event.Name, event.Duration, event.Tags)
	default:
		logger.Warnf("AsyncMetricRecorder: Unknown metric event type: %s", event.Type)
	}
}

// Close stops the worker after the queued events have been recorded. Events sent
// after Close are discarded.
func (r *AsyncMetricRecorder) Close() {
	r.stopOnce.Do(func() {
		logger.Debugf("AsyncMetricRecorder: Sending shutdown signal...")
		close(r.stopCh)
	})
	r.wg.Wait()
}

func (r *AsyncMetricRecorder) sendEvent(event MetricEvent, id string) {
	select {
	case <-r.stopCh:
		logger.Debugf("AsyncMetricRecorder: Recorder closed, event discarded (type: %s, ID: %s).", event.Type, id)
		return
	default:
	}
	select {
	case r.eventQueue <- event:
	default:
		logger.Warnf("AsyncMetricRecorder: Event queue is full (type: %s, ID: %s). Event discarded.", event.Type, id)
	}
}

// RecordBatchStart asynchronously records the start of a BatchJob.
func (r *AsyncMetricRecorder) RecordBatchStart(ctx context.Context, job *model.BatchJob) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeBatchStart, Job: job.Clone()}, job.ID)
}

// RecordBatchEnd asynchronously records the terminal state of a BatchJob.
func (r *AsyncMetricRecorder) RecordBatchEnd(ctx context.Context, job *model.BatchJob) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeBatchEnd, Job: job.Clone()}, job.ID)
}

// RecordItem asynchronously records the outcome of one batch item.
func (r *AsyncMetricRecorder) RecordItem(ctx context.Context, operation string, code string, duration time.Duration) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeItem, Name: operation, Code: code, Duration: duration}, operation)
}

// RecordRunStart asynchronously records the start of a WorkflowRun.
func (r *AsyncMetricRecorder) RecordRunStart(ctx context.Context, run *model.WorkflowRun) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeRunStart, Run: run.Clone()}, run.ID)
}

// RecordRunEnd asynchronously records the terminal state of a WorkflowRun.
func (r *AsyncMetricRecorder) RecordRunEnd(ctx context.Context, run *model.WorkflowRun) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeRunEnd, Run: run.Clone()}, run.ID)
}

// RecordNode asynchronously records a finished node execution.
func (r *AsyncMetricRecorder) RecordNode(ctx context.Context, workflowID string, execution *model.NodeExecution) {
	ne := *execution
	r.sendEvent(MetricEvent{Type: MetricEventTypeNode, WorkflowID: workflowID, Node: &ne}, execution.NodeID)
}

// RecordDuration asynchronously records the execution time of a specific operation.
func (r *AsyncMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeRecordDuration, Name: name, Duration: duration, Tags: tags}, name)
}

var _ metrics.MetricRecorder = (*AsyncMetricRecorder)(nil)

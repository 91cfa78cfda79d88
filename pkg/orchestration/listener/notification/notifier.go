package notification

import (
	"context"
	"fmt"
	"time"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// DummyNotifier is a dummy implementation that only logs notifications.
type DummyNotifier struct{}

// NewDummyNotifier creates a new instance of DummyNotifier.
func NewDummyNotifier() *DummyNotifier {
	logger.Infof("Notification: Initializing Dummy Notifier.")
	return &DummyNotifier{}
}

// NotifyBatchCompletion notifies of batch job completion.
func (n *DummyNotifier) NotifyBatchCompletion(ctx context.Context, job *model.BatchJob) {
	if job.Status == model.StatusCompleted {
		logger.Infof("%s", batchMessage(job))
	} else {
		logger.Warnf("%s", batchMessage(job))
	}
}

// NotifyRunCompletion notifies of workflow run completion.
func (n *DummyNotifier) NotifyRunCompletion(ctx context.Context, run *model.WorkflowRun) {
	if run.Status == model.StatusCompleted {
		logger.Infof("%s", runMessage(run))
	} else {
		logger.Warnf("%s", runMessage(run))
	}
}

var _ port.Notifier = (*DummyNotifier)(nil)

func elapsed(start, end *time.Time) time.Duration {
	if start == nil || end == nil {
		return 0
	}
	return end.Sub(*start)
}

func batchMessage(job *model.BatchJob) string {
	return fmt.Sprintf(
		"Batch Notification: Job '%s' (ID: %s, operation: %s, attempt: %d) finished with Status: %s. Duration: %s, Completed: %d, Failed: %d, Total: %d",
		job.Name,
		job.ID,
		job.Operation,
		job.Attempt,
		job.Status,
		elapsed(job.StartedAt, job.CompletedAt),
		job.Progress.Completed,
		job.Progress.Failed,
		job.Progress.Total,
	)
}

func runMessage(run *model.WorkflowRun) string {
	msg := fmt.Sprintf(
		"Workflow Notification: Run %s of workflow %s finished with Status: %s. Duration: %s, Nodes executed: %d",
		run.ID,
		run.WorkflowID,
		run.Status,
		elapsed(run.StartedAt, run.CompletedAt),
		len(run.NodeExecutions),
	)
	if run.Error != "" {
		msg += fmt.Sprintf(", Error: %s", run.Error)
	}
	return msg
}

// NotificationListener sends a notification through a Notifier whenever a batch job
// or a workflow run reaches a terminal status.
type NotificationListener struct {
	notifier port.Notifier
}

// NewNotificationListener creates a new instance of NotificationListener.
func NewNotificationListener(notifier port.Notifier) *NotificationListener {
	return &NotificationListener{notifier: notifier}
}

// BeforeBatch exists to satisfy BatchJobListener requirements but does nothing.
func (l *NotificationListener) BeforeBatch(ctx context.Context, job *model.BatchJob) {}

// AfterBatch calls the Notifier's NotifyBatchCompletion.
func (l *NotificationListener) AfterBatch(ctx context.Context, job *model.BatchJob) {
	l.notifier.NotifyBatchCompletion(ctx, job)
}

// BeforeRun exists to satisfy WorkflowRunListener requirements but does nothing.
func (l *NotificationListener) BeforeRun(ctx context.Context, run *model.WorkflowRun) {}

// AfterRun calls the Notifier's NotifyRunCompletion.
func (l *NotificationListener) AfterRun(ctx context.Context, run *model.WorkflowRun) {
	l.notifier.NotifyRunCompletion(ctx, run)
}

var (
	_ port.BatchJobListener    = (*NotificationListener)(nil)
	_ port.WorkflowRunListener = (*NotificationListener)(nil)
)

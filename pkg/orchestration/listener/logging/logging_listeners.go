package logging

import (
	"context"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/serialization"
)

// --- Batch Job Listener ---

type LoggingBatchJobListener struct {
	maskedKeys []string
}

func NewLoggingBatchJobListener(maskedKeys []string) *LoggingBatchJobListener {
	return &LoggingBatchJobListener{maskedKeys: maskedKeys}
}

func (l *LoggingBatchJobListener) BeforeBatch(ctx context.Context, job *model.BatchJob) {
	logger.Infof("BatchJobListener: BeforeBatch - Name: %s, ID: %s, Operation: %s, Items: %d, Options: %s",
		job.Name, job.ID, job.Operation, len(job.InputItems), serialization.MaskedString(job.Options, l.maskedKeys))
}

func (l *LoggingBatchJobListener) AfterBatch(ctx context.Context, job *model.BatchJob) {
	failed := 0
	if job.Result != nil {
		failed = len(job.Result.Errors)
	}
	logger.Infof("BatchJobListener: AfterBatch - Name: %s, Status: %s, Completed: %d, Failed: %d, Errors: %d",
		job.Name, job.Status, job.Progress.Completed, job.Progress.Failed, failed)
}

var _ port.BatchJobListener = (*LoggingBatchJobListener)(nil)

// --- Workflow Run Listener ---

type LoggingWorkflowRunListener struct{}

func NewLoggingWorkflowRunListener() *LoggingWorkflowRunListener {
	return &LoggingWorkflowRunListener{}
}

func (l *LoggingWorkflowRunListener) BeforeRun(ctx context.Context, run *model.WorkflowRun) {
	logger.Infof("WorkflowRunListener: BeforeRun - ID: %s, Workflow: %s", run.ID, run.WorkflowID)
}

func (l *LoggingWorkflowRunListener) AfterRun(ctx context.Context, run *model.WorkflowRun) {
	if run.Status == model.StatusFailed {
		logger.Warnf("WorkflowRunListener: AfterRun - ID: %s, Status: %s, Error: %s", run.ID, run.Status, run.Error)
		return
	}
	logger.Infof("WorkflowRunListener: AfterRun - ID: %s, Status: %s, Nodes: %d", run.ID, run.Status, len(run.NodeExecutions))
}

var _ port.WorkflowRunListener = (*LoggingWorkflowRunListener)(nil)

// --- Node Execution Listener ---

type LoggingNodeExecutionListener struct{}

func NewLoggingNodeExecutionListener() *LoggingNodeExecutionListener {
	return &LoggingNodeExecutionListener{}
}

func (l *LoggingNodeExecutionListener) BeforeNode(ctx context.Context, run *model.WorkflowRun, node model.Node) {
	logger.Debugf("NodeExecutionListener: BeforeNode - Run: %s, Node: %s (%s)", run.ID, node.ID, node.Type)
}

func (l *LoggingNodeExecutionListener) AfterNode(ctx context.Context, run *model.WorkflowRun, execution *model.NodeExecution) {
	if execution.Status == model.NodeStatusFailed {
		logger.Errorf("NodeExecutionListener: AfterNode - Run: %s, Node: %s, Status: %s, Error: %s",
			run.ID, execution.NodeID, execution.Status, execution.Error)
		return
	}
	logger.Debugf("NodeExecutionListener: AfterNode - Run: %s, Node: %s, Status: %s", run.ID, execution.NodeID, execution.Status)
}

var _ port.NodeExecutionListener = (*LoggingNodeExecutionListener)(nil)

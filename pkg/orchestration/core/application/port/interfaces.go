package port

import (
	"context"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
)

// BatchRunner drives one batch job from PENDING to a terminal status.
type BatchRunner interface {
	Run(ctx context.Context, jobID string) error
}

// WorkflowExecutor drives one workflow run over a graph from PENDING to a terminal status.
type WorkflowExecutor interface {
	Execute(ctx context.Context, graph *model.WorkflowGraph, runID string) error
}

// BatchJobListener is an interface for handling batch job execution events.
type BatchJobListener interface {
	// BeforeBatch is called after the job entered RUNNING and before the first item.
	BeforeBatch(ctx context.Context, job *model.BatchJob)
	// AfterBatch is called once the job reached a terminal status.
	AfterBatch(ctx context.Context, job *model.BatchJob)
}

// WorkflowRunListener is an interface for handling workflow run events.
type WorkflowRunListener interface {
	BeforeRun(ctx context.Context, run *model.WorkflowRun)
	AfterRun(ctx context.Context, run *model.WorkflowRun)
}

// NodeExecutionListener is an interface for handling node execution events within a run.
type NodeExecutionListener interface {
	BeforeNode(ctx context.Context, run *model.WorkflowRun, node model.Node)
	AfterNode(ctx context.Context, run *model.WorkflowRun, execution *model.NodeExecution)
}

// Notifier sends a message about finished executions to an external party.
type Notifier interface {
	NotifyBatchCompletion(ctx context.Context, job *model.BatchJob)
	NotifyRunCompletion(ctx context.Context, run *model.WorkflowRun)
}

// Listeners fans events out to every registered listener in registration order.
// Listeners receive copies of the records, so they cannot corrupt scheduler state.
type Listeners struct {
	Batch []BatchJobListener
	Run   []WorkflowRunListener
	Node  []NodeExecutionListener
}

func (l *Listeners) BeforeBatch(ctx context.Context, job *model.BatchJob) {
	if l == nil {
		return
	}
	for _, bl := range l.Batch {
		bl.BeforeBatch(ctx, job.Clone())
	}
}

func (l *Listeners) AfterBatch(ctx context.Context, job *model.BatchJob) {
	if l == nil {
		return
	}
	for _, bl := range l.Batch {
		bl.AfterBatch(ctx, job.Clone())
	}
}

func (l *Listeners) BeforeRun(ctx context.Context, run *model.WorkflowRun) {
	if l == nil {
		return
	}
	for _, rl := range l.Run {
		rl.BeforeRun(ctx, run.Clone())
	}
}

func (l *Listeners) AfterRun(ctx context.Context, run *model.WorkflowRun) {
	if l == nil {
		return
	}
	for _, rl := range l.Run {
		rl.AfterRun(ctx, run.Clone())
	}
}

func (l *Listeners) BeforeNode(ctx context.Context, run *model.WorkflowRun, node model.Node) {
	if l == nil {
		return
	}
	for _, nl := range l.Node {
		nl.BeforeNode(ctx, run.Clone(), node)
	}
}

func (l *Listeners) AfterNode(ctx context.Context, run *model.WorkflowRun, execution *model.NodeExecution) {
	if l == nil {
		return
	}
	for _, nl := range l.Node {
		ne := *execution
		nl.AfterNode(ctx, run.Clone(), &ne)
	}
}

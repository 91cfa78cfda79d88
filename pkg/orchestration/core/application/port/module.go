package port

import (
	"go.uber.org/fx"
)

// Value group names used to contribute listeners.
const (
	BatchJobListenerGroup      = "batchJobListeners"
	WorkflowRunListenerGroup   = "workflowRunListeners"
	NodeExecutionListenerGroup = "nodeExecutionListeners"
)

// ListenerParams collects the listeners contributed by listener modules.
type ListenerParams struct {
	fx.In
	Batch []BatchJobListener      `group:"batchJobListeners"`
	Run   []WorkflowRunListener   `group:"workflowRunListeners"`
	Node  []NodeExecutionListener `group:"nodeExecutionListeners"`
}

// NewListeners builds the fan-out Listeners from the fx value groups.
func NewListeners(p ListenerParams) *Listeners {
	return &Listeners{Batch: p.Batch, Run: p.Run, Node: p.Node}
}

// AsBatchJobListener annotates a constructor so its result joins the batch listener group.
func AsBatchJobListener(constructor interface{}) interface{} {
	return fx.Annotate(constructor, fx.As(new(BatchJobListener)), fx.ResultTags(`group:"batchJobListeners"`))
}

// AsWorkflowRunListener annotates a constructor so its result joins the run listener group.
func AsWorkflowRunListener(constructor interface{}) interface{} {
	return fx.Annotate(constructor, fx.As(new(WorkflowRunListener)), fx.ResultTags(`group:"workflowRunListeners"`))
}

// AsNodeExecutionListener annotates a constructor so its result joins the node listener group.
func AsNodeExecutionListener(constructor interface{}) interface{} {
	return fx.Annotate(constructor, fx.As(new(NodeExecutionListener)), fx.ResultTags(`group:"nodeExecutionListeners"`))
}

// Module provides *Listeners.
var Module = fx.Options(
	fx.Provide(NewListeners),
)

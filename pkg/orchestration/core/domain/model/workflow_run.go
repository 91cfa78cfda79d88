package model

import (
	"time"

	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
)

// NodeExecution records one node's execution within a run.
type NodeExecution struct {
	NodeID      string                 `json:"nodeId"`
	NodeType    string                 `json:"nodeType"`
	Status      NodeStatus             `json:"status"`
	StartedAt   time.Time              `json:"startedAt"`
	CompletedAt *time.Time             `json:"completedAt,omitempty"`
	Inputs      map[string]interface{} `json:"inputs"`
	Outputs     map[string]interface{} `json:"outputs"`
	Error       string                 `json:"error,omitempty"`
}

// NewNodeExecution creates a RUNNING execution record for a node.
func NewNodeExecution(node Node, inputs map[string]interface{}) *NodeExecution {
	return &NodeExecution{
		NodeID:    node.ID,
		NodeType:  node.Type,
		Status:    NodeStatusRunning,
		StartedAt: time.Now(),
		Inputs:    CopyMap(inputs),
		Outputs:   map[string]interface{}{},
	}
}

// Complete marks the execution as COMPLETED with the given outputs.
func (ne *NodeExecution) Complete(outputs map[string]interface{}) {
	now := time.Now()
	ne.Status = NodeStatusCompleted
	ne.CompletedAt = &now
	if outputs != nil {
		ne.Outputs = outputs
	}
}

// Fail marks the execution as FAILED.
func (ne *NodeExecution) Fail(err error) {
	now := time.Now()
	ne.Status = NodeStatusFailed
	ne.CompletedAt = &now
	ne.Error = exception.ExtractErrorMessage(err)
}

// WorkflowRun is one execution of a WorkflowGraph.
type WorkflowRun struct {
	ID             string                 `json:"id"`
	WorkflowID     string                 `json:"workflowId"`
	Status         JobStatus              `json:"status"`
	Inputs         map[string]interface{} `json:"inputs"`
	Outputs        map[string]interface{} `json:"outputs"`
	NodeExecutions []NodeExecution        `json:"nodeExecutions"`
	Error          string                 `json:"error,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	StartedAt      *time.Time             `json:"startedAt,omitempty"`
	CompletedAt    *time.Time             `json:"completedAt,omitempty"`
}

// NewWorkflowRun creates a PENDING run of the given workflow.
func NewWorkflowRun(workflowID string, inputs map[string]interface{}) *WorkflowRun {
	return &WorkflowRun{
		ID:             NewID(),
		WorkflowID:     workflowID,
		Status:         StatusPending,
		Inputs:         CopyMap(inputs),
		Outputs:        map[string]interface{}{},
		NodeExecutions: []NodeExecution{},
		CreatedAt:      time.Now(),
	}
}

// TransitionTo safely transitions the state of the WorkflowRun.
func (r *WorkflowRun) TransitionTo(newStatus JobStatus) error {
	// Runs are never retried; a FAILED run stays FAILED.
	if r.Status == StatusFailed || !isValidJobTransition(r.Status, newStatus) {
		return exception.NewOrchestrationErrorf("workflow_run", exception.CodeInvalidState,
			"WorkflowRun (ID: %s): Invalid state transition: %s -> %s", r.ID, r.Status, newStatus)
	}
	r.Status = newStatus
	return nil
}

// MarkAsStarted moves the run to RUNNING.
func (r *WorkflowRun) MarkAsStarted() error {
	if err := r.TransitionTo(StatusRunning); err != nil {
		return err
	}
	now := time.Now()
	r.StartedAt = &now
	return nil
}

// Finish moves the run to a terminal status. errMsg is only kept for FAILED.
func (r *WorkflowRun) Finish(status JobStatus, errMsg string) error {
	if !status.IsFinished() {
		return exception.NewOrchestrationErrorf("workflow_run", exception.CodeInvalidState,
			"WorkflowRun (ID: %s): %s is not a terminal status", r.ID, status)
	}
	if err := r.TransitionTo(status); err != nil {
		return err
	}
	now := time.Now()
	r.CompletedAt = &now
	if status == StatusFailed {
		r.Error = errMsg
	}
	return nil
}

// AppendNodeExecution appends a finished node execution to the trace.
func (r *WorkflowRun) AppendNodeExecution(ne NodeExecution) {
	r.NodeExecutions = append(r.NodeExecutions, ne)
}

// Clone returns a deep copy of the run.
func (r *WorkflowRun) Clone() *WorkflowRun {
	if r == nil {
		return nil
	}
	c := *r
	c.Inputs = CopyMap(r.Inputs)
	c.Outputs = CopyMap(r.Outputs)
	c.NodeExecutions = make([]NodeExecution, len(r.NodeExecutions))
	for i, ne := range r.NodeExecutions {
		ne.Inputs = CopyMap(ne.Inputs)
		ne.Outputs = CopyMap(ne.Outputs)
		ne.CompletedAt = copyTime(ne.CompletedAt)
		c.NodeExecutions[i] = ne
	}
	c.StartedAt = copyTime(r.StartedAt)
	c.CompletedAt = copyTime(r.CompletedAt)
	return &c
}

package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
)

func newTestBatchJob(items ...string) *BatchJob {
	return NewBatchJob("", "compress", items, "/out", map[string]interface{}{"quality": 80}, false)
}

func TestJobStatus_IsFinished(t *testing.T) {
	assert.False(t, StatusPending.IsFinished())
	assert.False(t, StatusRunning.IsFinished())
	assert.True(t, StatusCompleted.IsFinished())
	assert.True(t, StatusFailed.IsFinished())
	assert.True(t, StatusCancelled.IsFinished())
}

func TestParseJobStatus(t *testing.T) {
	s, ok := ParseJobStatus("running")
	assert.True(t, ok)
	assert.Equal(t, StatusRunning, s)

	_, ok = ParseJobStatus("paused")
	assert.False(t, ok)
}

func TestNewBatchJob(t *testing.T) {
	job := newTestBatchJob("a.pdf", "b.pdf")

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "compress-batch", job.Name)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, 2, job.Progress.Total)
	assert.Equal(t, 1, job.Attempt)
	assert.Nil(t, job.Result)
}

func TestBatchJob_Lifecycle(t *testing.T) {
	job := newTestBatchJob("a.pdf")

	require.NoError(t, job.MarkAsStarted())
	assert.Equal(t, StatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)

	require.NoError(t, job.Finish(StatusFailed, &BatchResult{Success: false}))
	assert.Equal(t, StatusFailed, job.Status)
	assert.NotNil(t, job.CompletedAt)

	// terminal states do not move except FAILED -> PENDING
	err := job.TransitionTo(StatusCompleted)
	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrInvalidState))
}

func TestBatchJob_FinishRejectsNonTerminal(t *testing.T) {
	job := newTestBatchJob("a.pdf")
	require.NoError(t, job.MarkAsStarted())
	assert.Error(t, job.Finish(StatusRunning, nil))
}

func TestBatchJob_ResetForRetry(t *testing.T) {
	job := newTestBatchJob("a.pdf", "b.pdf")
	require.NoError(t, job.MarkAsStarted())
	job.Progress.Completed = 1
	job.Progress.Failed = 1
	job.Progress.Percentage = 100
	require.NoError(t, job.Finish(StatusFailed, &BatchResult{FailedFiles: []string{"b.pdf"}}))

	require.NoError(t, job.ResetForRetry())

	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, Progress{Total: 2}, job.Progress)
	assert.Nil(t, job.Result)
	assert.Nil(t, job.StartedAt)
	assert.Equal(t, 2, job.Attempt)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, job.InputItems)
}

func TestBatchJob_ResetForRetryRequiresFailed(t *testing.T) {
	job := newTestBatchJob("a.pdf")
	err := job.ResetForRetry()
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrInvalidState)
}

func TestBatchJob_CancelFromPending(t *testing.T) {
	job := newTestBatchJob("a.pdf")
	require.NoError(t, job.MarkAsCancelled())
	assert.Equal(t, StatusCancelled, job.Status)
	assert.NotNil(t, job.CompletedAt)
}

func TestBatchJob_CloneIsDeep(t *testing.T) {
	job := newTestBatchJob("a.pdf")
	job.Result = &BatchResult{OutputFiles: []ItemOutput{{Item: "a.pdf", Outputs: []string{"/out/a_compressed.pdf"}}}}

	c := job.Clone()
	c.InputItems[0] = "changed"
	c.Options["quality"] = 10
	c.Result.OutputFiles[0].Outputs[0] = "changed"

	assert.Equal(t, "a.pdf", job.InputItems[0])
	assert.Equal(t, 80, job.Options["quality"])
	assert.Equal(t, "/out/a_compressed.pdf", job.Result.OutputFiles[0].Outputs[0])
}

func TestWorkflowGraph_Validate(t *testing.T) {
	g := &WorkflowGraph{
		Name: "wf",
		Nodes: []Node{
			{ID: "start", Type: NodeTypeStart},
			{ID: "a", Type: "pdf-compress"},
			{ID: "a", Type: "pdf-compress"},
		},
		Edges: []Edge{
			{ID: "e1", Source: "start", Target: "a"},
			{ID: "e2", Source: "a", Target: "missing"},
		},
	}

	err := g.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrValidation)
	assert.Contains(t, err.Error(), "duplicate node id 'a'")
	assert.Contains(t, err.Error(), "unknown target node 'missing'")
}

func TestWorkflowGraph_ValidateEmpty(t *testing.T) {
	err := (&WorkflowGraph{Name: "empty"}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow has no nodes")
}

func TestWorkflowGraph_ValidateAllowsCycles(t *testing.T) {
	g := &WorkflowGraph{
		Name:  "cyclic",
		Nodes: []Node{{ID: "start", Type: NodeTypeStart}, {ID: "A", Type: "script"}, {ID: "B", Type: "script"}},
		Edges: []Edge{{Source: "start", Target: "A"}, {Source: "A", Target: "B"}, {Source: "B", Target: "A"}},
	}
	assert.NoError(t, g.Validate())
}

func TestWorkflowGraph_ValidateRejectsUnknownConditionType(t *testing.T) {
	g := &WorkflowGraph{
		Name:  "wf",
		Nodes: []Node{{ID: "start", Type: NodeTypeStart}, {ID: "A", Type: "script"}},
		Edges: []Edge{{ID: "e1", Source: "start", Target: "A", Condition: &EdgeCondition{Type: "regex"}}},
	}
	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown condition type 'regex'")
}

func TestNewWorkflowGraph(t *testing.T) {
	def := WorkflowDefinition{
		Name:  "wf",
		Nodes: []Node{{ID: "start", Type: NodeTypeStart, Config: map[string]interface{}{"k": "v"}}},
	}
	g := NewWorkflowGraph(def)

	assert.NotEmpty(t, g.ID)
	assert.Equal(t, WorkflowStatusDraft, g.Status)
	assert.Equal(t, 0, g.RunCount)
	assert.Empty(t, g.Variables)

	def.Nodes[0].Config["k"] = "changed"
	assert.Equal(t, "v", g.Nodes[0].Config["k"])
}

func TestWorkflowGraph_Apply(t *testing.T) {
	g := NewWorkflowGraph(WorkflowDefinition{Name: "wf", Description: "d", Nodes: []Node{{ID: "start", Type: NodeTypeStart}}})
	before := g.UpdatedAt
	name := "renamed"
	active := WorkflowStatusActive

	g.Apply(WorkflowUpdate{Name: &name, Status: &active})

	assert.Equal(t, "renamed", g.Name)
	assert.Equal(t, "d", g.Description)
	assert.Equal(t, WorkflowStatusActive, g.Status)
	assert.Len(t, g.Nodes, 1)
	assert.False(t, g.UpdatedAt.Before(before))
}

func TestWorkflowRun_Lifecycle(t *testing.T) {
	run := NewWorkflowRun("wf-1", map[string]interface{}{"file": "a.pdf"})
	require.NoError(t, run.MarkAsStarted())

	ne := NewNodeExecution(Node{ID: "start", Type: NodeTypeStart}, run.Inputs)
	ne.Complete(map[string]interface{}{"result": "ok"})
	run.AppendNodeExecution(*ne)

	require.NoError(t, run.Finish(StatusFailed, "boom"))
	assert.Equal(t, "boom", run.Error)
	assert.Len(t, run.NodeExecutions, 1)
	assert.Equal(t, NodeStatusCompleted, run.NodeExecutions[0].Status)

	assert.Error(t, run.TransitionTo(StatusPending))
}

func TestWorkflowRun_FinishCompletedDropsError(t *testing.T) {
	run := NewWorkflowRun("wf-1", nil)
	require.NoError(t, run.MarkAsStarted())
	require.NoError(t, run.Finish(StatusCompleted, "ignored"))
	assert.Empty(t, run.Error)
}

func TestCopyMap(t *testing.T) {
	src := map[string]interface{}{
		"nested": map[string]interface{}{"k": "v"},
		"list":   []interface{}{"a"},
	}
	c := CopyMap(src)
	c["nested"].(map[string]interface{})["k"] = "changed"
	c["list"].([]interface{})[0] = "changed"

	assert.Equal(t, "v", src["nested"].(map[string]interface{})["k"])
	assert.Equal(t, "a", src["list"].([]interface{})[0])
	assert.NotNil(t, CopyMap(nil))
}

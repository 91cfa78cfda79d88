package model

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
)

// Node types with scheduling meaning. All other types are dispatched to handlers
// registered under the same name.
const (
	NodeTypeStart     = "start"
	NodeTypeEnd       = "end"
	NodeTypeCondition = "condition"
	NodeTypeParallel  = "parallel"
	NodeTypeMerge     = "merge"
	NodeTypeDelay     = "delay"
)

// Edge condition types.
const (
	ConditionEquals    = "equals"
	ConditionNotEquals = "not_equals"
	ConditionContains  = "contains"
	ConditionExists    = "exists"
	ConditionTruthy    = "truthy"
)

// IsValidConditionType reports whether t is a known edge condition type.
func IsValidConditionType(t string) bool {
	switch t {
	case ConditionEquals, ConditionNotEquals, ConditionContains, ConditionExists, ConditionTruthy:
		return true
	}
	return false
}

// Port describes a named input or output slot of a node.
type Port struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Required    bool   `json:"required" yaml:"required"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Position is the editor canvas position of a node. Execution ignores it.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a typed step of a workflow graph.
type Node struct {
	ID       string                 `json:"id" yaml:"id"`
	Type     string                 `json:"type" yaml:"type"`
	Name     string                 `json:"name" yaml:"name"`
	Position Position               `json:"position" yaml:"position"`
	Config   map[string]interface{} `json:"config" yaml:"config"`
	Inputs   []Port                 `json:"inputs" yaml:"inputs"`
	Outputs  []Port                 `json:"outputs" yaml:"outputs"`
}

// EdgeCondition guards an edge. The edge only carries data (and makes its target
// eligible) when the condition holds for the source node's outputs.
type EdgeCondition struct {
	// Type is one of "equals", "not_equals", "contains", "exists", "truthy".
	Type  string      `json:"type" yaml:"type"`
	Value interface{} `json:"value" yaml:"value"`
	// Variable names the source output to test; defaults to "result".
	Variable string `json:"variable,omitempty" yaml:"variable,omitempty"`
}

// Edge connects the output port of one node to the input port of another.
type Edge struct {
	ID         string         `json:"id" yaml:"id"`
	Source     string         `json:"source" yaml:"source"`
	SourcePort string         `json:"sourcePort" yaml:"source_port"`
	Target     string         `json:"target" yaml:"target"`
	TargetPort string         `json:"targetPort" yaml:"target_port"`
	Label      string         `json:"label,omitempty" yaml:"label,omitempty"`
	Condition  *EdgeCondition `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Variable is a declared workflow variable.
type Variable struct {
	Name        string      `json:"name" yaml:"name"`
	Type        string      `json:"type" yaml:"type"`
	Value       interface{} `json:"value" yaml:"value"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	IsInput     bool        `json:"isInput" yaml:"is_input"`
	IsOutput    bool        `json:"isOutput" yaml:"is_output"`
}

// Trigger describes how a workflow may be started. Triggers are stored, not scheduled.
type Trigger struct {
	ID      string                 `json:"id" yaml:"id"`
	Type    string                 `json:"type" yaml:"type"`
	Config  map[string]interface{} `json:"config" yaml:"config"`
	Enabled bool                   `json:"enabled" yaml:"enabled"`
}

// WorkflowGraph is a node/edge graph referenced (never mutated) by workflow runs.
type WorkflowGraph struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      WorkflowStatus `json:"status"`
	Nodes       []Node         `json:"nodes"`
	Edges       []Edge         `json:"edges"`
	Variables   []Variable     `json:"variables"`
	Triggers    []Trigger      `json:"triggers"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	LastRunAt   *time.Time     `json:"lastRunAt,omitempty"`
	RunCount    int            `json:"runCount"`
}

// WorkflowDefinition is the caller-supplied content of a workflow graph. It is also
// the document format of workflow definition files.
type WorkflowDefinition struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Status      WorkflowStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Nodes       []Node         `json:"nodes" yaml:"nodes"`
	Edges       []Edge         `json:"edges" yaml:"edges"`
	Variables   []Variable     `json:"variables,omitempty" yaml:"variables,omitempty"`
	Triggers    []Trigger      `json:"triggers,omitempty" yaml:"triggers,omitempty"`
}

// WorkflowUpdate changes selected fields of a workflow. Nil fields are left unchanged.
type WorkflowUpdate struct {
	Name        *string
	Description *string
	Status      *WorkflowStatus
	Nodes       []Node
	Edges       []Edge
	Variables   []Variable
	Triggers    []Trigger
}

// NewWorkflowGraph creates a graph from def with a fresh id. The status defaults to draft.
func NewWorkflowGraph(def WorkflowDefinition) *WorkflowGraph {
	now := time.Now()
	status := def.Status
	if status == "" {
		status = WorkflowStatusDraft
	}
	g := &WorkflowGraph{
		ID:          NewID(),
		Name:        def.Name,
		Description: def.Description,
		Status:      status,
		Nodes:       def.Nodes,
		Edges:       def.Edges,
		Variables:   def.Variables,
		Triggers:    def.Triggers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if g.Variables == nil {
		g.Variables = []Variable{}
	}
	if g.Triggers == nil {
		g.Triggers = []Trigger{}
	}
	return g.Clone()
}

// Apply copies the set fields of u onto g and bumps UpdatedAt.
func (g *WorkflowGraph) Apply(u WorkflowUpdate) {
	if u.Name != nil {
		g.Name = *u.Name
	}
	if u.Description != nil {
		g.Description = *u.Description
	}
	if u.Status != nil {
		g.Status = *u.Status
	}
	if u.Nodes != nil {
		g.Nodes = u.Nodes
	}
	if u.Edges != nil {
		g.Edges = u.Edges
	}
	if u.Variables != nil {
		g.Variables = u.Variables
	}
	if u.Triggers != nil {
		g.Triggers = u.Triggers
	}
	g.UpdatedAt = time.Now()
}

// NodeByID returns the node with the given id.
func (g *WorkflowGraph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Validate checks structural invariants: at least one node, unique node ids,
// and edges that only reference existing nodes. Cycles are permitted here and are
// detected when a run stalls. All problems are reported together.
func (g *WorkflowGraph) Validate() error {
	var result *multierror.Error

	if g.Name == "" {
		result = multierror.Append(result, fmt.Errorf("workflow name is required"))
	}
	if len(g.Nodes) == 0 {
		result = multierror.Append(result, fmt.Errorf("workflow has no nodes"))
	}
	if g.Status != "" && !g.Status.IsValid() {
		result = multierror.Append(result, fmt.Errorf("unknown workflow status '%s'", g.Status))
	}

	ids := make(map[string]struct{}, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			result = multierror.Append(result, fmt.Errorf("node at index %d has no id", i))
			continue
		}
		if n.Type == "" {
			result = multierror.Append(result, fmt.Errorf("node '%s' has no type", n.ID))
		}
		if _, dup := ids[n.ID]; dup {
			result = multierror.Append(result, fmt.Errorf("duplicate node id '%s'", n.ID))
		}
		ids[n.ID] = struct{}{}
	}

	for i, e := range g.Edges {
		label := e.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		if _, ok := ids[e.Source]; !ok {
			result = multierror.Append(result, fmt.Errorf("edge '%s' references unknown source node '%s'", label, e.Source))
		}
		if _, ok := ids[e.Target]; !ok {
			result = multierror.Append(result, fmt.Errorf("edge '%s' references unknown target node '%s'", label, e.Target))
		}
		if e.Condition != nil && !IsValidConditionType(e.Condition.Type) {
			result = multierror.Append(result, fmt.Errorf("edge '%s' has unknown condition type '%s'", label, e.Condition.Type))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return exception.NewOrchestrationError("workflow", exception.CodeValidation, "invalid workflow graph", err)
	}
	return nil
}

// Clone returns a deep copy of the graph.
func (g *WorkflowGraph) Clone() *WorkflowGraph {
	if g == nil {
		return nil
	}
	c := *g
	c.Nodes = make([]Node, len(g.Nodes))
	for i, n := range g.Nodes {
		n.Config = CopyMap(n.Config)
		n.Inputs = append([]Port(nil), n.Inputs...)
		n.Outputs = append([]Port(nil), n.Outputs...)
		c.Nodes[i] = n
	}
	c.Edges = make([]Edge, len(g.Edges))
	for i, e := range g.Edges {
		if e.Condition != nil {
			cond := *e.Condition
			e.Condition = &cond
		}
		c.Edges[i] = e
	}
	c.Variables = append([]Variable(nil), g.Variables...)
	c.Triggers = make([]Trigger, len(g.Triggers))
	for i, t := range g.Triggers {
		t.Config = CopyMap(t.Config)
		c.Triggers[i] = t
	}
	c.LastRunAt = copyTime(g.LastRunAt)
	return &c
}

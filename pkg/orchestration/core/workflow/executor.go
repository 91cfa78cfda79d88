// Package workflow implements the Workflow DAG Executor: it drives one WorkflowRun
// through the nodes of its graph in dependency order.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	repository "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/repository"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/handler"
	metrics "github.com/tigerroll/pdfflow/pkg/orchestration/core/metrics"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/support/expression"
	exception "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

const moduleName = "workflow_executor"

// ErrNoStartNode is the run error of a graph without a start node.
const ErrNoStartNode = "No start node found"

// OutputsKey holds the output locations a handler reported, in node outputs.
const OutputsKey = "outputs"

// Options tunes an Executor.
type Options struct {
	// HandlerTimeout bounds every node handler call. Zero disables the bound.
	HandlerTimeout time.Duration
}

// Executor runs workflow graphs.
type Executor struct {
	runs           repository.WorkflowRunRepository
	registry       handler.Registry
	resolver       expression.Resolver
	listeners      *port.Listeners
	metricRecorder metrics.MetricRecorder
	tracer         metrics.Tracer
	opts           Options
}

// NewExecutor creates a new Executor.
func NewExecutor(
	runs repository.WorkflowRunRepository,
	registry handler.Registry,
	resolver expression.Resolver,
	listeners *port.Listeners,
	metricRecorder metrics.MetricRecorder,
	tracer metrics.Tracer,
	opts Options,
) *Executor {
	if resolver == nil {
		resolver = expression.NewDefaultResolver()
	}
	if metricRecorder == nil {
		metricRecorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &Executor{
		runs:           runs,
		registry:       registry,
		resolver:       resolver,
		listeners:      listeners,
		metricRecorder: metricRecorder,
		tracer:         tracer,
		opts:           opts,
	}
}

// Execute runs the PENDING run identified by runID over graph until it is terminal.
// Cancelling ctx is observed before each node dispatch; a node already in flight is
// allowed to finish and its result is discarded.
//
// Node failures end the run as FAILED and are not returned. Execute only returns an
// error when the run cannot be loaded, is not PENDING, or cannot be persisted.
func (e *Executor) Execute(ctx context.Context, graph *model.WorkflowGraph, runID string) error {
	storeCtx := context.WithoutCancel(ctx)

	run, err := e.runs.FindWorkflowRunByID(storeCtx, runID)
	if err != nil {
		return exception.NewOrchestrationErrorf(moduleName, exception.CodeNotFound, "workflow run '%s' not found", runID, err)
	}
	if run.Status != model.StatusPending {
		return exception.NewOrchestrationErrorf(moduleName, exception.CodeInvalidState,
			"workflow run '%s' cannot be executed from status %s", run.ID, run.Status)
	}

	if ctx.Err() != nil {
		logger.Infof("Workflow run '%s' was cancelled before it started.", run.ID)
		if err := run.Finish(model.StatusCancelled, ""); err != nil {
			return err
		}
		return e.finish(storeCtx, ctx, run)
	}

	ctx, finishSpan := e.tracer.StartRunSpan(ctx, run)
	defer finishSpan()

	if err := run.MarkAsStarted(); err != nil {
		return err
	}
	if err := e.runs.UpdateWorkflowRun(storeCtx, run); err != nil {
		return err
	}
	logger.Infof("Starting workflow run '%s' of workflow '%s' (%d nodes, %d edges).",
		run.ID, graph.ID, len(graph.Nodes), len(graph.Edges))
	e.listeners.BeforeRun(ctx, run)

	status, errMsg, err := e.schedule(ctx, storeCtx, graph, run)
	if err != nil {
		return err
	}
	if status == model.StatusFailed {
		e.tracer.RecordError(ctx, moduleName, errors.New(errMsg))
	}
	if err := run.Finish(status, errMsg); err != nil {
		return err
	}
	return e.finish(storeCtx, ctx, run)
}

// runState is the scheduling state of one run.
type runState struct {
	plan      *plan
	remaining map[string]int
	satisfied map[string]bool
	executed  map[string]bool
	pruned    map[string]bool
	inputs    map[string]map[string]interface{}
	queue     []string
}

func newRunState(p *plan) *runState {
	s := &runState{
		plan:      p,
		remaining: make(map[string]int, len(p.inDegree)),
		satisfied: make(map[string]bool),
		executed:  make(map[string]bool),
		pruned:    make(map[string]bool),
		inputs:    make(map[string]map[string]interface{}),
	}
	for id, n := range p.inDegree {
		s.remaining[id] = n
	}
	// A start node with incoming edges waits for its sources like any other node.
	for _, id := range p.starts {
		if s.remaining[id] == 0 {
			s.queue = append(s.queue, id)
		}
	}
	return s
}

// release accounts for source being done. Edges of a completed source are evaluated
// against its outputs; edges of a pruned source count as false. A target whose counter
// reaches zero is queued when at least one satisfied edge reached it, and pruned
// otherwise.
func (s *runState) release(source string, outputs map[string]interface{}, completed bool) {
	var targets []string
	sat := make(map[string]bool)
	for _, edge := range s.plan.outgoing[source] {
		if _, seen := sat[edge.Target]; !seen {
			targets = append(targets, edge.Target)
			sat[edge.Target] = false
		}
		if !completed || !EvaluateCondition(edge.Condition, outputs) {
			continue
		}
		sat[edge.Target] = true
		in := s.inputs[edge.Target]
		if in == nil {
			in = make(map[string]interface{})
			s.inputs[edge.Target] = in
		}
		for k, v := range outputs {
			in[k] = v
		}
		if edge.SourcePort != "" && edge.TargetPort != "" {
			if v, ok := outputs[edge.SourcePort]; ok {
				in[edge.TargetPort] = v
			}
		}
	}

	for _, t := range targets {
		if sat[t] {
			s.satisfied[t] = true
		}
		s.remaining[t]--
		if s.remaining[t] > 0 || s.executed[t] || s.pruned[t] {
			continue
		}
		if s.satisfied[t] {
			s.queue = append(s.queue, t)
			continue
		}
		logger.Debugf("Workflow node '%s' skipped: no incoming edge condition held.", t)
		s.pruned[t] = true
		s.release(t, nil, false)
	}
}

// stalled returns nodes reachable from a start node that never became ready.
func (s *runState) stalled() []string {
	reach := s.plan.reachable()
	var ids []string
	for _, id := range s.plan.order {
		if reach[id] && !s.executed[id] && !s.pruned[id] && s.remaining[id] > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// stallMessage describes the stalled nodes, naming a dependency cycle when the
// nodes wait on each other.
func (s *runState) stallMessage(stalled []string) string {
	if s.plan.hasCycle(stalled) {
		return fmt.Sprintf("stall detected: dependency cycle among nodes [%s]", strings.Join(stalled, ", "))
	}
	return fmt.Sprintf("stall detected: nodes [%s] can never become ready", strings.Join(stalled, ", "))
}

// schedule executes the graph and returns the terminal status and run error.
func (e *Executor) schedule(ctx, storeCtx context.Context, graph *model.WorkflowGraph, run *model.WorkflowRun) (model.JobStatus, string, error) {
	p := newPlan(graph)
	if len(p.starts) == 0 {
		logger.Errorf("Workflow run '%s': %s.", run.ID, ErrNoStartNode)
		return model.StatusFailed, ErrNoStartNode, nil
	}

	variables := make(map[string]interface{}, len(graph.Variables))
	for _, v := range graph.Variables {
		variables[v.Name] = v.Value
	}

	state := newRunState(p)
	var lastOutputs map[string]interface{}
	endOutputs := map[string]interface{}{}
	sawEnd := false

	for len(state.queue) > 0 {
		if ctx.Err() != nil {
			logger.Warnf("Workflow run '%s': cancellation observed, %d queued nodes not dispatched.", run.ID, len(state.queue))
			return model.StatusCancelled, "", nil
		}

		id := state.queue[0]
		state.queue = state.queue[1:]
		if state.executed[id] {
			continue
		}
		node := p.nodes[id]

		inputs := model.CopyMap(run.Inputs)
		for k, v := range state.inputs[id] {
			inputs[k] = v
		}

		exec, nodeErr := e.executeNode(ctx, run, node, inputs, variables)
		if ctx.Err() != nil {
			logger.Warnf("Workflow run '%s': result of node '%s' discarded after cancellation.", run.ID, node.ID)
			return model.StatusCancelled, "", nil
		}

		state.executed[id] = true
		run.AppendNodeExecution(*exec)
		if err := e.runs.UpdateWorkflowRun(storeCtx, run); err != nil {
			return "", "", err
		}
		e.metricRecorder.RecordNode(ctx, graph.ID, exec)
		e.listeners.AfterNode(ctx, run, exec)

		if nodeErr != nil {
			logger.Errorf("Workflow run '%s': node '%s' (%s) failed: %v", run.ID, node.ID, node.Type, nodeErr)
			return model.StatusFailed, exec.Error, nil
		}

		lastOutputs = exec.Outputs
		if node.Type == model.NodeTypeEnd {
			sawEnd = true
			for k, v := range exec.Outputs {
				endOutputs[k] = v
			}
		}
		state.release(id, exec.Outputs, true)
	}

	if stalled := state.stalled(); len(stalled) > 0 {
		msg := state.stallMessage(stalled)
		logger.Errorf("Workflow run '%s': %s", run.ID, msg)
		return model.StatusFailed, msg, nil
	}

	if sawEnd {
		run.Outputs = endOutputs
	} else if lastOutputs != nil {
		run.Outputs = model.CopyMap(lastOutputs)
	}
	return model.StatusCompleted, "", nil
}

// executeNode dispatches one node to the handler registered for its type.
func (e *Executor) executeNode(ctx context.Context, run *model.WorkflowRun, node model.Node, inputs, variables map[string]interface{}) (*model.NodeExecution, error) {
	nodeCtx, endSpan := e.tracer.StartNodeSpan(ctx, run, node)
	defer endSpan()

	exec := model.NewNodeExecution(node, inputs)
	e.listeners.BeforeNode(nodeCtx, run, node)
	logger.Debugf("Workflow run '%s': dispatching node '%s' (%s).", run.ID, node.ID, node.Type)

	h, err := e.registry.Lookup(node.Type)
	if err == nil {
		config := e.resolver.ResolveConfig(node.Config, expression.Scope{Inputs: inputs, Variables: variables})
		var resp handler.Response
		resp, err = handler.Invoke(nodeCtx, h, handler.Request{
			Operation: node.Type,
			Item:      node.ID,
			Options:   config,
			Inputs:    model.CopyMap(inputs),
		}, e.opts.HandlerTimeout)
		if err == nil {
			exec.Complete(nodeOutputs(resp))
		}
	}
	if err != nil {
		exec.Fail(err)
		e.tracer.RecordError(nodeCtx, moduleName, err)
	}
	return exec, err
}

func nodeOutputs(resp handler.Response) map[string]interface{} {
	out := model.CopyMap(resp.Values)
	if len(resp.Outputs) > 0 {
		out[OutputsKey] = append([]string(nil), resp.Outputs...)
	}
	return out
}

// finish persists the terminal run and notifies listeners.
func (e *Executor) finish(storeCtx, ctx context.Context, run *model.WorkflowRun) error {
	if err := e.runs.UpdateWorkflowRun(storeCtx, run); err != nil {
		return err
	}
	e.listeners.AfterRun(ctx, run)
	logger.Infof("Workflow run '%s' finished. Final Status: %s, Nodes executed: %d",
		run.ID, run.Status, len(run.NodeExecutions))
	return nil
}

// Package node provides the built-in workflow node handlers: control nodes
// (start, end, merge, parallel, delay, condition) and nodes backed by batch operations.
package node

import (
	"context"
	"fmt"
	"time"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/handler"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/workflow"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/configbinder"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

const moduleName = "node"

// ResultKey is the output every built-in node sets.
const ResultKey = workflow.DefaultConditionVariable

// PassThrough forwards its inputs as outputs and records which node type processed
// them. It serves start, end, merge and parallel nodes.
type PassThrough struct{}

// NewPassThrough creates a PassThrough handler.
func NewPassThrough() *PassThrough {
	return &PassThrough{}
}

// Handle copies req.Inputs to the outputs.
func (p *PassThrough) Handle(ctx context.Context, req handler.Request) (handler.Response, error) {
	values := model.CopyMap(req.Inputs)
	values[ResultKey] = fmt.Sprintf("Processed by %s", req.Operation)
	return handler.Response{Values: values}, nil
}

// DelayConfig is the config of a delay node. Duration accepts "1.5s" style strings;
// Seconds is used when Duration is unset.
type DelayConfig struct {
	Duration time.Duration `yaml:"duration"`
	Seconds  float64       `yaml:"seconds"`
}

// Delay waits for the configured duration, then forwards its inputs.
type Delay struct{}

// NewDelay creates a Delay handler.
func NewDelay() *Delay {
	return &Delay{}
}

// Handle waits, returning early with ctx.Err() when ctx is done.
func (d *Delay) Handle(ctx context.Context, req handler.Request) (handler.Response, error) {
	var cfg DelayConfig
	if err := configbinder.BindProperties(req.Options, &cfg); err != nil {
		return handler.Response{}, exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "invalid delay config on node '%s'", req.Item, err)
	}
	wait := cfg.Duration
	if wait == 0 && cfg.Seconds > 0 {
		wait = time.Duration(cfg.Seconds * float64(time.Second))
	}
	if wait < 0 {
		return handler.Response{}, exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "delay node '%s' has a negative duration", req.Item)
	}

	if wait > 0 {
		logger.Debugf("Delay node '%s': waiting %s.", req.Item, wait)
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return handler.Response{}, ctx.Err()
		}
	}

	values := model.CopyMap(req.Inputs)
	values[ResultKey] = fmt.Sprintf("Delayed %s", wait)
	return handler.Response{Values: values}, nil
}

// ConditionConfig is the config of a condition node. Variable is looked up in the
// node inputs; Operator is an edge condition type and defaults to "equals".
type ConditionConfig struct {
	Variable string      `yaml:"variable"`
	Operator string      `yaml:"operator"`
	Value    interface{} `yaml:"value"`
}

// Condition evaluates its config against the node inputs and outputs the boolean
// outcome under "result", for outgoing edges to branch on.
type Condition struct{}

// NewCondition creates a Condition handler.
func NewCondition() *Condition {
	return &Condition{}
}

// Handle evaluates the condition.
func (c *Condition) Handle(ctx context.Context, req handler.Request) (handler.Response, error) {
	var cfg ConditionConfig
	if err := configbinder.BindProperties(req.Options, &cfg); err != nil {
		return handler.Response{}, exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "invalid condition config on node '%s'", req.Item, err)
	}
	if cfg.Variable == "" {
		return handler.Response{}, exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "condition node '%s' has no variable", req.Item)
	}
	if cfg.Operator == "" {
		cfg.Operator = model.ConditionEquals
	}
	if !model.IsValidConditionType(cfg.Operator) {
		return handler.Response{}, exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "condition node '%s' has unknown operator '%s'", req.Item, cfg.Operator)
	}

	actual, exists := req.Inputs[cfg.Variable]
	if actual == nil {
		exists = false
	}
	outcome := workflow.Compare(cfg.Operator, actual, exists, cfg.Value)
	logger.Debugf("Condition node '%s': %s %s %v -> %t", req.Item, cfg.Variable, cfg.Operator, cfg.Value, outcome)

	values := model.CopyMap(req.Inputs)
	values[ResultKey] = outcome
	return handler.Response{Values: values}, nil
}

var (
	_ handler.Handler = (*PassThrough)(nil)
	_ handler.Handler = (*Delay)(nil)
	_ handler.Handler = (*Condition)(nil)
)

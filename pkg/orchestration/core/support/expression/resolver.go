// Package expression resolves #{...} placeholders in workflow node configuration.
package expression

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// Scope holds the values expressions are resolved against.
type Scope struct {
	// Inputs are the inputs accumulated for the node being dispatched (run inputs plus
	// outputs of its satisfied predecessors).
	Inputs map[string]interface{}
	// Variables are the declared workflow variables and their default values.
	Variables map[string]interface{}
}

// Resolver resolves expressions of the form #{inputs['key']} and #{variables['name']}.
type Resolver interface {
	// Resolve resolves every expression in s. When s consists of exactly one expression
	// the referenced value is returned unchanged, keeping its type; otherwise each
	// expression is replaced by its %v rendering. Unknown keys are left as written.
	Resolve(s string, scope Scope) interface{}
	// ResolveConfig returns a copy of config with every string value resolved,
	// descending into nested maps and lists.
	ResolveConfig(config map[string]interface{}, scope Scope) map[string]interface{}
}

// DefaultResolver is the Resolver used by the workflow executor.
type DefaultResolver struct{}

// NewDefaultResolver creates a new instance of DefaultResolver.
func NewDefaultResolver() Resolver {
	return &DefaultResolver{}
}

// Regular expression pattern: Captures the form #{...}
var expressionPattern = regexp.MustCompile(`\#\{(.+?)\}`)

// Resolves the forms inputs['key'] and variables['key'] (double quotes are accepted too).
var referencePattern = regexp.MustCompile(`^(inputs|variables)\[['"](.+?)['"]\]$`)

// Resolve implements Resolver.
func (r *DefaultResolver) Resolve(s string, scope Scope) interface{} {
	if !strings.Contains(s, "#{") {
		return s
	}

	if loc := expressionPattern.FindStringIndex(s); loc != nil && loc[0] == 0 && loc[1] == len(s) {
		if v, ok := r.lookup(strings.TrimSpace(s[2:len(s)-1]), scope); ok {
			return v
		}
		return s
	}

	return expressionPattern.ReplaceAllStringFunc(s, func(match string) string {
		v, ok := r.lookup(strings.TrimSpace(match[2:len(match)-1]), scope)
		if !ok {
			return match
		}
		return fmt.Sprintf("%v", v)
	})
}

// ResolveConfig implements Resolver.
func (r *DefaultResolver) ResolveConfig(config map[string]interface{}, scope Scope) map[string]interface{} {
	out := make(map[string]interface{}, len(config))
	for k, v := range config {
		out[k] = r.resolveValue(v, scope)
	}
	return out
}

func (r *DefaultResolver) resolveValue(v interface{}, scope Scope) interface{} {
	switch t := v.(type) {
	case string:
		return r.Resolve(t, scope)
	case map[string]interface{}:
		return r.ResolveConfig(t, scope)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = r.resolveValue(e, scope)
		}
		return out
	default:
		return v
	}
}

func (r *DefaultResolver) lookup(expr string, scope Scope) (interface{}, bool) {
	m := referencePattern.FindStringSubmatch(expr)
	if len(m) != 3 {
		logger.Warnf("ExpressionResolver: Unknown expression: %s", expr)
		return nil, false
	}
	source := scope.Inputs
	if m[1] == "variables" {
		source = scope.Variables
	}
	v, ok := source[m[2]]
	if !ok {
		logger.Debugf("ExpressionResolver: Key '%s' not found in %s.", m[2], m[1])
	}
	return v, ok
}

var _ Resolver = (*DefaultResolver)(nil)

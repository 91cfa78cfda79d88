package workflow

import (
	"fmt"
	"strings"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
)

// DefaultConditionVariable is the output tested when a condition names no variable.
const DefaultConditionVariable = "result"

// EvaluateCondition reports whether an edge condition holds for the source node's
// outputs. A nil condition always holds. Values are compared through their %v rendering.
func EvaluateCondition(cond *model.EdgeCondition, outputs map[string]interface{}) bool {
	if cond == nil {
		return true
	}
	variable := cond.Variable
	if variable == "" {
		variable = DefaultConditionVariable
	}
	v, exists := outputs[variable]
	if v == nil {
		exists = false
	}
	return Compare(cond.Type, v, exists, cond.Value)
}

// Compare applies a condition operator to an actual value. exists reports whether
// the value was present at all.
func Compare(operator string, actual interface{}, exists bool, expected interface{}) bool {
	switch operator {
	case model.ConditionEquals:
		return exists && render(actual) == render(expected)
	case model.ConditionNotEquals:
		return !exists || render(actual) != render(expected)
	case model.ConditionContains:
		return exists && contains(actual, expected)
	case model.ConditionExists:
		return exists
	case model.ConditionTruthy:
		return exists && IsTruthy(actual)
	default:
		return false
	}
}

// IsTruthy reports whether v counts as true: false, zero numbers, empty strings,
// "false", "0" and empty collections do not.
func IsTruthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		return s != "" && s != "false" && s != "0"
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case []interface{}:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	default:
		return true
	}
}

func contains(actual, expected interface{}) bool {
	want := render(expected)
	switch t := actual.(type) {
	case []interface{}:
		for _, e := range t {
			if render(e) == want {
				return true
			}
		}
		return false
	case []string:
		for _, e := range t {
			if e == want {
				return true
			}
		}
		return false
	case map[string]interface{}:
		_, ok := t[want]
		return ok
	default:
		return strings.Contains(render(actual), want)
	}
}

func render(v interface{}) string {
	return fmt.Sprintf("%v", v)
}

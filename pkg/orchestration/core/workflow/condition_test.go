package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
)

func TestEvaluateCondition(t *testing.T) {
	outputs := map[string]interface{}{
		"result": "approved",
		"count":  3,
		"pages":  []interface{}{1, 2, 3},
		"flag":   false,
		"empty":  "",
	}

	tests := []struct {
		name string
		cond *model.EdgeCondition
		want bool
	}{
		{"nil condition", nil, true},
		{"equals default variable", &model.EdgeCondition{Type: "equals", Value: "approved"}, true},
		{"equals mismatch", &model.EdgeCondition{Type: "equals", Value: "rejected"}, false},
		{"equals compares rendered values", &model.EdgeCondition{Type: "equals", Variable: "count", Value: "3"}, true},
		{"equals missing variable", &model.EdgeCondition{Type: "equals", Variable: "nope", Value: ""}, false},
		{"not_equals", &model.EdgeCondition{Type: "not_equals", Value: "rejected"}, true},
		{"not_equals missing variable", &model.EdgeCondition{Type: "not_equals", Variable: "nope", Value: "x"}, true},
		{"contains substring", &model.EdgeCondition{Type: "contains", Value: "prov"}, true},
		{"contains list element", &model.EdgeCondition{Type: "contains", Variable: "pages", Value: 2}, true},
		{"contains list miss", &model.EdgeCondition{Type: "contains", Variable: "pages", Value: 9}, false},
		{"exists", &model.EdgeCondition{Type: "exists", Variable: "flag"}, true},
		{"exists missing", &model.EdgeCondition{Type: "exists", Variable: "nope"}, false},
		{"truthy", &model.EdgeCondition{Type: "truthy", Variable: "count"}, true},
		{"truthy false", &model.EdgeCondition{Type: "truthy", Variable: "flag"}, false},
		{"truthy empty string", &model.EdgeCondition{Type: "truthy", Variable: "empty"}, false},
		{"unknown type", &model.EdgeCondition{Type: "regex", Value: ".*"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateCondition(tt.cond, outputs))
		})
	}
}

func TestIsTruthy(t *testing.T) {
	assert.True(t, IsTruthy("yes"))
	assert.True(t, IsTruthy(1.5))
	assert.True(t, IsTruthy([]string{"a"}))
	assert.False(t, IsTruthy("FALSE"))
	assert.False(t, IsTruthy("0"))
	assert.False(t, IsTruthy(0))
	assert.False(t, IsTruthy(nil))
	assert.False(t, IsTruthy(map[string]interface{}{}))
}

package exception

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrchestrationError_IsMatchesByCode(t *testing.T) {
	err := NewOrchestrationErrorf("orchestrator", CodeNotFound, "batch job '%s' not found", "abc")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, "[orchestrator] batch job 'abc' not found", err.Error())
}

func TestOrchestrationError_WrapsOriginal(t *testing.T) {
	cause := errors.New("disk full")
	err := NewOrchestrationErrorf("batch_runner", CodeProcessing, "item '%s' failed", "a.pdf", cause)

	assert.Equal(t, "item 'a.pdf' failed", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[batch_runner] item 'a.pdf' failed: disk full", err.Error())

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsOrchestrationError(wrapped))
	assert.ErrorIs(t, wrapped, ErrProcessing)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
	assert.Equal(t, CodeUnknownOperation, CodeOf(NewOrchestrationError("registry", CodeUnknownOperation, "x", nil)))
	assert.Equal(t, CodeTimeout, CodeOf(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	assert.Equal(t, CodeProcessing, CodeOf(errors.New("boom")))
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", ExtractErrorMessage(nil))
	assert.Equal(t, "plain", ExtractErrorMessage(errors.New("plain")))
	assert.Equal(t, "no start node found", ExtractErrorMessage(NewOrchestrationError("workflow_executor", CodeValidation, "no start node found", nil)))
	assert.Equal(t, "handler failed: boom",
		ExtractErrorMessage(NewOrchestrationError("batch_runner", CodeProcessing, "handler failed", errors.New("boom"))))
}

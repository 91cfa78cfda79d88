package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogLevel(t *testing.T) {
	t.Cleanup(func() { SetLogLevel("INFO") })

	SetLogLevel("debug")
	assert.True(t, IsDebugEnabled())

	SetLogLevel("WARN")
	assert.False(t, IsDebugEnabled())

	SetLogLevel("bogus")
	assert.False(t, IsDebugEnabled())
}

func TestTrimFuncSuffix(t *testing.T) {
	assert.Equal(t, "main.startOrchestration", trimFuncSuffix("main.startOrchestration.func1"))
	assert.Equal(t, "main.run", trimFuncSuffix("main.run"))
}

package configbinder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delaySettings struct {
	Duration time.Duration `yaml:"duration"`
	Retries  int           `yaml:"retries"`
	Labels   []string      `yaml:"labels"`
	Enabled  bool          `yaml:"enabled"`
}

func TestBindProperties_WeaklyTyped(t *testing.T) {
	var s delaySettings
	err := BindProperties(map[string]interface{}{
		"duration": "1500ms",
		"retries":  "3",
		"labels":   "a,b",
		"enabled":  "true",
	}, &s)

	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, s.Duration)
	assert.Equal(t, 3, s.Retries)
	assert.Equal(t, []string{"a", "b"}, s.Labels)
	assert.True(t, s.Enabled)
}

func TestBindProperties_EmptyIsNoop(t *testing.T) {
	s := delaySettings{Retries: 7}
	require.NoError(t, BindProperties(nil, &s))
	assert.Equal(t, 7, s.Retries)
}

func TestBindProperties_Error(t *testing.T) {
	var s delaySettings
	err := BindProperties(map[string]interface{}{"retries": "many"}, &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delaySettings")
}

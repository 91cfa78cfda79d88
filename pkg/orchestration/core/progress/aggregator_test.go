package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name                    string
		total, completed, failed int
		want                    float64
	}{
		{"zero total", 0, 0, 0, 0},
		{"zero total ignores counters", 0, 5, 2, 0},
		{"nothing processed", 4, 0, 0, 0},
		{"half", 4, 1, 1, 50},
		{"thirds rounded", 3, 1, 0, 33.33},
		{"complete", 3, 2, 1, 100},
		{"clamped above", 2, 3, 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compute(tt.total, tt.completed, tt.failed, "x.pdf")
			assert.Equal(t, tt.want, p.Percentage)
			assert.Equal(t, tt.completed, p.Completed)
			assert.Equal(t, tt.failed, p.Failed)
			assert.Equal(t, "x.pdf", p.CurrentItem)
		})
	}
}

func TestAdvance_MonotonicPercentage(t *testing.T) {
	p := Compute(10, 0, 0, "")
	last := p.Percentage
	for i := 0; i < 10; i++ {
		p = Advance(p, i%3 != 0, time.Duration(i+1)*time.Second)
		assert.GreaterOrEqual(t, p.Percentage, last)
		assert.Equal(t, i+1, p.Completed+p.Failed)
		last = p.Percentage
	}
	assert.Equal(t, float64(100), p.Percentage)
	require.NotNil(t, p.EstimatedTimeRemaining)
	assert.Equal(t, time.Duration(0), *p.EstimatedTimeRemaining)
}

func TestEstimateRemaining(t *testing.T) {
	assert.Nil(t, EstimateRemaining(time.Second, 0, 10))

	est := EstimateRemaining(4*time.Second, 2, 10)
	require.NotNil(t, est)
	assert.Equal(t, 16*time.Second, *est)
}

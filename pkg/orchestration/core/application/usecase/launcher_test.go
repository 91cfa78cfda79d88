package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exception "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
)

func TestLauncher_LaunchAndCancel(t *testing.T) {
	l := NewLauncher(0)
	observed := make(chan error, 1)

	done, err := l.Launch(context.Background(), "job-1", func(ctx context.Context) {
		<-ctx.Done()
		observed <- ctx.Err()
	})
	require.NoError(t, err)
	assert.True(t, l.IsActive("job-1"))
	assert.Equal(t, 1, l.ActiveCount())

	assert.True(t, l.Cancel("job-1"))
	<-done
	assert.ErrorIs(t, <-observed, context.Canceled)
	assert.False(t, l.IsActive("job-1"))
	assert.False(t, l.Cancel("job-1"))
	_, ok := l.Done("job-1")
	assert.False(t, ok)
}

func TestLauncher_RejectsDuplicateID(t *testing.T) {
	l := NewLauncher(0)
	release := make(chan struct{})
	done, err := l.Launch(context.Background(), "job-1", func(ctx context.Context) { <-release })
	require.NoError(t, err)

	_, err = l.Launch(context.Background(), "job-1", func(ctx context.Context) {})
	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrInvalidState))

	close(release)
	<-done
}

func TestLauncher_IgnoresParentCancellation(t *testing.T) {
	l := NewLauncher(0)
	parent, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var sawCancel atomic.Bool

	done, err := l.Launch(parent, "job-1", func(ctx context.Context) {
		close(started)
		time.Sleep(20 * time.Millisecond)
		sawCancel.Store(ctx.Err() != nil)
	})
	require.NoError(t, err)
	<-started
	cancel()
	<-done
	assert.False(t, sawCancel.Load())
}

func TestLauncher_LimitsConcurrency(t *testing.T) {
	l := NewLauncher(1)
	var running, peak atomic.Int32
	dones := make([]<-chan struct{}, 0, 3)

	for _, id := range []string{"a", "b", "c"} {
		done, err := l.Launch(context.Background(), id, func(ctx context.Context) {
			n := running.Add(1)
			if n > peak.Load() {
				peak.Store(n)
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
		require.NoError(t, err)
		dones = append(dones, done)
	}
	for _, d := range dones {
		<-d
	}
	assert.Equal(t, int32(1), peak.Load())
}

func TestLauncher_Shutdown(t *testing.T) {
	l := NewLauncher(0)
	for _, id := range []string{"a", "b"} {
		_, err := l.Launch(context.Background(), id, func(ctx context.Context) { <-ctx.Done() })
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.Shutdown(ctx))
	assert.Equal(t, 0, l.ActiveCount())
}

func TestLauncher_ShutdownTimesOut(t *testing.T) {
	l := NewLauncher(0)
	release := make(chan struct{})
	defer close(release)
	_, err := l.Launch(context.Background(), "stuck", func(ctx context.Context) { <-release })
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Shutdown(ctx), context.DeadlineExceeded)
}

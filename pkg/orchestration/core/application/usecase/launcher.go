package usecase

import (
	"context"
	"sync"

	exception "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// Launcher starts batch jobs and workflow runs on their own goroutines and holds
// the cancel func of every active execution, keyed by job or run id.
type Launcher struct {
	mu sync.Mutex
	// activeCancellations holds the cancel functions of executions that have not returned yet.
	activeCancellations map[string]context.CancelFunc
	done                map[string]chan struct{}
	wg                  sync.WaitGroup
	// slots limits concurrent executions when non-nil.
	slots chan struct{}
}

// NewLauncher creates a Launcher. maxConcurrent <= 0 means no limit.
func NewLauncher(maxConcurrent int) *Launcher {
	l := &Launcher{
		activeCancellations: make(map[string]context.CancelFunc),
		done:                make(map[string]chan struct{}),
	}
	if maxConcurrent > 0 {
		l.slots = make(chan struct{}, maxConcurrent)
	}
	return l
}

// Launch runs fn on a new goroutine. The context passed to fn keeps the values of
// parent but not its cancellation; it is cancelled by Cancel(id) or Shutdown.
// The cancel func is registered before Launch returns and removed after fn returns.
// The returned channel is closed when fn has returned.
func (l *Launcher) Launch(parent context.Context, id string, fn func(ctx context.Context)) (<-chan struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.activeCancellations[id]; ok {
		return nil, exception.NewOrchestrationErrorf("launcher", exception.CodeInvalidState, "execution '%s' is already active", id)
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	done := make(chan struct{})
	l.activeCancellations[id] = cancel
	l.done[id] = done
	l.wg.Add(1)
	logger.Debugf("Registered CancelFunc for execution (ID: %s).", id)

	go func() {
		defer l.wg.Done()
		defer close(done)
		defer l.unregister(id)
		defer cancel()

		if l.slots != nil {
			select {
			case l.slots <- struct{}{}:
				defer func() { <-l.slots }()
			case <-ctx.Done():
				// Cancelled while queued. fn still runs so the record reaches a terminal status.
			}
		}
		fn(ctx)
	}()
	return done, nil
}

func (l *Launcher) unregister(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.activeCancellations, id)
	delete(l.done, id)
	logger.Debugf("Unregistered CancelFunc for execution (ID: %s).", id)
}

// Cancel signals the execution id to stop. It reports whether the execution was active.
func (l *Launcher) Cancel(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cancel, ok := l.activeCancellations[id]
	if !ok {
		return false
	}
	cancel()
	logger.Infof("Sent stop signal for execution (ID: %s).", id)
	return true
}

// IsActive reports whether the execution id has been launched and not returned yet.
func (l *Launcher) IsActive(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.activeCancellations[id]
	return ok
}

// Done returns a channel closed when the execution id returns. ok is false when id
// is not active.
func (l *Launcher) Done(id string) (done <-chan struct{}, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.done[id]
	return ch, ok
}

// ActiveCount returns the number of active executions.
func (l *Launcher) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.activeCancellations)
}

// Shutdown cancels every active execution and waits until all of them returned or
// ctx is done.
func (l *Launcher) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	n := len(l.activeCancellations)
	for _, cancel := range l.activeCancellations {
		cancel()
	}
	l.mu.Unlock()
	if n > 0 {
		logger.Infof("Launcher: cancelling %d active executions.", n)
	}

	finished := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		logger.Warnf("Launcher: shutdown timed out with %d executions still active.", l.ActiveCount())
		return ctx.Err()
	}
}

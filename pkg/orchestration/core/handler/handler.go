// Package handler defines the Operation Handler contract and the registry that maps
// operation or node-type names to handlers.
package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// Request is the input of one handler call.
type Request struct {
	// Operation is the registry name the handler was resolved under.
	Operation string
	// Item is the batch input item, or the node id for workflow nodes.
	Item string
	// OutputTarget is the output directory for batch items.
	OutputTarget string
	// Options is the batch options map or the resolved node config.
	Options map[string]interface{}
	// Inputs are the accumulated run inputs for workflow nodes. Nil for batch items.
	Inputs map[string]interface{}
}

// Response is the output of one handler call.
type Response struct {
	// Outputs are output locations (file paths) produced by the call.
	Outputs []string
	// Values are named results. Workflow edges evaluate their conditions against them.
	Values map[string]interface{}
}

// Handler performs one unit of work. Failures are returned as errors, never panics;
// Invoke converts a panic into an error regardless.
type Handler interface {
	Handle(ctx context.Context, req Request) (Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req Request) (Response, error)

// Handle calls f(ctx, req).
func (f HandlerFunc) Handle(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Invoke calls h and converts every failure path into an error.
//
// The call runs on a context detached from ctx's cancellation so that a cancel request
// never interrupts a call in flight; callers check ctx themselves once the call
// returns. A positive timeout bounds the call: when it expires Invoke returns a
// TIMEOUT error. The handler itself is not stopped; one that ignores its context
// keeps its goroutine until it returns, and that late result is logged and dropped.
func Invoke(ctx context.Context, h Handler, req Request, timeout time.Duration) (Response, error) {
	callCtx := context.WithoutCancel(ctx)
	if timeout <= 0 {
		return safeHandle(callCtx, h, req)
	}

	callCtx, cancel := context.WithTimeout(callCtx, timeout)
	defer cancel()

	type outcome struct {
		resp Response
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		resp, err := safeHandle(callCtx, h, req)
		done <- outcome{resp: resp, err: err}
	}()

	select {
	case o := <-done:
		return o.resp, o.err
	case <-callCtx.Done():
		go func() {
			late := <-done
			logger.Warnf("Operation '%s' on '%s' returned after its %s timeout; result dropped (error: %v).",
				req.Operation, req.Item, timeout, late.err)
		}()
		return Response{}, exception.NewOrchestrationErrorf("handler", exception.CodeTimeout,
			"operation '%s' on '%s' timed out after %s", req.Operation, req.Item, timeout, callCtx.Err())
	}
}

func safeHandle(ctx context.Context, h Handler, req Request) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = exception.NewOrchestrationErrorf("handler", exception.CodeProcessing,
				"operation '%s' panicked on '%s': %v", req.Operation, req.Item, fmt.Sprint(r))
		}
	}()
	return h.Handle(ctx, req)
}

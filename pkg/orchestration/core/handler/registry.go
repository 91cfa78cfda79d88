package handler

import (
	"fmt"
	"sort"

	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// Entry binds a handler to a name. Entries are contributed to the registry at startup.
type Entry struct {
	Name    string
	Handler Handler
}

// Registry resolves operation and node-type names to handlers.
// It is populated once and read-only afterwards, so it is safe for concurrent use.
type Registry interface {
	// Lookup returns the handler for name, or an UNKNOWN_OPERATION error.
	Lookup(name string) (Handler, error)
	// Has reports whether name is registered.
	Has(name string) bool
	// Names returns the registered names in sorted order.
	Names() []string
}

// DefaultRegistry is a map-backed Registry.
type DefaultRegistry struct {
	handlers map[string]Handler
}

// NewRegistry builds a registry from entries. Empty names, nil handlers and duplicate
// names are rejected.
func NewRegistry(entries ...Entry) (*DefaultRegistry, error) {
	handlers := make(map[string]Handler, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, exception.NewOrchestrationError("handler_registry", exception.CodeValidation, "handler name must not be empty", nil)
		}
		if e.Handler == nil {
			return nil, exception.NewOrchestrationErrorf("handler_registry", exception.CodeValidation, "handler '%s' is nil", e.Name)
		}
		if _, dup := handlers[e.Name]; dup {
			return nil, exception.NewOrchestrationErrorf("handler_registry", exception.CodeValidation, "handler '%s' registered twice", e.Name)
		}
		handlers[e.Name] = e.Handler
	}
	logger.Debugf("HandlerRegistry: %d handlers registered.", len(handlers))
	return &DefaultRegistry{handlers: handlers}, nil
}

// Lookup returns the handler registered under name.
func (r *DefaultRegistry) Lookup(name string) (Handler, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, exception.NewOrchestrationErrorf("handler_registry", exception.CodeUnknownOperation, "unknown operation '%s'", name)
	}
	return h, nil
}

// Has reports whether name is registered.
func (r *DefaultRegistry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *DefaultRegistry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// String lists registered names, for logs.
func (r *DefaultRegistry) String() string {
	return fmt.Sprintf("HandlerRegistry%v", r.Names())
}

var _ Registry = (*DefaultRegistry)(nil)

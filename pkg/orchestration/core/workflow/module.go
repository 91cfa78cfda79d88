package workflow

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	config "github.com/tigerroll/pdfflow/pkg/orchestration/core/config"
	repository "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/repository"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/handler"
	metrics "github.com/tigerroll/pdfflow/pkg/orchestration/core/metrics"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/support/expression"
)

// ExecutorParams defines the dependencies of the Executor provider.
type ExecutorParams struct {
	fx.In
	Store          repository.JobStore
	Nodes          *handler.NodeRegistry
	Resolver       expression.Resolver
	Listeners      *port.Listeners
	MetricRecorder metrics.MetricRecorder
	Tracer         metrics.Tracer
	Config         *config.Config
}

// NewExecutorProvider builds the Executor from the application configuration.
func NewExecutorProvider(p ExecutorParams) *Executor {
	return NewExecutor(p.Store, p.Nodes.Registry, p.Resolver, p.Listeners, p.MetricRecorder, p.Tracer, Options{
		HandlerTimeout: p.Config.PDFFlow.Orchestration.HandlerTimeout,
	})
}

// Module provides the Executor as a port.WorkflowExecutor.
var Module = fx.Options(
	fx.Provide(NewExecutorProvider),
	fx.Provide(func(e *Executor) port.WorkflowExecutor { return e }),
)

package batch

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	config "github.com/tigerroll/pdfflow/pkg/orchestration/core/config"
	repository "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/repository"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/handler"
	metrics "github.com/tigerroll/pdfflow/pkg/orchestration/core/metrics"
)

// RunnerParams defines the dependencies of the Runner provider.
type RunnerParams struct {
	fx.In
	Store          repository.JobStore
	Registry       handler.Registry
	Listeners      *port.Listeners
	MetricRecorder metrics.MetricRecorder
	Tracer         metrics.Tracer
	Config         *config.Config
}

// NewRunnerProvider builds the Runner from the application configuration.
func NewRunnerProvider(p RunnerParams) *Runner {
	return NewRunner(p.Store, p.Registry, p.Listeners, p.MetricRecorder, p.Tracer, Options{
		HandlerTimeout:   p.Config.PDFFlow.Orchestration.HandlerTimeout,
		MaskedOptionKeys: p.Config.PDFFlow.Security.MaskedOptionKeys,
	})
}

// Module provides the Runner as a port.BatchRunner.
var Module = fx.Options(
	fx.Provide(NewRunnerProvider),
	fx.Provide(func(r *Runner) port.BatchRunner { return r }),
)

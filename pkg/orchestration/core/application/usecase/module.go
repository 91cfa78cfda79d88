package usecase

import (
	"context"

	"go.uber.org/fx"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	config "github.com/tigerroll/pdfflow/pkg/orchestration/core/config"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/config/definition"
	repository "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/repository"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/handler"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// NewLauncherProvider creates the Launcher and stops every active execution when the
// application stops.
func NewLauncherProvider(lc fx.Lifecycle, cfg *config.Config) *Launcher {
	l := NewLauncher(cfg.PDFFlow.Orchestration.MaxConcurrentExecutions)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if timeout := cfg.PDFFlow.Orchestration.ShutdownTimeout; timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return l.Shutdown(ctx)
		},
	})
	return l
}

// OrchestratorParams defines the dependencies of the Orchestrator provider.
type OrchestratorParams struct {
	fx.In
	Store      repository.JobStore
	Operations handler.Registry
	Runner     port.BatchRunner
	Executor   port.WorkflowExecutor
	Launcher   *Launcher
	Config     *config.Config
}

// NewOrchestratorProvider builds the DefaultOrchestrator from the application configuration.
func NewOrchestratorProvider(p OrchestratorParams) *DefaultOrchestrator {
	return NewDefaultOrchestrator(p.Store, p.Operations, p.Runner, p.Executor, p.Launcher, Options{
		DefaultPageSize:  p.Config.PDFFlow.Orchestration.DefaultPageSize,
		MaskedOptionKeys: p.Config.PDFFlow.Security.MaskedOptionKeys,
	})
}

// RegisterWorkflowDefinitions loads the configured workflow definition files and
// creates a workflow for each of them.
func RegisterWorkflowDefinitions(lc fx.Lifecycle, cfg *config.Config, orchestrator Orchestrator) {
	patterns := cfg.PDFFlow.Workflows.Definitions
	if len(patterns) == 0 {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			docs, err := definition.Load(patterns)
			if err != nil {
				return err
			}
			for _, doc := range docs {
				id, err := orchestrator.CreateWorkflow(ctx, doc.Definition)
				if err != nil {
					return err
				}
				logger.Infof("Registered workflow '%s' (ID: %s) from '%s'.", doc.Definition.Name, id, doc.Path)
			}
			return nil
		},
	})
}

// Module provides the Launcher and the Orchestrator, and registers configured workflows.
var Module = fx.Options(
	fx.Provide(NewLauncherProvider),
	fx.Provide(NewOrchestratorProvider),
	fx.Provide(fx.Annotate(
		func(o *DefaultOrchestrator) *DefaultOrchestrator { return o },
		fx.As(new(Orchestrator)),
	)),
	fx.Invoke(RegisterWorkflowDefinitions),
)

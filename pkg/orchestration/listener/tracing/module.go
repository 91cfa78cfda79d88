package tracing

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
)

// Module provides tracing-related listeners.
var Module = fx.Options(
	// Providing a concrete implementation of Tracer is delegated to the infrastructure layer (pkg/orchestration/infrastructure/metrics/module.go).
	fx.Provide(port.AsBatchJobListener(NewTracingBatchJobListener)),
	fx.Provide(port.AsWorkflowRunListener(NewTracingWorkflowRunListener)),
	fx.Provide(port.AsNodeExecutionListener(NewTracingNodeExecutionListener)),
)

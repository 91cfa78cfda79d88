package logging

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	config "github.com/tigerroll/pdfflow/pkg/orchestration/core/config"
)

// Module contributes the logging listeners.
var Module = fx.Options(
	fx.Provide(port.AsBatchJobListener(func(cfg *config.Config) *LoggingBatchJobListener {
		return NewLoggingBatchJobListener(cfg.PDFFlow.Security.MaskedOptionKeys)
	})),
	fx.Provide(port.AsWorkflowRunListener(NewLoggingWorkflowRunListener)),
	fx.Provide(port.AsNodeExecutionListener(NewLoggingNodeExecutionListener)),
)

package listener

import (
	"go.uber.org/fx"

	"github.com/tigerroll/pdfflow/pkg/orchestration/listener/logging"
	"github.com/tigerroll/pdfflow/pkg/orchestration/listener/metrics"
	"github.com/tigerroll/pdfflow/pkg/orchestration/listener/notification"
	"github.com/tigerroll/pdfflow/pkg/orchestration/listener/report"
	"github.com/tigerroll/pdfflow/pkg/orchestration/listener/tracing"
)

// Module aggregates all listener modules of the orchestration core.
var Module = fx.Options(
	logging.Module,
	metrics.Module,
	tracing.Module,
	notification.Module,
	report.Module,
)

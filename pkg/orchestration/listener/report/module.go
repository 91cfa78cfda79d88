package report

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	config "github.com/tigerroll/pdfflow/pkg/orchestration/core/config"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// ReportListenerResult contributes the report listener when reports are enabled.
type ReportListenerResult struct {
	fx.Out
	Listeners []port.BatchJobListener `group:"batchJobListeners,flatten"`
}

// NewReportListeners returns the report listener, or nothing when reports are disabled.
func NewReportListeners(cfg *config.Config) ReportListenerResult {
	rc := cfg.PDFFlow.Report
	if !rc.Enabled {
		logger.Debugf("Report: batch reports are disabled.")
		return ReportListenerResult{}
	}
	logger.Infof("Report: writing batch reports to '%s' (compression: %s).", rc.OutputDir, rc.Compression)
	return ReportListenerResult{Listeners: []port.BatchJobListener{NewParquetReportListener(rc)}}
}

// Module provides the batch report listener.
var Module = fx.Options(
	fx.Provide(NewReportListeners),
)

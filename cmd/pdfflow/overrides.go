package main

import (
	config "github.com/tigerroll/pdfflow/pkg/orchestration/core/config"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// Overrides are configuration values given on the command line. Empty values keep
// what the embedded configuration and the environment set.
type Overrides struct {
	LogLevel    string
	Processor   string
	BaseDir     string
	ReportDir   string
	Definitions []string
}

// Apply copies the set overrides onto cfg.
func (o *Overrides) Apply(cfg *config.Config) *config.Config {
	if o == nil {
		return cfg
	}
	if o.LogLevel != "" {
		cfg.PDFFlow.System.Logging.Level = o.LogLevel
		logger.SetLogLevel(o.LogLevel)
	}
	if o.Processor != "" {
		cfg.PDFFlow.Operations.Processor = o.Processor
	}
	if o.BaseDir != "" {
		cfg.PDFFlow.Operations.BaseDir = o.BaseDir
	}
	if o.ReportDir != "" {
		cfg.PDFFlow.Report.Enabled = true
		cfg.PDFFlow.Report.OutputDir = o.ReportDir
	}
	if len(o.Definitions) > 0 {
		cfg.PDFFlow.Workflows.Definitions = append([]string(nil), o.Definitions...)
	}
	return cfg
}

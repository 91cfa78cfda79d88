package config

import "go.uber.org/fx"

// NewLoggingConfigProvider extracts and provides *LoggingConfig from *Config.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.PDFFlow.System.Logging
}

// NewOrchestrationConfigProvider extracts the scheduler settings.
func NewOrchestrationConfigProvider(cfg *Config) *OrchestrationConfig {
	return &cfg.PDFFlow.Orchestration
}

// NewOperationsConfigProvider extracts the operation handler settings.
func NewOperationsConfigProvider(cfg *Config) *OperationsConfig {
	return &cfg.PDFFlow.Operations
}

// Module provides *Config and its sub-sections. EmbeddedConfig must be supplied by the application.
var Module = fx.Options(
	fx.Provide(func() EnvironmentExpander {
		return NewOsEnvironmentExpander()
	}),
	fx.Provide(NewConfigProvider),
	fx.Provide(NewLoggingConfigProvider),
	fx.Provide(NewOrchestrationConfigProvider),
	fx.Provide(NewOperationsConfigProvider),
)

// Package config provides structures and utilities for managing application configuration.
package config

import "time"

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
type EmbeddedConfig []byte

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
	// Format is "console" or "json".
	Format string `yaml:"format"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	Timezone string        `yaml:"timezone"`
	Logging  LoggingConfig `yaml:"logging"`
}

// OrchestrationConfig holds settings of the batch scheduler and the DAG executor.
type OrchestrationConfig struct {
	// HandlerTimeout bounds each operation handler call. Zero means no bound.
	HandlerTimeout time.Duration `yaml:"handler_timeout"`
	// MaxConcurrentExecutions caps batch jobs and workflow runs executing at once. Zero means no cap.
	MaxConcurrentExecutions int `yaml:"max_concurrent_executions"`
	// DefaultPageSize is used by list operations when no page size is given.
	DefaultPageSize int `yaml:"default_page_size"`
	// MetricsAsyncBufferSize is the buffer size for asynchronous metric recording.
	MetricsAsyncBufferSize int `yaml:"metrics_async_buffer_size"`
	// ShutdownTimeout bounds how long stopping the application waits for active executions.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MetricsConfig selects the metrics backend.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	// Backend is "prometheus" or "otlp".
	Backend string `yaml:"backend"`
	// ListenAddress serves /metrics for the prometheus backend. Empty disables the endpoint.
	ListenAddress string `yaml:"listen_address"`
	// Exporter is "otlpgrpc" or "otlphttp" for the otlp backend.
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
	// Interval is the push interval of the otlp backend.
	Interval time.Duration `yaml:"interval"`
}

// TracingConfig selects the span exporter.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
	// Exporter is "otlpgrpc" or "otlphttp".
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
	// SampleRatio is the fraction of root spans sampled, in [0,1].
	SampleRatio float64 `yaml:"sample_ratio"`
}

// ObservabilityConfig holds metrics and tracing settings.
type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Tracing     TracingConfig `yaml:"tracing"`
}

// ReportConfig controls the per-item batch report written when a batch job finishes.
type ReportConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	// Compression is the parquet codec: "snappy", "gzip" or "uncompressed".
	Compression string `yaml:"compression"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// MaskedOptionKeys is a list of option keys whose values should be masked in logs.
	MaskedOptionKeys []string `yaml:"masked_option_keys"`
}

// WorkflowsConfig lists workflow definitions registered at startup.
type WorkflowsConfig struct {
	// Definitions are file paths or doublestar glob patterns of workflow YAML files.
	Definitions []string `yaml:"definitions"`
}

// OperationsConfig selects the file processor behind the built-in operation handlers.
type OperationsConfig struct {
	// Processor is "plan" (derive output paths only) or "local" (materialize files on disk).
	Processor string `yaml:"processor"`
	// BaseDir confines the local processor. Inputs and outputs must resolve inside it.
	BaseDir string `yaml:"base_dir"`
}

// PDFFlowConfig holds all configuration under the "pdfflow" top-level key.
type PDFFlowConfig struct {
	System        SystemConfig        `yaml:"system"`
	Orchestration OrchestrationConfig `yaml:"orchestration"`
	Observability ObservabilityConfig `yaml:"observability"`
	Operations    OperationsConfig    `yaml:"operations"`
	Report        ReportConfig        `yaml:"report"`
	Security      SecurityConfig      `yaml:"security"`
	Workflows     WorkflowsConfig     `yaml:"workflows"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	PDFFlow PDFFlowConfig `yaml:"pdfflow"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	return &Config{
		PDFFlow: PDFFlowConfig{
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO", Format: "console"},
			},
			Orchestration: OrchestrationConfig{
				HandlerTimeout:          0,
				MaxConcurrentExecutions: 0,
				DefaultPageSize:         20,
				MetricsAsyncBufferSize:  100,
				ShutdownTimeout:         30 * time.Second,
			},
			Observability: ObservabilityConfig{
				ServiceName: "pdfflow",
				Metrics: MetricsConfig{
					Enabled:  false,
					Backend:  "prometheus",
					Exporter: "otlpgrpc",
					Interval: 15 * time.Second,
				},
				Tracing: TracingConfig{
					Enabled:     false,
					Exporter:    "otlpgrpc",
					SampleRatio: 1.0,
				},
			},
			Operations: OperationsConfig{
				Processor: "plan",
				BaseDir:   ".",
			},
			Report: ReportConfig{
				Enabled:     false,
				OutputDir:   "reports",
				Compression: "snappy",
			},
			Security: SecurityConfig{
				MaskedOptionKeys: []string{"password", "owner_password", "user_password", "api_key", "secret"},
			},
		},
	}
}

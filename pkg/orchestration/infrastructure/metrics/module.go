package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.uber.org/fx"

	config "github.com/tigerroll/pdfflow/pkg/orchestration/core/config"
	metrics "github.com/tigerroll/pdfflow/pkg/orchestration/core/metrics"
	exception "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// Metrics backends.
const (
	BackendPrometheus = "prometheus"
	BackendOTLP       = "otlp"
)

// NewMetricRecorderProvider selects the MetricRecorder from observability.metrics.
// Disabled metrics yield the no-op recorder.
func NewMetricRecorderProvider(lc fx.Lifecycle, cfg *config.Config) (metrics.MetricRecorder, error) {
	obs := cfg.PDFFlow.Observability
	mc := obs.Metrics
	if !mc.Enabled {
		logger.Debugf("Metrics are disabled.")
		return metrics.NewNoOpMetricRecorder(), nil
	}

	switch mc.Backend {
	case BackendPrometheus, "":
		recorder := NewPrometheusRecorder()
		if mc.ListenAddress != "" {
			server := NewMetricsServer(mc.ListenAddress, recorder.Handler())
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error { return server.Start() },
				OnStop:  server.Stop,
			})
		}
		logger.Infof("Metrics: Prometheus recorder enabled.")
		return recorder, nil

	case BackendOTLP:
		mp, err := NewMeterProvider(context.Background(), mc, obs.ServiceName)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: mp.Shutdown})
		recorder, err := NewOtelRecorder(mp)
		if err != nil {
			return nil, exception.NewOrchestrationError(moduleName, exception.CodeValidation, "failed to create metric instruments", err)
		}
		logger.Infof("Metrics: OTLP recorder enabled, exporting via %s.", describe(mc.Exporter, mc.Endpoint))
		return recorder, nil
	}
	return nil, exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "unknown metrics backend '%s'", mc.Backend)
}

// NewTracerProviderFromConfig selects the Tracer from observability.tracing. Disabled
// tracing yields the no-op tracer. An enabled provider is also installed globally.
func NewTracerProviderFromConfig(lc fx.Lifecycle, cfg *config.Config) (metrics.Tracer, error) {
	obs := cfg.PDFFlow.Observability
	if !obs.Tracing.Enabled {
		logger.Debugf("Tracing is disabled.")
		return metrics.NewNoOpTracer(), nil
	}
	tp, err := NewTracerProvider(context.Background(), obs.Tracing, obs.ServiceName)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	lc.Append(fx.Hook{OnStop: tp.Shutdown})
	logger.Infof("Tracing: OpenTelemetry tracer enabled, exporting via %s.", describe(obs.Tracing.Exporter, obs.Tracing.Endpoint))
	return NewOtelTracer(tp), nil
}

// Module provides the configured MetricRecorder and Tracer. It replaces metrics.NoOpModule.
var Module = fx.Options(
	fx.Provide(NewMetricRecorderProvider),
	fx.Provide(NewTracerProviderFromConfig),
)

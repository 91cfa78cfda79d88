package metrics

import (
	"go.uber.org/fx"
)

// NoOpModule provides the no-op MetricRecorder and Tracer. Applications that wire the
// infrastructure metrics module instead must not include it.
var NoOpModule = fx.Options(
	fx.Provide(NewNoOpMetricRecorder),
	fx.Provide(NewNoOpTracer),
)

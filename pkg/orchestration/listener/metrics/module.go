package metrics

import (
	"context"

	"go.uber.org/fx"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	config "github.com/tigerroll/pdfflow/pkg/orchestration/core/config"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/metrics"
)

// DecorateAsync wraps the provided MetricRecorder in an AsyncMetricRecorder that is
// drained when the application stops. The no-op recorder is left as is.
func DecorateAsync(lc fx.Lifecycle, cfg *config.Config, recorder metrics.MetricRecorder) metrics.MetricRecorder {
	if _, ok := recorder.(*metrics.NoOpMetricRecorder); ok {
		return recorder
	}
	async := NewAsyncMetricRecorder(cfg.PDFFlow.Orchestration.MetricsAsyncBufferSize, recorder)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			async.Close()
			return nil
		},
	})
	return async
}

// Module makes metric recording asynchronous and contributes the metrics listeners.
var Module = fx.Options(
	fx.Decorate(DecorateAsync),
	fx.Provide(port.AsBatchJobListener(NewMetricsBatchJobListener)),
	fx.Provide(port.AsWorkflowRunListener(NewMetricsWorkflowRunListener)),
)

package notification

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
)

// Module provides notification-related components.
var Module = fx.Options(
	// 1. Provides a concrete implementation of Notifier.
	fx.Provide(fx.Annotate(
		NewDummyNotifier,
		fx.As(new(port.Notifier)),
	)),

	// 2. Provides the listener and contributes it to both lifecycle groups.
	fx.Provide(NewNotificationListener),
	fx.Provide(fx.Annotate(
		func(l *NotificationListener) *NotificationListener { return l },
		fx.As(new(port.BatchJobListener)),
		fx.ResultTags(`group:"batchJobListeners"`),
	)),
	fx.Provide(fx.Annotate(
		func(l *NotificationListener) *NotificationListener { return l },
		fx.As(new(port.WorkflowRunListener)),
		fx.ResultTags(`group:"workflowRunListeners"`),
	)),
)

package main

import (
	"go.uber.org/fx"

	"github.com/tigerroll/pdfflow/pkg/orchestration/component/node"
	"github.com/tigerroll/pdfflow/pkg/orchestration/component/operation"
	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	usecase "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/usecase"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/batch"
	config "github.com/tigerroll/pdfflow/pkg/orchestration/core/config"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/handler"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/support/expression"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/workflow"
	inframetrics "github.com/tigerroll/pdfflow/pkg/orchestration/infrastructure/metrics"
	inmemoryRepo "github.com/tigerroll/pdfflow/pkg/orchestration/infrastructure/repository/inmemory"
	orchestrationlistener "github.com/tigerroll/pdfflow/pkg/orchestration/listener"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// GetApplicationOptions builds the uber-fx options of the application and returns them as a slice.
func GetApplicationOptions(envFilePath string, embeddedConfig config.EmbeddedConfig, overrides *Overrides) []fx.Option {
	var options []fx.Option

	options = append(options, fx.Supply(
		embeddedConfig,
		fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
	))
	options = append(options, logger.Module)
	options = append(options, config.Module)
	options = append(options, fx.Decorate(overrides.Apply))
	options = append(options, inmemoryRepo.Module)
	options = append(options, handler.Module)
	options = append(options, operation.Module)
	options = append(options, node.Module)
	options = append(options, expression.Module)
	options = append(options, port.Module)
	options = append(options, inframetrics.Module)
	options = append(options, orchestrationlistener.Module)
	options = append(options, batch.Module)
	options = append(options, workflow.Module)
	options = append(options, usecase.Module)

	return options
}

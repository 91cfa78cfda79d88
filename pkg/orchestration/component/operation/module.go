package operation

import (
	"fmt"

	"go.uber.org/fx"

	config "github.com/tigerroll/pdfflow/pkg/orchestration/core/config"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/handler"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// NewFileProcessor selects the processor named by operations.processor.
func NewFileProcessor(cfg *config.OperationsConfig) (FileProcessor, error) {
	switch cfg.Processor {
	case "", "plan":
		logger.Infof("Operation handlers use the planning processor; no files are written.")
		return NewPlanningProcessor(), nil
	case "local":
		logger.Infof("Operation handlers write files under '%s'.", cfg.BaseDir)
		return NewLocalProcessor(cfg.BaseDir)
	default:
		return nil, fmt.Errorf("unknown operations processor '%s'", cfg.Processor)
	}
}

func entry(operation string) interface{} {
	return handler.AsEntry(func(p FileProcessor) handler.Entry {
		return handler.Entry{Name: operation, Handler: NewHandler(operation, p)}
	})
}

// Module registers every built-in operation handler.
var Module = fx.Options(
	fx.Provide(NewFileProcessor),
	fx.Provide(entry(Merge)),
	fx.Provide(entry(Split)),
	fx.Provide(entry(Convert)),
	fx.Provide(entry(Compress)),
	fx.Provide(entry(OCR)),
	fx.Provide(entry(Watermark)),
	fx.Provide(entry(Encrypt)),
	fx.Provide(entry(Decrypt)),
)

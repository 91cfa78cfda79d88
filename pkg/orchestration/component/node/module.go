package node

import (
	"go.uber.org/fx"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/handler"
)

func controlEntry(nodeType string, h handler.Handler) fx.Option {
	return handler.SupplyNode(nodeType, h)
}

func operationEntry(nodeType, operation string) fx.Option {
	return fx.Provide(handler.AsNodeEntry(func(operations handler.Registry) handler.Entry {
		return handler.Entry{Name: nodeType, Handler: NewOperationNode(operation, operations)}
	}))
}

func operationEntries() fx.Option {
	opts := make([]fx.Option, 0, len(OperationNodeTypes))
	for nodeType, operation := range OperationNodeTypes {
		opts = append(opts, operationEntry(nodeType, operation))
	}
	return fx.Options(opts...)
}

// Module registers the built-in node handlers with the node registry.
var Module = fx.Options(
	controlEntry(model.NodeTypeStart, NewPassThrough()),
	controlEntry(model.NodeTypeEnd, NewPassThrough()),
	controlEntry(model.NodeTypeMerge, NewPassThrough()),
	controlEntry(model.NodeTypeParallel, NewPassThrough()),
	controlEntry(model.NodeTypeDelay, NewDelay()),
	controlEntry(model.NodeTypeCondition, NewCondition()),
	operationEntries(),
)

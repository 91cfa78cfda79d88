package node

import (
	"context"
	"fmt"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/handler"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
)

// Config keys read by operation nodes. The remaining config entries are passed to
// the operation as options.
const (
	InputKey     = "input"
	OutputDirKey = "output_dir"
	// FileKey carries the current file between operation nodes.
	FileKey = "file"
)

// OperationNodeTypes maps operation node types onto batch operation names.
var OperationNodeTypes = map[string]string{
	"pdf-merge":     "merge",
	"pdf-split":     "split",
	"pdf-convert":   "convert",
	"pdf-compress":  "compress",
	"pdf-watermark": "watermark",
	"pdf-encrypt":   "encrypt",
	"pdf-decrypt":   "decrypt",
	"ocr-process":   "ocr",
}

// OperationNode runs a batch operation for a single file inside a workflow.
// The file is config "input", or the "file" input produced upstream.
type OperationNode struct {
	operation  string
	operations handler.Registry
}

// NewOperationNode creates a node handler that delegates to operation.
func NewOperationNode(operation string, operations handler.Registry) *OperationNode {
	return &OperationNode{operation: operation, operations: operations}
}

// Handle resolves the operation and runs it on the node's file.
func (n *OperationNode) Handle(ctx context.Context, req handler.Request) (handler.Response, error) {
	h, err := n.operations.Lookup(n.operation)
	if err != nil {
		return handler.Response{}, err
	}

	options := model.CopyMap(req.Options)
	item := stringValue(options[InputKey])
	if item == "" {
		item = stringValue(req.Inputs[FileKey])
	}
	if item == "" {
		return handler.Response{}, exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation,
			"node '%s' has no input file: set config '%s' or provide input '%s'", req.Item, InputKey, FileKey)
	}
	outputDir := stringValue(options[OutputDirKey])
	if outputDir == "" {
		outputDir = stringValue(req.Inputs[OutputDirKey])
	}
	delete(options, InputKey)
	delete(options, OutputDirKey)

	resp, err := h.Handle(ctx, handler.Request{
		Operation:    n.operation,
		Item:         item,
		OutputTarget: outputDir,
		Options:      options,
	})
	if err != nil {
		return handler.Response{}, err
	}

	values := model.CopyMap(resp.Values)
	values["operation"] = n.operation
	if len(resp.Outputs) > 0 {
		values[FileKey] = resp.Outputs[0]
		if _, ok := values[ResultKey]; !ok {
			values[ResultKey] = resp.Outputs[0]
		}
	}
	return handler.Response{Outputs: resp.Outputs, Values: values}, nil
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

var _ handler.Handler = (*OperationNode)(nil)

// Package operation provides the built-in batch operation handlers. Each handler
// derives the output location of an item and hands the actual file work to a
// FileProcessor.
package operation

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/tigerroll/pdfflow/pkg/orchestration/core/handler"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/configbinder"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

const moduleName = "operation"

// Built-in operation names.
const (
	Merge     = "merge"
	Split     = "split"
	Convert   = "convert"
	Compress  = "compress"
	OCR       = "ocr"
	Watermark = "watermark"
	Encrypt   = "encrypt"
	Decrypt   = "decrypt"
)

// Names lists every built-in operation.
var Names = []string{Merge, Split, Convert, Compress, OCR, Watermark, Encrypt, Decrypt}

// ResultKey holds the primary output location in a handler's Values.
const ResultKey = "result"

// convertExtensions maps conversion formats to output extensions.
var convertExtensions = map[string]string{
	"pdf-to-word":  ".docx",
	"pdf-to-excel": ".xlsx",
	"pdf-to-ppt":   ".pptx",
	"pdf-to-image": ".png",
	"pdf-to-html":  ".html",
	"pdf-to-txt":   ".txt",
	"word-to-pdf":  ".pdf",
	"excel-to-pdf": ".pdf",
	"ppt-to-pdf":   ".pdf",
	"image-to-pdf": ".pdf",
	"html-to-pdf":  ".pdf",
}

// Options are the operation options understood by the built-in handlers. Unknown
// keys are ignored.
type Options struct {
	Password      string `yaml:"password"`
	OwnerPassword string `yaml:"owner_password"`
	// Text is the watermark text.
	Text string `yaml:"text"`
	// Format is the conversion format, e.g. "pdf-to-word".
	Format   string `yaml:"format"`
	Quality  string `yaml:"quality"`
	Language string `yaml:"language"`
	Pages    string `yaml:"pages"`
}

func (o Options) validate(operation string) error {
	switch operation {
	case Encrypt, Decrypt:
		if o.Password == "" && o.OwnerPassword == "" {
			return exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "%s requires a password option", operation)
		}
	case Watermark:
		if strings.TrimSpace(o.Text) == "" {
			return exception.NewOrchestrationError(moduleName, exception.CodeValidation, "watermark requires a text option", nil)
		}
	case Convert:
		if o.Format != "" {
			if _, ok := convertExtensions[o.Format]; !ok {
				return exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "unsupported conversion format '%s'", o.Format)
			}
		}
	}
	return nil
}

// OutputPath derives the output location of item for operation under outputDir.
func OutputPath(operation, item, outputDir string, opts Options) string {
	base := filepath.Base(item)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	var out string
	switch operation {
	case Merge:
		out = name + "_merged.pdf"
	case Split:
		out = name + "_split"
	case Convert:
		ext, ok := convertExtensions[opts.Format]
		if !ok {
			ext = ".docx"
		}
		out = name + ext
	case Compress:
		out = name + "_compressed.pdf"
	case OCR:
		out = name + "_ocr.pdf"
	case Watermark:
		out = name + "_watermarked.pdf"
	case Encrypt:
		out = name + "_encrypted.pdf"
	case Decrypt:
		out = name + "_decrypted.pdf"
	default:
		out = name
	}
	return filepath.Join(outputDir, out)
}

// Handler runs one built-in operation.
type Handler struct {
	operation string
	processor FileProcessor
}

// NewHandler creates the handler of operation backed by processor.
func NewHandler(operation string, processor FileProcessor) *Handler {
	return &Handler{operation: operation, processor: processor}
}

// Handle validates the options, derives the output path and runs the processor.
func (h *Handler) Handle(ctx context.Context, req handler.Request) (handler.Response, error) {
	if strings.TrimSpace(req.Item) == "" {
		return handler.Response{}, exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "%s requires an input item", h.operation)
	}

	var opts Options
	if err := configbinder.BindProperties(req.Options, &opts); err != nil {
		return handler.Response{}, exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "invalid %s options", h.operation, err)
	}
	if err := opts.validate(h.operation); err != nil {
		return handler.Response{}, err
	}

	task := Task{
		Operation: h.operation,
		Input:     req.Item,
		Output:    OutputPath(h.operation, req.Item, req.OutputTarget, opts),
		Options:   opts,
	}
	if err := h.processor.Process(ctx, task); err != nil {
		return handler.Response{}, exception.NewOrchestrationErrorf(moduleName, exception.CodeProcessing,
			"%s failed for '%s'", h.operation, req.Item, err)
	}

	logger.Debugf("Operation '%s': '%s' -> '%s'.", h.operation, task.Input, task.Output)
	return handler.Response{
		Outputs: []string{task.Output},
		Values:  map[string]interface{}{ResultKey: task.Output},
	}, nil
}

var _ handler.Handler = (*Handler)(nil)

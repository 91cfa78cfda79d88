package operation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tigerroll/pdfflow/pkg/orchestration/core/config"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/handler"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		operation string
		opts      Options
		want      string
	}{
		{Merge, Options{}, "out/report_merged.pdf"},
		{Split, Options{}, "out/report_split"},
		{Convert, Options{}, "out/report.docx"},
		{Convert, Options{Format: "pdf-to-excel"}, "out/report.xlsx"},
		{Compress, Options{}, "out/report_compressed.pdf"},
		{OCR, Options{}, "out/report_ocr.pdf"},
		{Watermark, Options{}, "out/report_watermarked.pdf"},
		{Encrypt, Options{}, "out/report_encrypted.pdf"},
		{Decrypt, Options{}, "out/report_decrypted.pdf"},
		{"other", Options{}, "out/report"},
	}
	for _, tt := range tests {
		t.Run(tt.operation+tt.opts.Format, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), OutputPath(tt.operation, "in/dir/report.pdf", "out", tt.opts))
		})
	}
}

func TestHandler_PlansOutput(t *testing.T) {
	h := NewHandler(Compress, NewPlanningProcessor())

	resp, err := h.Handle(context.Background(), handler.Request{
		Operation:    Compress,
		Item:         "docs/a.pdf",
		OutputTarget: "out",
		Options:      map[string]interface{}{"quality": "low", "unrelated": 42},
	})
	require.NoError(t, err)
	want := filepath.Join("out", "a_compressed.pdf")
	assert.Equal(t, []string{want}, resp.Outputs)
	assert.Equal(t, want, resp.Values[ResultKey])
}

func TestHandler_ValidatesOptions(t *testing.T) {
	tests := []struct {
		operation string
		options   map[string]interface{}
	}{
		{Encrypt, nil},
		{Decrypt, map[string]interface{}{"text": "x"}},
		{Watermark, map[string]interface{}{"text": "  "}},
		{Convert, map[string]interface{}{"format": "pdf-to-midi"}},
	}
	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			_, err := NewHandler(tt.operation, NewPlanningProcessor()).Handle(context.Background(), handler.Request{Item: "a.pdf", Options: tt.options})
			require.Error(t, err)
			assert.Equal(t, exception.CodeValidation, exception.CodeOf(err))
		})
	}

	_, err := NewHandler(Encrypt, NewPlanningProcessor()).Handle(context.Background(), handler.Request{
		Item: "a.pdf", Options: map[string]interface{}{"password": "s3cret"},
	})
	assert.NoError(t, err)
}

func TestHandler_RejectsEmptyItem(t *testing.T) {
	_, err := NewHandler(OCR, NewPlanningProcessor()).Handle(context.Background(), handler.Request{Item: " "})
	assert.True(t, errors.Is(err, exception.ErrValidation))
}

type failingProcessor struct{}

func (failingProcessor) Process(context.Context, Task) error { return errors.New("corrupt xref table") }

func TestHandler_WrapsProcessorFailure(t *testing.T) {
	_, err := NewHandler(Merge, failingProcessor{}).Handle(context.Background(), handler.Request{Item: "a.pdf", OutputTarget: "out"})
	require.Error(t, err)
	assert.Equal(t, exception.CodeProcessing, exception.CodeOf(err))
	assert.Equal(t, "merge failed for 'a.pdf': corrupt xref table", exception.ExtractErrorMessage(err))
}

func TestLocalProcessor_WritesOutput(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "a.pdf"), []byte("%PDF-1.7"), 0644))

	p, err := NewLocalProcessor(base)
	require.NoError(t, err)
	h := NewHandler(Watermark, p)

	resp, err := h.Handle(context.Background(), handler.Request{
		Item: "a.pdf", OutputTarget: "out", Options: map[string]interface{}{"text": "DRAFT"},
	})
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(base, resp.Outputs[0]))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
}

func TestLocalProcessor_Split(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "a.pdf"), []byte("x"), 0644))
	p, err := NewLocalProcessor(base)
	require.NoError(t, err)

	require.NoError(t, p.Process(context.Background(), Task{Operation: Split, Input: "a.pdf", Output: "out/a_split"}))
	_, err = os.Stat(filepath.Join(base, "out", "a_split", "a.pdf"))
	assert.NoError(t, err)
}

func TestLocalProcessor_RejectsEscapingPaths(t *testing.T) {
	p, err := NewLocalProcessor(t.TempDir())
	require.NoError(t, err)

	err = p.Process(context.Background(), Task{Operation: Compress, Input: "../secret.pdf", Output: "out/x.pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside of base directory")
}

func TestLocalProcessor_MissingInput(t *testing.T) {
	p, err := NewLocalProcessor(t.TempDir())
	require.NoError(t, err)

	err = p.Process(context.Background(), Task{Operation: Compress, Input: "missing.pdf", Output: "out/x.pdf"})
	assert.Error(t, err)
}

func TestNewFileProcessor(t *testing.T) {
	p, err := NewFileProcessor(&config.OperationsConfig{Processor: "plan"})
	require.NoError(t, err)
	assert.IsType(t, &PlanningProcessor{}, p)

	p, err = NewFileProcessor(&config.OperationsConfig{Processor: "local", BaseDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalProcessor{}, p)

	_, err = NewFileProcessor(&config.OperationsConfig{Processor: "s3"})
	assert.Error(t, err)
}

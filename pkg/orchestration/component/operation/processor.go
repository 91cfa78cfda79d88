package operation

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// Task is one unit of file work.
type Task struct {
	Operation string
	Input     string
	Output    string
	Options   Options
}

// FileProcessor performs the file work of an operation. PDF engines plug in here.
type FileProcessor interface {
	Process(ctx context.Context, task Task) error
}

// PlanningProcessor does no I/O. Handlers backed by it only report the outputs
// they would produce.
type PlanningProcessor struct{}

// NewPlanningProcessor creates a PlanningProcessor.
func NewPlanningProcessor() *PlanningProcessor {
	return &PlanningProcessor{}
}

// Process returns ctx.Err().
func (p *PlanningProcessor) Process(ctx context.Context, task Task) error {
	return ctx.Err()
}

// LocalProcessor materializes outputs on the local file system, confined to BaseDir.
// The input is copied to the output location; a split produces a directory holding
// the copy.
type LocalProcessor struct {
	baseDir string
}

// NewLocalProcessor creates a LocalProcessor rooted at baseDir, creating it if needed.
func NewLocalProcessor(baseDir string) (*LocalProcessor, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("local processor: base directory must be specified")
	}
	info, err := os.Stat(baseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("local processor: failed to stat base directory '%s': %w", baseDir, err)
		}
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return nil, fmt.Errorf("local processor: failed to create base directory '%s': %w", baseDir, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("local processor: '%s' is not a directory", baseDir)
	}
	return &LocalProcessor{baseDir: baseDir}, nil
}

// Process copies task.Input to task.Output.
func (p *LocalProcessor) Process(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := p.resolvePath(task.Input)
	if err != nil {
		return err
	}
	out, err := p.resolvePath(task.Output)
	if err != nil {
		return err
	}
	if task.Operation == Split {
		if err := os.MkdirAll(out, 0755); err != nil {
			return fmt.Errorf("failed to create directory '%s': %w", out, err)
		}
		out = filepath.Join(out, filepath.Base(in))
	}

	src, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("failed to open input '%s': %w", in, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", filepath.Dir(out), err)
	}
	dst, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output '%s': %w", out, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write output '%s': %w", out, err)
	}
	logger.Debugf("LocalProcessor: wrote '%s' (%s).", out, task.Operation)
	return nil
}

// resolvePath joins relative paths to the base directory and rejects paths that
// escape it.
func (p *LocalProcessor) resolvePath(path string) (string, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(p.baseDir, path)
	}
	absBase, err := filepath.Abs(p.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", p.baseDir, err)
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", full, err)
	}
	if absFull != absBase && !strings.HasPrefix(absFull, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path '%s' is outside of base directory '%s'", path, p.baseDir)
	}
	return absFull, nil
}

var (
	_ FileProcessor = (*PlanningProcessor)(nil)
	_ FileProcessor = (*LocalProcessor)(nil)
)

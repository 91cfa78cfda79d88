// Package report writes a per-item parquet report of every finished batch job.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	config "github.com/tigerroll/pdfflow/pkg/orchestration/core/config"
	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

const moduleName = "report"

// Row statuses.
const (
	RowCompleted   = "completed"
	RowFailed      = "failed"
	RowUnprocessed = "unprocessed"
	// RowJobError marks a failure of the job as a whole, e.g. an unknown operation.
	RowJobError = "job_error"
)

// ReportRow is one line of a batch report.
type ReportRow struct {
	JobID     string `parquet:"name=job_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	JobName   string `parquet:"name=job_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Operation string `parquet:"name=operation, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Item      string `parquet:"name=item, type=BYTE_ARRAY, convertedtype=UTF8"`
	Status    string `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	// Outputs are the produced paths joined with ";".
	Outputs    string `parquet:"name=outputs, type=BYTE_ARRAY, convertedtype=UTF8"`
	ErrorCode  string `parquet:"name=error_code, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Error      string `parquet:"name=error, type=BYTE_ARRAY, convertedtype=UTF8"`
	Attempt    int32  `parquet:"name=attempt, type=INT32"`
	FinishedAt int64  `parquet:"name=finished_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

// BuildRows derives the report rows of a finished job in input order. Items without
// a recorded outcome (cancellation, stop on error) are reported as unprocessed.
func BuildRows(job *model.BatchJob) []ReportRow {
	base := ReportRow{
		JobID:     job.ID,
		JobName:   job.Name,
		Operation: job.Operation,
		Attempt:   int32(job.Attempt),
	}
	if job.CompletedAt != nil {
		base.FinishedAt = job.CompletedAt.UnixMilli()
	}

	outcomes := make(map[string][]ReportRow)
	var jobErrors []ReportRow
	if job.Result != nil {
		for _, o := range job.Result.OutputFiles {
			row := base
			row.Item = o.Item
			row.Status = RowCompleted
			row.Outputs = strings.Join(o.Outputs, ";")
			outcomes[o.Item] = append(outcomes[o.Item], row)
		}
		for _, e := range job.Result.Errors {
			row := base
			row.Item = e.Item
			row.ErrorCode = e.Code
			row.Error = e.Error
			if e.Item == "" {
				row.Status = RowJobError
				jobErrors = append(jobErrors, row)
				continue
			}
			row.Status = RowFailed
			outcomes[e.Item] = append(outcomes[e.Item], row)
		}
	}

	rows := make([]ReportRow, 0, len(job.InputItems)+len(jobErrors))
	for _, item := range job.InputItems {
		if queue := outcomes[item]; len(queue) > 0 {
			rows = append(rows, queue[0])
			outcomes[item] = queue[1:]
			continue
		}
		row := base
		row.Item = item
		row.Status = RowUnprocessed
		rows = append(rows, row)
	}
	return append(rows, jobErrors...)
}

// ParquetReportListener writes "<OutputDir>/<jobID>_attempt<N>.parquet" whenever a
// batch job reaches a terminal status. Failures are logged and never affect the job.
type ParquetReportListener struct {
	cfg config.ReportConfig
}

// NewParquetReportListener creates a report listener from the report configuration.
func NewParquetReportListener(cfg config.ReportConfig) *ParquetReportListener {
	return &ParquetReportListener{cfg: cfg}
}

func (l *ParquetReportListener) BeforeBatch(ctx context.Context, job *model.BatchJob) {}

func (l *ParquetReportListener) AfterBatch(ctx context.Context, job *model.BatchJob) {
	path, err := l.Write(job)
	if err != nil {
		logger.Errorf("Report: failed to write report of batch job '%s' (ID: %s): %v", job.Name, job.ID, err)
		return
	}
	logger.Infof("Report: batch job '%s' (ID: %s) report written to %s", job.Name, job.ID, path)
}

// Path returns the report file of the given job attempt.
func (l *ParquetReportListener) Path(job *model.BatchJob) string {
	return filepath.Join(l.cfg.OutputDir, fmt.Sprintf("%s_attempt%d.parquet", job.ID, job.Attempt))
}

// Write writes the report of job and returns its path.
func (l *ParquetReportListener) Write(job *model.BatchJob) (path string, err error) {
	codec, err := getCompressionCodec(l.cfg.Compression)
	if err != nil {
		return "", exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "invalid report compression '%s'", l.cfg.Compression, err)
	}
	if err := os.MkdirAll(l.cfg.OutputDir, 0o755); err != nil {
		return "", exception.NewOrchestrationErrorf(moduleName, exception.CodeProcessing, "failed to create report directory '%s'", l.cfg.OutputDir, err)
	}

	path = l.Path(job)
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return "", exception.NewOrchestrationErrorf(moduleName, exception.CodeProcessing, "failed to create report file '%s'", path, err)
	}

	var multiErr error
	defer func() {
		if cerr := fw.Close(); cerr != nil {
			multiErr = multierror.Append(multiErr, fmt.Errorf("failed to close report file '%s': %w", path, cerr))
		}
		err = multiErr
	}()

	rows := BuildRows(job)
	pw, perr := writer.NewParquetWriter(fw, new(ReportRow), 1)
	if perr != nil {
		multiErr = multierror.Append(multiErr, fmt.Errorf("failed to create parquet writer for '%s': %w", path, perr))
		return path, nil
	}
	pw.CompressionType = codec

	for _, row := range rows {
		if werr := pw.Write(row); werr != nil {
			multiErr = multierror.Append(multiErr, fmt.Errorf("failed to write report row for item '%s': %w", row.Item, werr))
			break
		}
	}

	// WriteStop may panic on malformed input; it is converted to an error.
	func() {
		defer func() {
			if r := recover(); r != nil {
				multiErr = multierror.Append(multiErr, fmt.Errorf("parquet writer panicked during WriteStop for '%s': %v", path, r))
				logger.Errorf("Report: Recovered from panic during WriteStop: %v", r)
			}
		}()
		if serr := pw.WriteStop(); serr != nil {
			multiErr = multierror.Append(multiErr, fmt.Errorf("failed to stop parquet writer for '%s': %w", path, serr))
		}
	}()
	return path, nil
}

// getCompressionCodec returns the Parquet compression codec from a string.
func getCompressionCodec(compressionType string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(compressionType) {
	case "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE", "UNCOMPRESSED", "": // NONE or empty string means uncompressed
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported compression type: %s", compressionType)
	}
}

var _ port.BatchJobListener = (*ParquetReportListener)(nil)

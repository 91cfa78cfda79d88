package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	usecase "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/usecase"
	config "github.com/tigerroll/pdfflow/pkg/orchestration/core/config"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/config/definition"
	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// newRootCommand builds the pdfflow command tree.
func newRootCommand(envFilePath string) *cobra.Command {
	overrides := &Overrides{}

	root := &cobra.Command{
		Use:           "pdfflow",
		Short:         "Batch and workflow orchestration for PDF operations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&envFilePath, "env-file", envFilePath, "path of the .env file loaded before the configuration")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")
	flags.StringVar(&overrides.Processor, "processor", "", "file processor of the operation handlers (plan, local)")
	flags.StringVar(&overrides.BaseDir, "base-dir", "", "directory the local processor is confined to")
	flags.StringVar(&overrides.ReportDir, "report-dir", "", "write parquet reports of finished batch jobs to this directory")

	root.AddCommand(
		newServeCommand(&envFilePath, overrides),
		newBatchCommand(&envFilePath, overrides),
		newRunCommand(&envFilePath, overrides),
	)
	return root
}

// newServeCommand runs the application until it receives a signal. Workflows listed
// under workflows.definitions are registered on start.
func newServeCommand(envFilePath *string, overrides *Overrides) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the orchestrator and keep it running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fxApp := fx.New(GetApplicationOptions(*envFilePath, embeddedConfig, overrides)...)
			fxApp.Run()
			return fxApp.Err()
		},
	}
	cmd.Flags().StringSliceVar(&overrides.Definitions, "definitions", nil, "workflow definition files or glob patterns to register")
	return cmd
}

type batchFlags struct {
	name        string
	operation   string
	output      string
	options     []string
	stopOnError bool
	expand      bool
}

// newBatchCommand submits one batch job and waits for it to finish.
func newBatchCommand(envFilePath *string, overrides *Overrides) *cobra.Command {
	f := &batchFlags{}
	cmd := &cobra.Command{
		Use:   "batch [flags] ITEM...",
		Short: "Process files with one operation and print the finished job",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := parseKeyValues(f.options)
			if err != nil {
				return err
			}
			req := usecase.BatchRequest{
				Name:            f.name,
				Operation:       f.operation,
				Items:           args,
				OutputDirectory: f.output,
				Options:         options,
				StopOnError:     f.stopOnError,
				AutoStart:       true,
				ExpandPatterns:  f.expand,
			}
			return withOrchestrator(cmd.Context(), *envFilePath, overrides, func(ctx context.Context, o usecase.Orchestrator) error {
				return runBatch(ctx, o, req, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&f.name, "name", "", "job name")
	cmd.Flags().StringVarP(&f.operation, "operation", "o", "", "operation to apply (merge, split, convert, compress, ocr, watermark, encrypt, decrypt)")
	cmd.Flags().StringVar(&f.output, "output", "", "output directory")
	cmd.Flags().StringArrayVar(&f.options, "option", nil, "operation option as key=value (repeatable)")
	cmd.Flags().BoolVar(&f.stopOnError, "stop-on-error", false, "stop at the first failed item")
	cmd.Flags().BoolVar(&f.expand, "expand", false, "expand glob patterns (doublestar syntax) among the items")
	_ = cmd.MarkFlagRequired("operation")
	return cmd
}

type runFlags struct {
	inputs []string
}

// newRunCommand registers a workflow definition file and runs it once.
func newRunCommand(envFilePath *string, overrides *Overrides) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [flags] WORKFLOW_FILE",
		Short: "Run a workflow definition and print the finished run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := definition.LoadFile(args[0])
			if err != nil {
				return err
			}
			inputs, err := parseKeyValues(f.inputs)
			if err != nil {
				return err
			}
			return withOrchestrator(cmd.Context(), *envFilePath, overrides, func(ctx context.Context, o usecase.Orchestrator) error {
				return runWorkflow(ctx, o, def, inputs, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringArrayVarP(&f.inputs, "input", "i", nil, "workflow input as key=value (repeatable)")
	return cmd
}

// withOrchestrator starts the application, hands its Orchestrator to fn and stops
// the application afterwards.
func withOrchestrator(ctx context.Context, envFilePath string, overrides *Overrides, fn func(context.Context, usecase.Orchestrator) error) error {
	var orchestrator usecase.Orchestrator
	options := append(GetApplicationOptions(envFilePath, config.EmbeddedConfig(embeddedConfig), overrides), fx.Populate(&orchestrator))
	fxApp := fx.New(options...)

	startCtx, cancel := context.WithTimeout(ctx, fxApp.StartTimeout())
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), fxApp.StopTimeout())
		defer cancel()
		if err := fxApp.Stop(stopCtx); err != nil {
			logger.Errorf("Failed to stop application: %v", err)
		}
	}()
	return fn(ctx, orchestrator)
}

// runBatch submits req and waits for the job. When ctx ends first, the job is cancelled.
func runBatch(ctx context.Context, o usecase.Orchestrator, req usecase.BatchRequest, out io.Writer) error {
	id, err := o.SubmitBatch(ctx, req)
	if err != nil {
		return err
	}
	logger.Infof("Batch job submitted. ID: %s", id)

	job, err := o.AwaitBatch(ctx, id)
	if err != nil {
		if ctx.Err() == nil {
			return err
		}
		if _, cerr := o.CancelBatch(context.Background(), id); cerr != nil {
			return cerr
		}
		if job, err = o.AwaitBatch(context.Background(), id); err != nil {
			return err
		}
	}
	if err := printJSON(out, job); err != nil {
		return err
	}
	if job.Status != model.StatusCompleted {
		return fmt.Errorf("batch job %s finished with status %s", job.ID, job.Status)
	}
	return nil
}

// runWorkflow creates the workflow and runs it synchronously.
func runWorkflow(ctx context.Context, o usecase.Orchestrator, def model.WorkflowDefinition, inputs map[string]interface{}, out io.Writer) error {
	workflowID, err := o.CreateWorkflow(ctx, def)
	if err != nil {
		return err
	}
	runID, runErr := o.RunWorkflow(ctx, workflowID, inputs, false)
	if runID == "" {
		return runErr
	}
	run, err := o.GetRun(context.Background(), runID)
	if err != nil {
		return err
	}
	if err := printJSON(out, run); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if run.Status != model.StatusCompleted {
		return fmt.Errorf("workflow run %s finished with status %s: %s", run.ID, run.Status, run.Error)
	}
	return nil
}

// parseKeyValues turns key=value pairs into a map. Values are YAML scalars, so
// "3" becomes an int and "true" a bool.
func parseKeyValues(pairs []string) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid key=value pair '%s'", pair)
		}
		var value interface{}
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		values[key] = value
	}
	return values, nil
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

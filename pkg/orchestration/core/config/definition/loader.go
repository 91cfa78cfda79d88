// Package definition loads workflow definitions from YAML documents.
package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

const moduleName = "definition_loader"

// Document is a workflow definition together with the file it came from.
type Document struct {
	Path       string
	Definition model.WorkflowDefinition
}

// LoadBytes parses and validates one workflow definition. Unknown keys are rejected.
// source names the document in error messages.
func LoadBytes(source string, data []byte) (model.WorkflowDefinition, error) {
	var def model.WorkflowDefinition

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return def, exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "workflow definition '%s' is empty", source)
		}
		return def, exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "failed to parse workflow definition '%s'", source, err)
	}

	if def.Name == "" {
		base := filepath.Base(source)
		def.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := model.NewWorkflowGraph(def).Validate(); err != nil {
		return def, exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "workflow definition '%s' is invalid", source, err)
	}
	return def, nil
}

// LoadFile reads and parses the workflow definition at path.
func LoadFile(path string) (model.WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.WorkflowDefinition{}, exception.NewOrchestrationErrorf(moduleName, exception.CodeNotFound, "failed to read workflow definition '%s'", path, err)
	}
	return LoadBytes(path, data)
}

// Load expands patterns (doublestar globs or plain paths) and loads every matching
// file in lexical order. Problems of all files are reported together.
func Load(patterns []string) ([]Document, error) {
	var (
		paths  []string
		result *multierror.Error
	)
	seen := make(map[string]struct{})
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid definition pattern '%s': %w", p, err))
			continue
		}
		if len(matches) == 0 {
			logger.Warnf("Workflow definition pattern '%s' matched no files.", p)
		}
		for _, m := range matches {
			if _, dup := seen[m]; !dup {
				seen[m] = struct{}{}
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		def, err := LoadFile(path)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		docs = append(docs, Document{Path: path, Definition: def})
		logger.Debugf("Loaded workflow definition '%s' from '%s'.", def.Name, path)
	}

	if err := result.ErrorOrNil(); err != nil {
		return docs, exception.NewOrchestrationError(moduleName, exception.CodeValidation, "failed to load workflow definitions", err)
	}
	logger.Infof("Workflow definition loading completed. Number of workflows loaded: %d", len(docs))
	return docs, nil
}

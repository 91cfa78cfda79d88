// Package item expands submitted batch items and definition paths.
package item

import (
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

const moduleName = "item_expander"

// IsPattern reports whether s contains glob meta characters.
func IsPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// ExpandInputs replaces every pattern in items with the regular files it matches,
// in lexical order. Literal items are kept as they are, without touching the file
// system. Duplicates are dropped, keeping the first occurrence.
// A pattern that is invalid or matches nothing is a validation error.
func ExpandInputs(items []string) ([]string, error) {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	add := func(s string) {
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, it := range items {
		if !IsPattern(it) {
			add(it)
			continue
		}
		matches, err := doublestar.FilepathGlob(it, doublestar.WithFilesOnly())
		if err != nil {
			return nil, exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "invalid input pattern '%s'", it, err)
		}
		sort.Strings(matches)
		n := 0
		for _, m := range matches {
			info, err := os.Lstat(m)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			add(m)
			n++
		}
		if n == 0 {
			return nil, exception.NewOrchestrationErrorf(moduleName, exception.CodeValidation, "input pattern '%s' matched no files", it)
		}
		logger.Debugf("Input pattern '%s' expanded to %d files.", it, n)
	}
	return out, nil
}

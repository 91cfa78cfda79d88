package item

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.pdf"))
	touch(t, filepath.Join(dir, "nested", "deep", "b.pdf"))
	touch(t, filepath.Join(dir, "nested", "c.txt"))

	got, err := ExpandInputs([]string{
		"literal.pdf",
		filepath.Join(dir, "**", "*.pdf"),
		filepath.Join(dir, "a.pdf"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"literal.pdf",
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "nested", "deep", "b.pdf"),
	}, got)
}

func TestExpandInputs_NoMatch(t *testing.T) {
	_, err := ExpandInputs([]string{filepath.Join(t.TempDir(), "*.pdf")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrValidation))
	assert.Contains(t, err.Error(), "matched no files")
}

func TestExpandInputs_KeepsLiteralsOnly(t *testing.T) {
	got, err := ExpandInputs([]string{"b.pdf", "a.pdf", "b.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.pdf", "a.pdf"}, got)
}

func TestIsPattern(t *testing.T) {
	assert.True(t, IsPattern("docs/**/*.pdf"))
	assert.True(t, IsPattern("scan-{1,2}.pdf"))
	assert.False(t, IsPattern("docs/report.pdf"))
}

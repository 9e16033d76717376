package ci

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/umsi-mads/mads/errors"
	"github.com/umsi-mads/mads/pkg/runner"
)

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFileOutputWriter_WriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	w := NewFileOutputWriter(path, "")

	require.NoError(t, w.WriteOutput("tag", "latest"))
	require.NoError(t, w.WriteOutput("notes", "line one\nline two"))
	require.NoError(t, w.WriteOutput("tricky", "EOF\nmore"))

	assert.Equal(t,
		"tag=latest\n"+
			"notes<<EOF\nline one\nline two\nEOF\n"+
			"tricky<<EOF_\nEOF\nmore\nEOF_\n",
		read(t, path))
}

func TestFileOutputWriter_WriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary")
	w := NewFileOutputWriter("", path)

	require.NoError(t, w.WriteSummary("# Build\n"))
	require.NoError(t, w.WriteSummary("done\n"))
	require.NoError(t, w.WriteOutput("ignored", "x"))

	assert.Equal(t, "# Build\ndone\n", read(t, path))
}

func TestFileOutputWriter_Unwritable(t *testing.T) {
	w := NewFileOutputWriter(filepath.Join(t.TempDir(), "missing", "output"), "")

	assert.ErrorIs(t, w.WriteOutput("tag", "dev"), errUtils.ErrWriteOutput)
}

func TestNewOutputWriter(t *testing.T) {
	assert.IsType(t, &NoopOutputWriter{}, NewOutputWriter(runner.MapEnv(nil)))

	w := NewOutputWriter(runner.MapEnv(map[string]string{"GITHUB_OUTPUT": "/tmp/out"}))
	assert.IsType(t, &FileOutputWriter{}, w)
}

func TestNoopOutputWriter(t *testing.T) {
	w := &NoopOutputWriter{}
	assert.NoError(t, w.WriteOutput("a", "b"))
	assert.NoError(t, w.WriteSummary("c"))
}

func TestWriteTagOutputs(t *testing.T) {
	dir := t.TempDir()
	output, summary := filepath.Join(dir, "output"), filepath.Join(dir, "summary")
	helpers := NewOutputHelpers(NewFileOutputWriter(output, summary))

	require.NoError(t, helpers.WriteTagOutputs(TagOutputs{Name: "image_tag", Tag: "latest", Branch: "main"}))

	assert.Equal(t, "image_tag=latest\n", read(t, output))
	assert.Contains(t, read(t, summary), "| `image_tag` | `latest` | `main` | - |")
}

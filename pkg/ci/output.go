// Package ci publishes step outputs and job summaries to the CI system running the build.
package ci

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	errUtils "github.com/umsi-mads/mads/errors"
	"github.com/umsi-mads/mads/pkg/runner"
)

// OutputWriter publishes step outputs and job summary content.
type OutputWriter interface {
	WriteOutput(key, value string) error
	WriteSummary(content string) error
}

// NewOutputWriter returns a FileOutputWriter under GitHub Actions and a NoopOutputWriter everywhere else.
func NewOutputWriter(env runner.LookupFunc) OutputWriter {
	output, summary := env.Get("GITHUB_OUTPUT"), env.Get("GITHUB_STEP_SUMMARY")
	if output == "" && summary == "" {
		return &NoopOutputWriter{}
	}
	return NewFileOutputWriter(output, summary)
}

// NoopOutputWriter is an OutputWriter that does nothing.
type NoopOutputWriter struct{}

// WriteOutput implements OutputWriter.
func (w *NoopOutputWriter) WriteOutput(_, _ string) error {
	return nil
}

// WriteSummary implements OutputWriter.
func (w *NoopOutputWriter) WriteSummary(_ string) error {
	return nil
}

// FileOutputWriter appends to the files GitHub Actions reads outputs ($GITHUB_OUTPUT) and summaries ($GITHUB_STEP_SUMMARY) from.
type FileOutputWriter struct {
	outputPath  string
	summaryPath string
}

// NewFileOutputWriter creates a FileOutputWriter. An empty path disables that half.
func NewFileOutputWriter(outputPath, summaryPath string) *FileOutputWriter {
	return &FileOutputWriter{
		outputPath:  outputPath,
		summaryPath: summaryPath,
	}
}

// WriteOutput writes key=value, or a key<<EOF heredoc when value spans lines.
func (w *FileOutputWriter) WriteOutput(key, value string) error {
	if w.outputPath == "" {
		return nil
	}

	var entry string
	if strings.Contains(value, "\n") {
		delimiter := "EOF"
		for strings.Contains(value, delimiter) {
			delimiter += "_"
		}
		entry = fmt.Sprintf("%s<<%s\n%s\n%s\n", key, delimiter, value, delimiter)
	} else {
		entry = fmt.Sprintf("%s=%s\n", key, value)
	}
	return appendFile(w.outputPath, entry)
}

// WriteSummary appends content to the job summary.
func (w *FileOutputWriter) WriteSummary(content string) error {
	if w.summaryPath == "" {
		return nil
	}
	return appendFile(w.summaryPath, content)
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errUtils.Mark(errors.Wrapf(err, "opening %s", path), errUtils.ErrWriteOutput)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return errUtils.Mark(errors.Wrapf(err, "writing %s", path), errUtils.ErrWriteOutput)
	}
	return nil
}

// TagOutputs describe a derived artifact tag.
type TagOutputs struct {
	// Name is the output key the tag is published under.
	Name   string
	Tag    string
	Branch string
	Commit string
}

// OutputHelpers writes the outputs mads commands publish.
type OutputHelpers struct {
	Writer OutputWriter
}

// NewOutputHelpers creates a new OutputHelpers.
func NewOutputHelpers(writer OutputWriter) *OutputHelpers {
	return &OutputHelpers{Writer: writer}
}

// WriteTagOutputs publishes the tag under opts.Name and adds a summary row.
func (h *OutputHelpers) WriteTagOutputs(opts TagOutputs) error {
	if err := h.Writer.WriteOutput(opts.Name, opts.Tag); err != nil {
		return err
	}

	var summary strings.Builder
	summary.WriteString("| Output | Tag | Branch | Commit |\n")
	summary.WriteString("|---|---|---|---|\n")
	fmt.Fprintf(&summary, "| `%s` | `%s` | %s | %s |\n", opts.Name, opts.Tag, orDash(opts.Branch), orDash(opts.Commit))
	return h.Writer.WriteSummary(summary.String())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return "`" + s + "`"
}

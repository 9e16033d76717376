package errors

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/cockroachdb/errors"
	"golang.org/x/term"
)

const (
	// DefaultMaxLineLength is the default maximum line length before wrapping.
	DefaultMaxLineLength = 80

	newline    = "\n"
	hintIndent = "    "
	hintMarker = "💡 "
	colorRed   = "#FF0000"
	colorGray  = "#808080"
	colorGreen = "#00AF5F"
)

// FormatterConfig controls error formatting behavior.
type FormatterConfig struct {
	// Verbose enables context table and stack trace output.
	Verbose bool

	// Color controls color output: "auto", "always", or "never".
	Color string

	// MaxLineLength is the maximum length before wrapping (default: 80).
	MaxLineLength int
}

// DefaultFormatterConfig returns default formatting configuration.
func DefaultFormatterConfig() FormatterConfig {
	return FormatterConfig{
		Verbose:       false,
		Color:         "auto",
		MaxLineLength: DefaultMaxLineLength,
	}
}

// Format renders an error for the build log: the message, detail blocks, hints and
// examples, then in verbose mode the context table and the chain with stack traces.
func Format(err error, config FormatterConfig) string {
	if err == nil {
		return ""
	}

	useColor := shouldUseColor(config.Color)

	errorStyle := lipgloss.NewStyle()
	if useColor {
		errorStyle = errorStyle.Foreground(lipgloss.Color(colorRed))
	}

	var output strings.Builder

	mainMsg := err.Error()
	if len(mainMsg) > config.MaxLineLength && !config.Verbose {
		mainMsg = wrapText(mainMsg, config.MaxLineLength)
	}
	output.WriteString(errorStyle.Render(mainMsg))

	if details := errors.GetAllDetails(err); len(details) > 0 {
		output.WriteString(newline)
		for _, detail := range details {
			output.WriteString(newline)
			// Keep line breaks: details often carry command stderr.
			for i, line := range strings.Split(detail, newline) {
				if i > 0 {
					output.WriteString(newline)
				}
				output.WriteString(wrapText(line, config.MaxLineLength))
			}
		}
	}

	if hints := errors.GetAllHints(err); len(hints) > 0 {
		output.WriteString(newline)
		for _, hint := range hints {
			output.WriteString(hintIndent + hintMarker + hint)
			output.WriteString(newline)
		}
	}

	for _, example := range GetExamples(err) {
		output.WriteString(newline)
		for _, line := range strings.Split(strings.TrimRight(example, newline), newline) {
			output.WriteString(hintIndent + line)
			output.WriteString(newline)
		}
	}

	if config.Verbose {
		contextTable := formatContextTable(err, useColor)
		if contextTable != "" {
			output.WriteString(contextTable)
			output.WriteString(newline)
		}
		output.WriteString(newline)
		output.WriteString(formatStackTrace(err, useColor))
	}

	return output.String()
}

// formatContextTable creates a styled 2-column table for error context.
// Context is extracted from the cockroachdb/errors safe details of the whole chain.
func formatContextTable(err error, useColor bool) string {
	// Parse "runner=codebuild repo=mads" format into key-value pairs.
	var rows [][]string
	for _, payload := range errors.GetAllSafeDetails(err) {
		for _, detail := range payload.SafeDetails {
			for _, pair := range strings.Split(detail, " ") {
				if parts := strings.SplitN(pair, "=", 2); len(parts) == 2 {
					rows = append(rows, []string{parts[0], parts[1]})
				}
			}
		}
	}

	if len(rows) == 0 {
		return ""
	}

	t := table.New().
		Border(lipgloss.ThickBorder()).
		Headers("Context", "Value").
		Rows(rows...)

	if useColor {
		t = t.
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray))).
			StyleFunc(func(row, col int) lipgloss.Style {
				style := lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
				if row == table.HeaderRow {
					return style.Foreground(lipgloss.Color(colorGreen)).Bold(true)
				}
				if col == 0 {
					return style.Foreground(lipgloss.Color(colorGray))
				}
				return style
			})
	}

	return newline + t.String()
}

// shouldUseColor determines if color output should be used.
func shouldUseColor(colorMode string) bool {
	switch colorMode {
	case "always":
		return true
	case "never":
		return false
	default:
		return term.IsTerminal(int(os.Stderr.Fd()))
	}
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = DefaultMaxLineLength
	}

	var lines []string
	var currentLine strings.Builder

	for _, word := range strings.Fields(text) {
		if currentLine.Len() > 0 && currentLine.Len()+1+len(word) > width {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
		}
		if currentLine.Len() > 0 {
			currentLine.WriteString(" ")
		}
		currentLine.WriteString(word)
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, newline)
}

// formatStackTrace formats the full error chain with stack traces.
func formatStackTrace(err error, useColor bool) string {
	style := lipgloss.NewStyle()
	if useColor {
		style = style.Foreground(lipgloss.Color(colorGray))
	}
	return style.Render(fmt.Sprintf("%+v", err))
}

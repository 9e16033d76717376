package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	charm "github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
)

const (
	// DefaultIndent is the glyph pushed by Indent when no glyph is given.
	DefaultIndent = "│"

	sectionStart = "┌"
	sectionEnd   = "└"
	timeFormat   = "15:04:05"
)

// BuildLogger is a charm logger that prefixes every line with the current
// indentation stack, so nested build steps read as a tree in CI logs.
type BuildLogger struct {
	*charm.Logger

	mu     sync.Mutex
	indent []string
}

// NewBuildLogger wraps an existing charm logger.
func NewBuildLogger(logger *charm.Logger) *BuildLogger {
	logger.SetStyles(buildStyles())
	return &BuildLogger{Logger: logger}
}

// NewWithWriter creates a BuildLogger writing to w. Timestamps are reported
// only when w is not a terminal.
func NewWithWriter(w io.Writer) *BuildLogger {
	return NewBuildLogger(charm.NewWithOptions(w, charm.Options{
		ReportTimestamp: !isTerminal(w),
		TimeFormat:      timeFormat,
	}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Indent pushes a glyph onto the indentation stack.
func (l *BuildLogger) Indent(glyph string) {
	if glyph == "" {
		glyph = DefaultIndent
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.indent = append(l.indent, glyph)
}

// Outdent pops the innermost glyph. Outdenting an empty stack is a no-op.
func (l *BuildLogger) Outdent() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.indent) > 0 {
		l.indent = l.indent[:len(l.indent)-1]
	}
}

// Depth reports how many glyphs are on the indentation stack.
func (l *BuildLogger) Depth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.indent)
}

// WithIndent runs fn with one more level of indentation.
func (l *BuildLogger) WithIndent(glyph string, fn func()) {
	l.Indent(glyph)
	defer l.Outdent()
	fn()
}

// Start opens a log section.
func (l *BuildLogger) Start(msg string, keyvals ...any) {
	l.Info(sectionStart+" "+msg, keyvals...)
	l.Indent(DefaultIndent)
}

// End closes the section opened by Start.
func (l *BuildLogger) End(msg string, keyvals ...any) {
	l.Outdent()
	l.Info(sectionEnd+" "+msg, keyvals...)
}

func (l *BuildLogger) prefix() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.indent) == 0 {
		return ""
	}
	return strings.Join(l.indent, " ") + " "
}

// log prefixes each line of msg with the indentation. Key/value pairs are attached to the last line.
func (l *BuildLogger) log(level charm.Level, msg any, keyvals ...any) {
	if l.GetLevel() > level {
		return
	}

	prefix := l.prefix()
	lines := strings.Split(fmt.Sprint(msg), "\n")
	for i, line := range lines {
		if i == len(lines)-1 {
			l.Logger.Log(level, prefix+line, keyvals...)
			continue
		}
		l.Logger.Log(level, prefix+line)
	}
}

// Trace logs a message at trace level.
func (l *BuildLogger) Trace(msg any, keyvals ...any) {
	l.log(TraceLevel, msg, keyvals...)
}

// Debug logs a message at debug level.
func (l *BuildLogger) Debug(msg any, keyvals ...any) {
	l.log(DebugLevel, msg, keyvals...)
}

// Info logs a message at info level.
func (l *BuildLogger) Info(msg any, keyvals ...any) {
	l.log(InfoLevel, msg, keyvals...)
}

// Warn logs a message at warn level.
func (l *BuildLogger) Warn(msg any, keyvals ...any) {
	l.log(WarnLevel, msg, keyvals...)
}

// Error logs a message at error level.
func (l *BuildLogger) Error(msg any, keyvals ...any) {
	l.log(ErrorLevel, msg, keyvals...)
}

// Debugf logs a formatted message at debug level.
func (l *BuildLogger) Debugf(format string, args ...any) {
	l.log(DebugLevel, fmt.Sprintf(format, args...))
}

// Infof logs a formatted message at info level.
func (l *BuildLogger) Infof(format string, args ...any) {
	l.log(InfoLevel, fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at warn level.
func (l *BuildLogger) Warnf(format string, args ...any) {
	l.log(WarnLevel, fmt.Sprintf(format, args...))
}

// Errorf logs a formatted message at error level.
func (l *BuildLogger) Errorf(format string, args ...any) {
	l.log(ErrorLevel, fmt.Sprintf(format, args...))
}

package logger

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	errUtils "github.com/umsi-mads/mads/errors"
)

// defaultLogger is the global default BuildLogger instance stored atomically.
var defaultLogger atomic.Value

func init() {
	defaultLogger.Store(New())
}

// Default returns the global default BuildLogger instance.
func Default() *BuildLogger {
	return defaultLogger.Load().(*BuildLogger)
}

// SetDefault sets a new global default BuildLogger instance.
func SetDefault(logger *BuildLogger) {
	if logger != nil {
		defaultLogger.Store(logger)
	}
}

// New creates a new BuildLogger writing to stderr.
func New() *BuildLogger {
	return NewWithWriter(os.Stderr)
}

// Setup builds the default logger from the configured level and optional log file.
// The returned closer releases the log file and is safe to call when no file was opened.
func Setup(level string, file string) (io.Closer, error) {
	logLevel, err := ParseLogLevel(level)
	if err != nil {
		return nopCloser{}, err
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	switch file {
	case "", "/dev/stderr":
	case "/dev/stdout":
		out = os.Stdout
	default:
		f, err := os.OpenFile(file, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			return nopCloser{}, errUtils.Mark(errors.Wrapf(err, "log file %s", file), errUtils.ErrOpenLogFile)
		}
		out = io.MultiWriter(os.Stderr, f)
		closer = f
	}

	logger := NewWithWriter(out)
	logger.SetLevel(logLevel.Level())
	SetDefault(logger)

	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Trace logs with the default logger.
func Trace(msg any, keyvals ...any) { Default().Trace(msg, keyvals...) }

// Debug logs with the default logger.
func Debug(msg any, keyvals ...any) { Default().Debug(msg, keyvals...) }

// Info logs with the default logger.
func Info(msg any, keyvals ...any) { Default().Info(msg, keyvals...) }

// Warn logs with the default logger.
func Warn(msg any, keyvals ...any) { Default().Warn(msg, keyvals...) }

// Error logs with the default logger.
func Error(msg any, keyvals ...any) { Default().Error(msg, keyvals...) }

// Infof logs a formatted message with the default logger.
func Infof(format string, args ...any) { Default().Infof(format, args...) }

// Warnf logs a formatted message with the default logger.
func Warnf(format string, args ...any) { Default().Warnf(format, args...) }

// Start opens a section on the default logger.
func Start(msg string, keyvals ...any) { Default().Start(msg, keyvals...) }

// End closes a section on the default logger.
func End(msg string, keyvals ...any) { Default().End(msg, keyvals...) }

// Indent pushes a glyph on the default logger.
func Indent(glyph string) { Default().Indent(glyph) }

// Outdent pops a glyph on the default logger.
func Outdent() { Default().Outdent() }

// WithIndent runs fn with one more level of indentation on the default logger.
func WithIndent(glyph string, fn func()) { Default().WithIndent(glyph, fn) }

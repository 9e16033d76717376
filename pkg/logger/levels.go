package logger

import (
	"github.com/charmbracelet/lipgloss"
	charm "github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	errUtils "github.com/umsi-mads/mads/errors"
)

// LogLevel is the configured name of a log level.
type LogLevel string

const (
	LogLevelOff     LogLevel = "Off"
	LogLevelTrace   LogLevel = "Trace"
	LogLevelDebug   LogLevel = "Debug"
	LogLevelInfo    LogLevel = "Info"
	LogLevelWarning LogLevel = "Warning"
)

// Log levels understood by the build logger.
const (
	TraceLevel = charm.DebugLevel - 1
	DebugLevel = charm.DebugLevel
	InfoLevel  = charm.InfoLevel
	WarnLevel  = charm.WarnLevel
	ErrorLevel = charm.ErrorLevel
	OffLevel   = charm.FatalLevel + 1
)

// ParseLogLevel validates a configured level name. An empty name means Info.
func ParseLogLevel(logLevel string) (LogLevel, error) {
	if logLevel == "" {
		return LogLevelInfo, nil
	}

	switch level := LogLevel(logLevel); level {
	case LogLevelOff, LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarning:
		return level, nil
	default:
		return "", errors.Wrapf(errUtils.ErrInvalidLogLevel,
			"'%s'. Supported log levels are Trace, Debug, Info, Warning, Off", logLevel)
	}
}

// Level converts the configured name into a charm level.
func (l LogLevel) Level() charm.Level {
	switch l {
	case LogLevelOff:
		return OffLevel
	case LogLevelTrace:
		return TraceLevel
	case LogLevelDebug:
		return DebugLevel
	case LogLevelWarning:
		return WarnLevel
	default:
		return InfoLevel
	}
}

func buildStyles() *charm.Styles {
	styles := charm.DefaultStyles()
	styles.Levels[TraceLevel] = lipgloss.NewStyle().
		SetString("TRCE").
		Bold(true).
		MaxWidth(4).
		Foreground(lipgloss.Color("242"))
	return styles
}

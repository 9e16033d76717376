// Package shell runs build commands through an embedded POSIX shell interpreter,
// streaming their output into the build log.
package shell

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=$GOFILE -destination=mock_shell.go -package=shell

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	errUtils "github.com/umsi-mads/mads/errors"
	log "github.com/umsi-mads/mads/pkg/logger"
)

// Command is one shell invocation.
type Command struct {
	// Line is parsed as a POSIX shell program.
	Line string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Input is fed to stdin when set. Otherwise stdin is empty.
	Input string
	// Env is appended to the process environment.
	Env []string
	// Silent suppresses the section header and streamed output.
	Silent bool
}

// Result is a finished invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Executor runs shell commands. A non-zero exit is reported in the Result, not as an error.
type Executor interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Interpreter is the default Executor, backed by mvdan.cc/sh.
type Interpreter struct {
	logger *log.BuildLogger
}

// New returns an Interpreter logging to logger. A nil logger uses the default logger at call time.
func New(logger *log.BuildLogger) *Interpreter {
	return &Interpreter{logger: logger}
}

func (s *Interpreter) log() *log.BuildLogger {
	if s.logger != nil {
		return s.logger
	}
	return log.Default()
}

// Run parses and runs cmd, returning its captured output and exit code.
func (s *Interpreter) Run(ctx context.Context, cmd Command) (*Result, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(cmd.Line), "")
	if err != nil {
		return nil, errUtils.Mark(errors.Wrapf(err, "%q", cmd.Line), errUtils.ErrParseCommand)
	}

	logger := s.log()
	stdout := newLineWriter(func(line string) {
		if !cmd.Silent {
			logger.Info("  " + line)
		}
	})
	stderr := newLineWriter(func(line string) {
		if !cmd.Silent {
			logger.Info("* " + line)
		}
	})

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(append(os.Environ(), cmd.Env...)...)),
		interp.StdIO(strings.NewReader(cmd.Input), stdout, stderr),
	}
	if cmd.Dir != "" {
		opts = append(opts, interp.Dir(cmd.Dir))
	}
	runner, err := interp.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create shell interpreter")
	}

	if !cmd.Silent {
		logger.Info("[shell] " + displayLine(cmd))
		logger.Indent("")
	}

	started := time.Now()
	runErr := runner.Run(ctx, file)
	duration := time.Since(started)
	stdout.Flush()
	stderr.Flush()

	code := 0
	if runErr != nil {
		var status interp.ExitStatus
		if !errors.As(runErr, &status) {
			if !cmd.Silent {
				logger.Outdent()
			}
			return nil, errors.Wrapf(runErr, "running %q", cmd.Line)
		}
		code = int(status)
	}

	if !cmd.Silent {
		logger.Outdent()
		logger.Info(fmt.Sprintf("└ Completed with code %d after %0.2f seconds", code, duration.Seconds()))
	}

	return &Result{
		ExitCode: code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}, nil
}

// displayLine renders cmd the way it would be typed, relative to the working directory.
func displayLine(cmd Command) string {
	if cmd.Dir == "" {
		return cmd.Line
	}
	dir := cmd.Dir
	if wd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(wd, cmd.Dir); err == nil && !strings.HasPrefix(rel, "..") {
			dir = "./" + filepath.ToSlash(rel)
			if rel == "." {
				dir = "."
			}
		}
	}
	return "cd " + dir + " && " + cmd.Line
}

// Output runs cmd and returns its trimmed stdout, failing on a non-zero exit.
func Output(ctx context.Context, exec Executor, cmd Command) (string, error) {
	res, err := exec.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	if err := Check(cmd, res); err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Check converts a non-zero exit into an ErrCommandFailed error carrying the exit code.
func Check(cmd Command, res *Result) error {
	if res.ExitCode == 0 {
		return nil
	}
	exitErr := errUtils.ExitCodeError{Command: cmd.Line, Code: res.ExitCode}
	return errUtils.Build(exitErr).
		WithSentinel(errUtils.ErrCommandFailed).
		WithCommand(cmd.Line, res.Stderr).
		Err()
}

package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// ExitFailure is the exit code of a build step that ran and failed.
	ExitFailure = 1
	// ExitUsage is the exit code of bad arguments, flags or configuration.
	ExitUsage = 2

	// stderrTail bounds how many stderr lines of a failed command are kept.
	stderrTail = 20
)

// Builder collects what a reader of a build log needs to act on an error: a
// sentinel for callers, hints, a detail block, usage examples, key/value context
// and the process exit code.
type Builder struct {
	err      error
	sentinel error
	hints    []string
	details  []string
	examples []string
	context  map[string]string
	code     int
}

// Build starts enriching err. Every method is a no-op on a nil err.
func Build(err error) *Builder {
	return &Builder{err: err}
}

// WithSentinel tags the error so errors.Is matches sentinel.
func (b *Builder) WithSentinel(sentinel error) *Builder {
	b.sentinel = sentinel
	return b
}

// WithHint adds a line telling the user what to try next.
func (b *Builder) WithHint(hint string) *Builder {
	b.hints = append(b.hints, hint)
	return b
}

// WithHintf is WithHint with formatting.
func (b *Builder) WithHintf(format string, args ...any) *Builder {
	return b.WithHint(fmt.Sprintf(format, args...))
}

// WithExplanation adds a detail block printed under the message.
func (b *Builder) WithExplanation(text string) *Builder {
	if text = strings.TrimSpace(text); text != "" {
		b.details = append(b.details, text)
	}
	return b
}

// WithExample adds a command line showing correct usage.
func (b *Builder) WithExample(example string) *Builder {
	b.examples = append(b.examples, example)
	return b
}

// WithContext records a key/value pair shown by the verbose formatter.
func (b *Builder) WithContext(key string, value any) *Builder {
	if b.context == nil {
		b.context = map[string]string{}
	}
	b.context[key] = fmt.Sprint(value)
	return b
}

// WithCommand records the shell line that failed and the tail of its stderr.
func (b *Builder) WithCommand(line, stderr string) *Builder {
	b.WithContext("command", line)

	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) > stderrTail {
		lines = append([]string{fmt.Sprintf("... %d earlier lines", len(lines)-stderrTail)}, lines[len(lines)-stderrTail:]...)
	}
	return b.WithExplanation(strings.Join(lines, "\n"))
}

// Usage marks the error as a caller mistake, exiting with ExitUsage.
func (b *Builder) Usage() *Builder {
	return b.WithExitCode(ExitUsage)
}

// WithExitCode sets the process exit code.
func (b *Builder) WithExitCode(code int) *Builder {
	b.code = code
	return b
}

// Err returns the enriched error, or nil when Build was given nil.
func (b *Builder) Err() error {
	err := b.err
	if err == nil {
		return nil
	}

	for _, detail := range b.details {
		err = errors.WithDetail(err, detail)
	}
	for _, hint := range b.hints {
		err = errors.WithHint(err, hint)
	}
	if len(b.examples) > 0 {
		err = &withExamples{cause: err, examples: b.examples}
	}
	if len(b.context) > 0 {
		err = withContext(err, b.context)
	}
	err = Mark(err, b.sentinel)
	if b.code != 0 {
		err = WithExitCode(err, b.code)
	}
	return err
}

// withContext stores pairs as "key=value" safe details, sorted by key.
func withContext(err error, context map[string]string) error {
	keys := make([]string, 0, len(context))
	for key := range context {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	format := make([]string, len(keys))
	values := make([]any, len(keys))
	for i, key := range keys {
		format[i] = key + "=%s"
		values[i] = errors.Safe(context[key])
	}
	return errors.WithSafeDetails(err, strings.Join(format, " "), values...)
}

type withExamples struct {
	cause    error
	examples []string
}

func (e *withExamples) Error() string { return e.cause.Error() }

func (e *withExamples) Cause() error { return e.cause }

func (e *withExamples) Unwrap() error { return e.cause }

// GetExamples returns every usage example attached along the chain, outermost first.
func GetExamples(err error) []string {
	var examples []string
	for c := err; c != nil; c = errors.UnwrapOnce(c) {
		if e, ok := c.(*withExamples); ok {
			examples = append(examples, e.examples...)
		}
	}
	return examples
}

// Package environ describes the process environment a build runs in: terminal capabilities and machine resources.
package environ

import (
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/umsi-mads/mads/pkg/runner"
)

// InOut describes the terminal attached to stdout.
type InOut struct {
	Term string `yaml:"term,omitempty"`
	// ForceTerminal overrides tty detection when set.
	ForceTerminal *bool `yaml:"force_terminal,omitempty"`

	atty bool
}

// LoadInOut reads TERM and FORCE_TERMINAL from env and checks whether out is a tty.
func LoadInOut(env runner.LookupFunc, out *os.File) InOut {
	io := InOut{Term: env.Get("TERM")}
	if v, ok := env("FORCE_TERMINAL"); ok {
		if force, err := strconv.ParseBool(v); err == nil {
			io.ForceTerminal = &force
		}
	}
	if out != nil {
		fd := out.Fd()
		io.atty = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return io
}

// IsATTY reports whether stdout is a terminal device.
func (io InOut) IsATTY() bool {
	return io.atty
}

// IsTerminal is IsATTY unless FORCE_TERMINAL says otherwise.
func (io InOut) IsTerminal() bool {
	if io.ForceTerminal != nil {
		return *io.ForceTerminal
	}
	return io.atty
}

// IsDumb reports a terminal without cursor control.
func (io InOut) IsDumb() bool {
	switch strings.ToLower(io.Term) {
	case "dumb", "unknown":
		return true
	}
	return false
}

// IsInteractive reports a real, capable terminal.
func (io InOut) IsInteractive() bool {
	return io.atty && !io.IsDumb()
}

// Summary is the YAML-friendly view printed by mads environ.
func (io InOut) Summary() map[string]any {
	return map[string]any{
		"term":           io.Term,
		"is_terminal":    io.IsTerminal(),
		"is_atty":        io.IsATTY(),
		"is_interactive": io.IsInteractive(),
	}
}

package errors

import (
	"os/exec"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain error", errors.New("boom"), 1},
		{"with exit code", WithExitCode(errors.New("boom"), 3), 3},
		{"wrapped exit code", errors.Wrap(WithExitCode(errors.New("boom"), 4), "context"), 4},
		{"subprocess status", ExitCodeError{Command: "docker info", Code: 2}, 2},
		{"wrapped subprocess status", errors.Wrap(ExitCodeError{Code: 5}, "docker"), 5},
		{"explicit code wins", WithExitCode(ExitCodeError{Code: 5}, 7), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestGetExitCode_ExecExitError(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	err := exec.Command("sh", "-c", "exit 6").Run()
	require.Error(t, err)

	assert.Equal(t, 6, GetExitCode(errors.Wrap(err, "running sh")))
}

func TestWithExitCode_Nil(t *testing.T) {
	assert.NoError(t, WithExitCode(nil, 2))
}

func TestExitCodeError_Message(t *testing.T) {
	assert.Equal(t, "command exited with code 2", ExitCodeError{Code: 2}.Error())
	assert.Equal(t, `command "git show" exited with code 128`, ExitCodeError{Command: "git show", Code: 128}.Error())
}

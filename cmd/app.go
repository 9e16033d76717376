package cmd

import (
	"context"
	"io"
	"os"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"

	madsaws "github.com/umsi-mads/mads/pkg/aws"
	"github.com/umsi-mads/mads/pkg/aws/identity"
	"github.com/umsi-mads/mads/pkg/config"
	"github.com/umsi-mads/mads/pkg/git"
	"github.com/umsi-mads/mads/pkg/runner"
	"github.com/umsi-mads/mads/pkg/shell"
)

// app carries the per-process state every command shares. PersistentPreRunE fills cfg.
type app struct {
	env     runner.LookupFunc
	cfg     config.Config
	runners *runner.Registry
	git     *git.Cache
	exec    shell.Executor
	ids     *identity.Cache
	stdin   io.Reader
	home    func() (string, error)
	verbose bool

	// awsConfig resolves SDK configuration. Tests replace it.
	awsConfig func(ctx context.Context, region string) (awssdk.Config, error)

	logCloser io.Closer
}

func newApp() *app {
	exec := shell.New(nil)
	return &app{
		env:       runner.OSEnv(),
		runners:   runner.DefaultRegistry(runner.OSEnv()),
		git:       git.NewCache(&git.Reader{Exec: exec}),
		exec:      exec,
		ids:       identity.NewCache(nil),
		stdin:     os.Stdin,
		home:      os.UserHomeDir,
		awsConfig: madsaws.LoadConfig,
	}
}

// region is the AWS region for SDK clients, empty to defer to the SDK chain.
func (a *app) region() string {
	return a.cfg.AWS.Region
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}

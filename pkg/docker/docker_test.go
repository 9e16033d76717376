package docker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	errUtils "github.com/umsi-mads/mads/errors"
	"github.com/umsi-mads/mads/pkg/aws/ecr"
	"github.com/umsi-mads/mads/pkg/aws/identity"
	"github.com/umsi-mads/mads/pkg/git"
	"github.com/umsi-mads/mads/pkg/runner"
	"github.com/umsi-mads/mads/pkg/shell"
)

const image = "123456789012.dkr.ecr.us-east-1.amazonaws.com/course-site"

type fakeRegistry struct {
	creds ecr.Credentials
	err   error
}

func (f fakeRegistry) AuthorizationToken(context.Context, ...string) (ecr.Credentials, error) {
	return f.creds, f.err
}

type fakeIdentity struct {
	id  *identity.CallerIdentity
	err error
}

func (f fakeIdentity) GetCallerIdentity(context.Context, string) (*identity.CallerIdentity, error) {
	return f.id, f.err
}

func exit(code int) *shell.Result {
	return &shell.Result{ExitCode: code}
}

func line(l string) gomock.Matcher {
	return gomock.Cond(func(cmd shell.Command) bool { return cmd.Line == l })
}

func TestHost(t *testing.T) {
	codebuild := &runner.Runner{CodeBuild: &runner.CodeBuild{BuildARN: "arn:aws:codebuild:us-west-2:210987654321:build/site:1"}}

	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr error
	}{
		{"image host wins", Options{ImageHost: "registry.local", Runner: codebuild}, "registry.local", nil},
		{"codebuild arn", Options{Runner: codebuild}, "210987654321.dkr.ecr.us-west-2.amazonaws.com", nil},
		{"malformed arn", Options{Runner: &runner.Runner{CodeBuild: &runner.CodeBuild{BuildARN: "bogus"}}}, "", errUtils.ErrMalformedARN},
		{
			"sts identity",
			Options{Runner: &runner.Runner{}, Identity: fakeIdentity{id: &identity.CallerIdentity{Account: "111122223333", Region: "us-east-2"}}},
			"111122223333.dkr.ecr.us-east-2.amazonaws.com", nil,
		},
		{"sts failure", Options{Identity: fakeIdentity{err: assert.AnError}}, "", errUtils.ErrRegistryHostUnknown},
		{"nothing known", Options{}, "", errUtils.ErrRegistryHostUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, err := New(nil, tt.opts).Host(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, host)
		})
	}
}

func TestStart(t *testing.T) {
	t.Run("already running", func(t *testing.T) {
		exec := shell.NewMockExecutor(gomock.NewController(t))
		exec.EXPECT().Run(gomock.Any(), line("docker info")).Return(exit(0), nil)

		assert.NoError(t, New(exec, Options{}).Start(context.Background()))
	})

	t.Run("launches the daemon", func(t *testing.T) {
		exec := shell.NewMockExecutor(gomock.NewController(t))
		gomock.InOrder(
			exec.EXPECT().Run(gomock.Any(), line("docker info")).Return(exit(1), nil),
			exec.EXPECT().Run(gomock.Any(), line(DaemonEntrypoint)).Return(exit(0), nil),
		)

		assert.NoError(t, New(exec, Options{}).Start(context.Background()))
	})

	t.Run("daemon fails", func(t *testing.T) {
		exec := shell.NewMockExecutor(gomock.NewController(t))
		gomock.InOrder(
			exec.EXPECT().Run(gomock.Any(), line("docker info")).Return(exit(1), nil),
			exec.EXPECT().Run(gomock.Any(), line(DaemonEntrypoint)).Return(exit(127), nil),
		)

		err := New(exec, Options{}).Start(context.Background())
		assert.ErrorIs(t, err, errUtils.ErrDockerUnavailable)
		assert.Equal(t, 127, errUtils.GetExitCode(err))
	})
}

func TestLogin(t *testing.T) {
	registry := fakeRegistry{creds: ecr.Credentials{Username: "AWS", Password: "s3cret"}}

	t.Run("pipes the password", func(t *testing.T) {
		exec := shell.NewMockExecutor(gomock.NewController(t))
		exec.EXPECT().Run(gomock.Any(), shell.Command{
			Line:  "docker login -u AWS --password-stdin registry.local",
			Input: "s3cret",
		}).Return(exit(0), nil)

		client := New(exec, Options{ImageHost: "registry.local", Registry: registry})
		assert.NoError(t, client.Login(context.Background()))
	})

	t.Run("login rejected", func(t *testing.T) {
		exec := shell.NewMockExecutor(gomock.NewController(t))
		exec.EXPECT().Run(gomock.Any(), gomock.Any()).Return(&shell.Result{ExitCode: 1, Stderr: "denied"}, nil)

		client := New(exec, Options{ImageHost: "registry.local", Registry: registry})
		assert.ErrorIs(t, client.Login(context.Background()), errUtils.ErrECRAuthFailed)
	})

	t.Run("token failure skips docker", func(t *testing.T) {
		exec := shell.NewMockExecutor(gomock.NewController(t))

		client := New(exec, Options{ImageHost: "registry.local", Registry: fakeRegistry{err: errUtils.ErrECRNoAuthData}})
		assert.ErrorIs(t, client.Login(context.Background()), errUtils.ErrECRNoAuthData)
	})

	t.Run("no registry", func(t *testing.T) {
		assert.ErrorIs(t, New(nil, Options{}).Login(context.Background()), errUtils.ErrECRAuthFailed)
	})
}

func TestTryPull(t *testing.T) {
	t.Run("tag exists", func(t *testing.T) {
		exec := shell.NewMockExecutor(gomock.NewController(t))
		exec.EXPECT().Run(gomock.Any(), line("docker pull "+image+":feature")).Return(exit(0), nil)

		assert.NoError(t, New(exec, Options{}).TryPull(context.Background(), image, "feature"))
	})

	t.Run("falls back to latest", func(t *testing.T) {
		exec := shell.NewMockExecutor(gomock.NewController(t))
		gomock.InOrder(
			exec.EXPECT().Run(gomock.Any(), line("docker pull "+image+":feature")).Return(exit(1), nil),
			exec.EXPECT().Run(gomock.Any(), line("docker pull "+image+":latest")).Return(exit(0), nil),
			exec.EXPECT().Run(gomock.Any(), line("docker tag "+image+":latest "+image+":feature")).Return(exit(0), nil),
		)

		assert.NoError(t, New(exec, Options{}).TryPull(context.Background(), image, "feature"))
	})

	t.Run("image missing", func(t *testing.T) {
		exec := shell.NewMockExecutor(gomock.NewController(t))
		exec.EXPECT().Run(gomock.Any(), gomock.Any()).Return(exit(1), nil).Times(2)

		err := New(exec, Options{}).TryPull(context.Background(), image, "feature")
		assert.ErrorIs(t, err, errUtils.ErrImageNotFound)
	})

	t.Run("retag fails", func(t *testing.T) {
		exec := shell.NewMockExecutor(gomock.NewController(t))
		gomock.InOrder(
			exec.EXPECT().Run(gomock.Any(), gomock.Any()).Return(exit(1), nil),
			exec.EXPECT().Run(gomock.Any(), gomock.Any()).Return(exit(0), nil),
			exec.EXPECT().Run(gomock.Any(), gomock.Any()).Return(exit(1), nil),
		)

		err := New(exec, Options{}).TryPull(context.Background(), image, "feature")
		assert.ErrorIs(t, err, errUtils.ErrImageRetag)
	})

	t.Run("invalid reference", func(t *testing.T) {
		exec := shell.NewMockExecutor(gomock.NewController(t))

		err := New(exec, Options{}).TryPull(context.Background(), "Bad Image", "dev")
		assert.ErrorIs(t, err, errUtils.ErrInvalidImageReference)

		err = New(exec, Options{}).TryPull(context.Background(), image, "bad tag!")
		assert.ErrorIs(t, err, errUtils.ErrInvalidImageReference)
	})
}

func TestDetermineTag(t *testing.T) {
	assert.Equal(t, "dev", DetermineTag(git.State{}, git.TagOptions{Default: git.DefaultTag}))
	assert.Empty(t, DetermineTag(git.State{}, git.TagOptions{}))
	assert.Equal(t, "latest", DetermineTag(git.State{Branch: "main"}, git.TagOptions{}))
	assert.Equal(t, "beta", DetermineTag(git.State{Branch: "feature"}, git.TagOptions{Default: "beta"}))
	assert.Equal(t, "feature", DetermineTag(git.State{Branch: "feature"}, git.TagOptions{UseBranch: true}))
}

func TestSettings(t *testing.T) {
	dir := t.TempDir()
	env := runner.MapEnv(map[string]string{
		"DOCKER_CACHE_TO":   "type=local,dest=/tmp/cache",
		"DOCKER_CACHE_FROM": "type=local,src=/tmp/cache",
		"DOCKER_CONFIG":     dir,
	})

	settings := LoadSettings(env)
	assert.Equal(t, "type=local,dest=/tmp/cache", settings.CacheTo)
	assert.Equal(t, "type=local,src=/tmp/cache", settings.CacheFrom)
	assert.False(t, settings.Buildx())

	plugin := filepath.Join(dir, buildxPlugin)
	require.NoError(t, os.MkdirAll(filepath.Dir(plugin), 0o755))
	require.NoError(t, os.WriteFile(plugin, []byte("#!/bin/sh\n"), 0o755))
	assert.True(t, settings.Buildx())
}

// Package docker drives the docker CLI for builds: daemon startup, registry login and image pulls.
package docker

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/go-containerregistry/pkg/name"

	errUtils "github.com/umsi-mads/mads/errors"
	"github.com/umsi-mads/mads/pkg/aws/ecr"
	"github.com/umsi-mads/mads/pkg/aws/identity"
	"github.com/umsi-mads/mads/pkg/git"
	log "github.com/umsi-mads/mads/pkg/logger"
	"github.com/umsi-mads/mads/pkg/runner"
	"github.com/umsi-mads/mads/pkg/shell"
)

// DaemonEntrypoint starts dockerd inside CodeBuild images.
const DaemonEntrypoint = "/usr/local/bin/dockerd-entrypoint.sh"

// Registry issues registry login credentials.
type Registry interface {
	AuthorizationToken(ctx context.Context, registryIDs ...string) (ecr.Credentials, error)
}

// Options configures a Client. Every field is optional; missing sources are skipped when resolving the host.
type Options struct {
	// ImageHost overrides every other host source.
	ImageHost string
	Runner    *runner.Runner
	Registry  Registry
	Identity  identity.Getter
	Region    string
}

// Client runs docker commands through an Executor.
type Client struct {
	exec shell.Executor
	opts Options
}

// New returns a Client.
func New(exec shell.Executor, opts Options) *Client {
	return &Client{exec: exec, opts: opts}
}

// Host returns the registry host images are pushed to. Sources in order: the configured image host,
// the CodeBuild build ARN, then the caller's STS identity.
func (c *Client) Host(ctx context.Context) (string, error) {
	if c.opts.ImageHost != "" {
		return c.opts.ImageHost, nil
	}

	if r := c.opts.Runner; r != nil && r.CodeBuild != nil {
		account, err := r.CodeBuild.AccountID()
		if err != nil {
			return "", err
		}
		region, err := r.CodeBuild.Region()
		if err != nil {
			return "", err
		}
		return ecr.RegistryHost(account, region), nil
	}

	if c.opts.Identity != nil {
		id, err := c.opts.Identity.GetCallerIdentity(ctx, c.opts.Region)
		if err != nil {
			return "", errUtils.Mark(err, errUtils.ErrRegistryHostUnknown)
		}
		if id.Account != "" && id.Region != "" {
			return ecr.RegistryHost(id.Account, id.Region), nil
		}
	}

	return "", errUtils.Build(errUtils.ErrRegistryHostUnknown).
		WithHint("Set image_host in mads.yaml or the IMAGE_HOST environment variable").
		Err()
}

// Start makes sure the daemon answers, launching it when it does not.
func (c *Client) Start(ctx context.Context) error {
	res, err := c.exec.Run(ctx, shell.Command{Line: "docker info", Silent: true})
	if err != nil {
		return err
	}
	if res.ExitCode == 0 {
		log.Debug("Docker daemon already running")
		return nil
	}

	res, err = c.exec.Run(ctx, shell.Command{Line: DaemonEntrypoint})
	if err != nil {
		return err
	}
	if err := shell.Check(shell.Command{Line: DaemonEntrypoint}, res); err != nil {
		return errUtils.Mark(err, errUtils.ErrDockerUnavailable)
	}
	return nil
}

// Login authenticates the docker CLI against the registry host.
func (c *Client) Login(ctx context.Context) error {
	if c.opts.Registry == nil {
		return errors.Wrap(errUtils.ErrECRAuthFailed, "no registry configured")
	}

	host, err := c.Host(ctx)
	if err != nil {
		return err
	}
	creds, err := c.opts.Registry.AuthorizationToken(ctx)
	if err != nil {
		return err
	}

	cmd := shell.Command{
		Line:  fmt.Sprintf("docker login -u %s --password-stdin %s", creds.Username, host),
		Input: creds.Password,
	}
	res, err := c.exec.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if err := shell.Check(cmd, res); err != nil {
		return errUtils.Mark(err, errUtils.ErrECRAuthFailed)
	}
	return nil
}

// TryPull pulls image:tag. When that tag does not exist it pulls image:latest and tags it as image:tag.
func (c *Client) TryPull(ctx context.Context, image, tag string) error {
	if _, err := name.NewRepository(image); err != nil {
		return errUtils.Mark(errors.Wrapf(err, "image %q", image), errUtils.ErrInvalidImageReference)
	}
	tagged := image + ":" + tag
	if _, err := name.NewTag(tagged); err != nil {
		return errUtils.Mark(errors.Wrapf(err, "tag %q", tag), errUtils.ErrInvalidImageReference)
	}
	latest := image + ":latest"

	if ok, err := c.succeeds(ctx, "docker pull "+tagged); err != nil || ok {
		return err
	}

	log.Info("Tag not found, falling back to latest", "image", image, "tag", tag)
	ok, err := c.succeeds(ctx, "docker pull "+latest)
	if err != nil {
		return err
	}
	if !ok {
		return errUtils.Build(errors.Wrapf(errUtils.ErrImageNotFound, "%s", image)).
			WithExplanation("Neither the requested tag nor latest could be pulled.").
			Err()
	}

	ok, err = c.succeeds(ctx, fmt.Sprintf("docker tag %s %s", latest, tagged))
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(errUtils.ErrImageRetag, "unable to tag %s as :%s", latest, tag)
	}
	return nil
}

func (c *Client) succeeds(ctx context.Context, line string) (bool, error) {
	res, err := c.exec.Run(ctx, shell.Command{Line: line})
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

// DetermineTag is the image tag for the checked out branch.
func DetermineTag(state git.State, opts git.TagOptions) string {
	return state.ArtifactTag(nil, opts)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/umsi-mads/mads/pkg/aws/ecr"
	"github.com/umsi-mads/mads/pkg/docker"
	"github.com/umsi-mads/mads/pkg/git"
	log "github.com/umsi-mads/mads/pkg/logger"
)

func newDockerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docker",
		Short: "Helpers for interacting with Docker",
	}
	cmd.AddCommand(
		newDockerStartCmd(a),
		newDockerLoginCmd(a),
		newDockerTryPullCmd(a),
		newDockerTagCmd(a),
	)
	return cmd
}

// dockerClient wires the registry host sources. The runner and STS lookups are lazy inside Host.
func (a *app) dockerClient(cmd *cobra.Command, withRegistry bool) (*docker.Client, error) {
	opts := docker.Options{
		ImageHost: a.cfg.ImageHost,
		Identity:  a.ids,
		Region:    a.region(),
	}
	if r, err := a.runners.Load(); err == nil {
		opts.Runner = r
	} else {
		log.Debug("Runner unavailable for registry host", "error", err)
	}
	if withRegistry {
		sdk, err := a.awsConfig(cmd.Context(), a.region())
		if err != nil {
			return nil, err
		}
		opts.Registry = ecr.New(sdk)
	}
	return docker.New(a.exec, opts), nil
}

func newDockerStartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Ensure the daemon is running and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.dockerClient(cmd, true)
			if err != nil {
				return err
			}
			if err := client.Start(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Docker started successfully")

			if err := client.Login(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in successfully")
			return nil
		},
	}
}

func newDockerLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log the docker CLI in to the ECR registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.dockerClient(cmd, true)
			if err != nil {
				return err
			}
			if err := client.Login(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in successfully")
			return nil
		},
	}
}

func newDockerTryPullCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "try-pull <image> <tag>",
		Short:   "Pull a docker image, or latest retagged when that tag doesn't exist",
		Example: "  mads docker try-pull 123456789012.dkr.ecr.us-east-1.amazonaws.com/course-site feature",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.dockerClient(cmd, false)
			if err != nil {
				return err
			}
			return client.TryPull(cmd.Context(), args[0], args[1])
		},
	}
}

func newDockerTagCmd(a *app) *cobra.Command {
	var opts git.TagOptions

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Determine what tag to use for the current build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), docker.DetermineTag(a.git.Get(cmd.Context()), opts))
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.UseBranch, "use-branch", false, "Use the branch name rather than a semantic equivalent")
	cmd.Flags().StringVar(&opts.Default, "default", git.DefaultTag, "Default tag to use if no branch is found")
	return cmd
}

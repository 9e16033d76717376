package cmd

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	errUtils "github.com/umsi-mads/mads/errors"
	"github.com/umsi-mads/mads/pkg/environ"
	"github.com/umsi-mads/mads/pkg/github"
	log "github.com/umsi-mads/mads/pkg/logger"
	"github.com/umsi-mads/mads/pkg/shell"
)

func newSetupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Helpers for setting up a build environment",
	}
	cmd.AddCommand(newSetupInstallCmd(a), newSetupSwapCmd(a))
	return cmd
}

// packageURL is the pip requirement for a private package of org.
func packageURL(org, repo, branch string) string {
	return fmt.Sprintf("git+https://github.com/%s/%s.git@%s", org, repo, branch)
}

func newSetupInstallCmd(a *app) *cobra.Command {
	var branch string
	var latest, prereleases bool

	cmd := &cobra.Command{
		Use:   "install <repo>",
		Short: "Private python package install",
		Example: `  mads setup install course-tools
  mads setup install course-tools --latest`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := branch
			if latest {
				tag, err := a.latestRelease(cmd.Context(), args[0], prereleases)
				if err != nil {
					return err
				}
				log.Info("Installing latest release", "repo", args[0], "tag", tag)
				ref = tag
			}

			line := "pip install " + packageURL(a.cfg.GitHub.Org, args[0], ref)
			c := shell.Command{Line: line}
			res, err := a.exec.Run(cmd.Context(), c)
			if err != nil {
				return err
			}
			if err := shell.Check(c, res); err != nil {
				return errUtils.Mark(err, errUtils.ErrPackageInstall)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&branch, "branch", "main", "Branch or tag to install from")
	cmd.Flags().BoolVar(&latest, "latest", false, "Install the newest GitHub release instead of --branch")
	cmd.Flags().BoolVar(&prereleases, "prereleases", false, "Let --latest pick prereleases")
	cmd.MarkFlagsMutuallyExclusive("branch", "latest")
	return cmd
}

// latestRelease authenticates as the GitHub app when credentials are configured,
// then with GITHUB_TOKEN, and anonymously otherwise.
func (a *app) latestRelease(ctx context.Context, repo string, prereleases bool) (string, error) {
	token := a.env.Get("GITHUB_TOKEN")
	installation, err := a.installationToken(ctx, appFlags{})
	switch {
	case err == nil:
		token = installation.Value
	case !errors.Is(err, errUtils.ErrMissingAppCredentials):
		return "", err
	}

	client, err := github.NewClient(ctx, token, a.cfg.GitHub.APIURL)
	if err != nil {
		return "", err
	}
	return github.LatestRelease(ctx, client, a.cfg.GitHub.Org, repo, prereleases)
}

func newSetupSwapCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "swap",
		Short: "Allocate and enable a swap file when the machine has none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gauge := environ.SystemGauge{}
			resources := environ.LoadResources(gauge)
			return resources.EnableSwap(cmd.Context(), a.exec, gauge)
		},
	}
}

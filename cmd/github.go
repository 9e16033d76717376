package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/umsi-mads/mads/pkg/aws/secrets"
	"github.com/umsi-mads/mads/pkg/github"
)

func newGitHubCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "github",
		Short: "Helpers for interacting with GitHub",
	}
	cmd.AddCommand(newGitHubTokenCmd(a), newGitHubCommitStatusCmd(a))
	return cmd
}

type appFlags struct {
	appID          int64
	installationID int64
	privateKey     string
	secretID       string
}

func (f *appFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.appID, "app-id", 0, "GitHub App ID")
	cmd.Flags().Int64Var(&f.installationID, "installation-id", 0, "GitHub App installation ID")
	cmd.Flags().StringVar(&f.privateKey, "private-key", "", "PEM-encoded GitHub App private key")
	cmd.Flags().StringVar(&f.secretID, "secret-id", "", "Secrets Manager secret holding app_id, installation_id and private_key")
}

// credentials merges, by priority: flags, the secret, then mads.yaml.
func (a *app) credentials(ctx context.Context, f appFlags) (github.AppCredentials, error) {
	creds := github.AppCredentials{AppID: f.appID, InstallationID: f.installationID, PrivateKey: f.privateKey}

	secretID := f.secretID
	if secretID == "" {
		secretID = a.cfg.GitHub.SecretID
	}
	if secretID != "" {
		sdk, err := a.awsConfig(ctx, a.region())
		if err != nil {
			return github.AppCredentials{}, err
		}
		stored, err := github.LoadAppCredentials(ctx, secrets.New(sdk), secretID)
		if err != nil {
			return github.AppCredentials{}, err
		}
		creds = creds.Merge(stored)
	}

	return creds.Merge(github.AppCredentials{
		AppID:          a.cfg.GitHub.AppID,
		InstallationID: a.cfg.GitHub.InstallationID,
		PrivateKey:     a.cfg.GitHub.PrivateKey,
	}), nil
}

func (a *app) installationToken(ctx context.Context, f appFlags) (*github.Token, error) {
	creds, err := a.credentials(ctx, f)
	if err != nil {
		return nil, err
	}
	return github.Apps{APIURL: a.cfg.GitHub.APIURL}.InstallationToken(ctx, creds)
}

func newGitHubTokenCmd(a *app) *cobra.Command {
	var flags appFlags
	var install bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a temporary app installation token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := a.installationToken(cmd.Context(), flags)
			if err != nil {
				return err
			}

			if install {
				home, err := a.home()
				if err != nil {
					return err
				}
				if err := github.InstallCredentials(cmd.Context(), a.exec, home, token.Value); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), token.Value)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&install, "install", false, "Also store the token as a git credential for github.com")
	return cmd
}

func newGitHubCommitStatusCmd(a *app) *cobra.Command {
	var flags appFlags
	var opts github.StatusOptions

	cmd := &cobra.Command{
		Use:   "commit-status <pending|success|failure|error|finished>",
		Short: "Create a GitHub commit status for the current commit",
		Long: `Create a commit status on the commit under build. "finished" reports success
when CODEBUILD_BUILD_SUCCEEDING is 1 and failure otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := github.ParseCheckState(args[0])
			if err != nil {
				return err
			}
			opts.State = state
			opts.Succeeding = a.env.Get("CODEBUILD_BUILD_SUCCEEDING") == "1"

			r, err := a.runners.Load()
			if err != nil {
				return err
			}
			target, err := github.TargetFromRunner(r)
			if err != nil {
				return err
			}

			token, err := a.installationToken(cmd.Context(), flags)
			if err != nil {
				return err
			}
			client, err := github.NewClient(cmd.Context(), token.Value, a.cfg.GitHub.APIURL)
			if err != nil {
				return err
			}
			_, err = github.CreateCommitStatus(cmd.Context(), client, target, opts)
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&opts.Context, "context", "", "Status context label (default \"Build\")")
	cmd.Flags().StringVar(&opts.Description, "description", "", "Status description (default depends on the state)")
	return cmd
}

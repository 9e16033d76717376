package cmd

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	errUtils "github.com/umsi-mads/mads/errors"
	"github.com/umsi-mads/mads/pkg/docker"
	"github.com/umsi-mads/mads/pkg/environ"
	log "github.com/umsi-mads/mads/pkg/logger"
)

func newEnvironCmd(a *app) *cobra.Command {
	var showEnv bool
	var tree string
	var treeOpts log.TreeOptions

	cmd := &cobra.Command{
		Use:   "environ",
		Short: "Dump the detected build environment",
		Long: `Print the git state, docker settings, runner, terminal and machine resources
as YAML. --env and --tree add the environment variables and a file listing to the log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer log.Default().Track("environ")()

			settings := docker.LoadSettings(a.env)
			var runnerInfo any
			if r, err := a.runners.Load(); err == nil {
				runnerInfo = r
			} else {
				runnerInfo = map[string]string{"error": err.Error()}
			}

			doc := yaml.MapSlice{
				{Key: "git", Value: a.git.Get(cmd.Context())},
				{Key: "docker", Value: yaml.MapSlice{
					{Key: "cache_to", Value: settings.CacheTo},
					{Key: "cache_from", Value: settings.CacheFrom},
					{Key: "config", Value: settings.ConfigDir},
					{Key: "buildx", Value: settings.Buildx()},
				}},
				{Key: "runner", Value: runnerInfo},
				{Key: "io", Value: environ.LoadInOut(a.env, os.Stdout).Summary()},
				{Key: "resources", Value: environ.LoadResources(nil)},
			}

			out, err := yaml.Marshal(doc)
			if err != nil {
				return errUtils.Mark(err, errUtils.ErrWriteOutput)
			}
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return errUtils.Mark(err, errUtils.ErrWriteOutput)
			}

			if showEnv {
				log.Start("Environment")
				log.Default().Environ(os.Environ())
				log.End("Environment")
			}
			if tree != "" {
				log.Start("Files in " + tree)
				log.Default().Tree(tree, treeOpts)
				log.End("Files in " + tree)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showEnv, "env", false, "Log every environment variable")
	cmd.Flags().StringVar(&tree, "tree", "", "Log the files under this directory")
	cmd.Flags().BoolVar(&treeOpts.Size, "size", true, "Include file sizes in --tree")
	cmd.Flags().BoolVar(&treeOpts.ModTime, "mtime", false, "Include modification times in --tree")
	cmd.Flags().BoolVar(&treeOpts.Hash, "hash", false, "Include short content hashes in --tree")
	return cmd
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/umsi-mads/mads/pkg/ci"
	"github.com/umsi-mads/mads/pkg/git"
)

func newTagCmd(a *app) *cobra.Command {
	var opts git.TagOptions
	var output string

	cmd := &cobra.Command{
		Use:   "tag [prefix...]",
		Short: "Generate an artifact tag based on the git environment",
		Long: `Print a deterministic artifact tag for the checked out branch. Prefix words are
joined with dashes ahead of the branch's channel: main and master map to latest,
beta to beta and everything else to the default.`,
		Example: `  mads tag
  mads tag docs --use-branch
  mads tag --default preview --output image_tag`,
		RunE: func(cmd *cobra.Command, args []string) error {
			state := a.git.Get(cmd.Context())
			tag := state.ArtifactTag(args, opts)
			fmt.Fprintln(cmd.OutOrStdout(), tag)

			if output == "" {
				return nil
			}
			helpers := ci.NewOutputHelpers(ci.NewOutputWriter(a.env))
			return helpers.WriteTagOutputs(ci.TagOutputs{Name: output, Tag: tag, Branch: state.Branch, Commit: state.Commit})
		},
	}

	cmd.Flags().BoolVar(&opts.UseBranch, "use-branch", false, "Use the branch name rather than a semantic equivalent")
	cmd.Flags().StringVar(&opts.Default, "default", git.DefaultTag, "Default tag to use if no branch is found")
	cmd.Flags().StringVar(&output, "output", "", "Also publish the tag as a CI step output with this name")
	return cmd
}

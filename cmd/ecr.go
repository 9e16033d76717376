package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/umsi-mads/mads/pkg/aws/ecr"
)

func newECRCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ecr",
		Short: "Query Amazon ECR",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "tags <repository>",
		Short: "List the image tags in a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sdk, err := a.awsConfig(cmd.Context(), a.region())
			if err != nil {
				return err
			}
			tags, err := ecr.New(sdk).ImageTags(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, tag := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), tag)
			}
			return nil
		},
	})
	return cmd
}

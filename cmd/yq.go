package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	errUtils "github.com/umsi-mads/mads/errors"
	"github.com/umsi-mads/mads/pkg/yq"
)

func newYQCmd(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "yq <query> <file|->",
		Short: "Query a YAML document with a dotted path",
		Example: `  mads yq build.image .mads.yaml -r
  cat values.yaml | mads yq replicas.0 -`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, input := args[0], args[1]

			var r io.Reader = a.stdin
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return errUtils.Mark(err, errUtils.ErrReadInput)
				}
				defer f.Close()
				r = f
			}

			data, err := yq.Load(r)
			if err != nil {
				return err
			}
			value, err := yq.Get(data, query)
			if err != nil {
				return err
			}
			if value == nil {
				return errors.Wrapf(errUtils.ErrQueryNoValue, "the query %q returned no value", query)
			}

			out, err := yq.Format(value, raw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&raw, "raw", "r", false, "Output the raw value")
	return cmd
}

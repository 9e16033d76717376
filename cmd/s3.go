package cmd

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	errUtils "github.com/umsi-mads/mads/errors"
	"github.com/umsi-mads/mads/pkg/aws/s3"
)

func newS3Cmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "s3",
		Short: "Find and share build artifacts in S3",
	}
	cmd.AddCommand(newS3FindCmd(a), newS3PresignCmd(a))
	return cmd
}

func (a *app) s3Client(cmd *cobra.Command) (*s3.Client, error) {
	sdk, err := a.awsConfig(cmd.Context(), a.region())
	if err != nil {
		return nil, err
	}
	return s3.New(sdk), nil
}

func newS3FindCmd(a *app) *cobra.Command {
	var first bool

	cmd := &cobra.Command{
		Use:     "find <bucket> <prefix> [contains...]",
		Short:   "List keys under a prefix that contain every given term",
		Example: "  mads s3 find artifacts builds/course-site main .zip --first",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.s3Client(cmd)
			if err != nil {
				return err
			}
			bucket, prefix, contains := args[0], args[1], args[2:]

			if first {
				key, err := client.FindKey(cmd.Context(), bucket, prefix, contains...)
				if err != nil {
					return err
				}
				if key == "" {
					return errors.Wrapf(errUtils.ErrQueryNoValue, "no key under s3://%s/%s matches", bucket, prefix)
				}
				fmt.Fprintln(cmd.OutOrStdout(), key)
				return nil
			}

			keys, err := client.FindKeys(cmd.Context(), bucket, prefix, contains...)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&first, "first", false, "Print only the first match and fail when there is none")
	return cmd
}

func newS3PresignCmd(a *app) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "presign <bucket> <key>",
		Short: "Print a temporary download URL for an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.s3Client(cmd)
			if err != nil {
				return err
			}
			url, err := client.PresignGetObject(cmd.Context(), args[0], args[1], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "expires", s3.DefaultPresignTTL, "How long the URL stays valid")
	return cmd
}

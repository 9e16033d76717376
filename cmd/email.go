package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	errUtils "github.com/umsi-mads/mads/errors"
	"github.com/umsi-mads/mads/pkg/email"
)

func newEmailCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "email",
		Short: "Send build notification emails",
	}
	cmd.AddCommand(newEmailSendCmd(a))
	return cmd
}

func newEmailSendCmd(a *app) *cobra.Command {
	var msg email.Message
	var bodyFile string
	var markdown bool

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Compose an email and deliver it through Amazon SES",
		Long: `Compose a multipart email with plain and HTML bodies plus attachments, then send
it from the configured SES identity. Without an identity the message is logged
and delivery is skipped.`,
		Example: `  mads email send --to ta@umich.edu --subject "Build failed" --body "<p>See the log.</p>"
  mads email send --to ta@umich.edu --subject Report --body-file report.md --markdown --attach report.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if bodyFile != "" {
				body, err := a.readBody(bodyFile)
				if err != nil {
					return err
				}
				msg.Body = body
			}
			if markdown {
				html, err := email.RenderMarkdown(msg.Body)
				if err != nil {
					return err
				}
				msg.Body = html
			}
			if msg.FromName == "" {
				msg.FromName = a.cfg.SES.FromName
			}

			identity := a.cfg.SES.SendIdentity
			var sender email.Sender
			if identity != "" {
				sdk, err := a.awsConfig(cmd.Context(), a.region())
				if err != nil {
					return err
				}
				sender = email.NewSender(sdk)
			}

			id, err := email.Deliver(cmd.Context(), sender, identity, msg)
			if err != nil {
				return err
			}
			if id != "" {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&msg.To, "to", nil, "Recipient addresses")
	flags.StringSliceVar(&msg.CC, "cc", nil, "Carbon copy addresses")
	flags.StringSliceVar(&msg.BCC, "bcc", nil, "Blind carbon copy addresses")
	flags.StringVar(&msg.FromName, "from-name", "", "Sender display name (default from ses.from_name)")
	flags.StringVar(&msg.Subject, "subject", "", "Subject line")
	flags.StringVar(&msg.Body, "body", "", "HTML body fragment")
	flags.StringVar(&bodyFile, "body-file", "", "Read the body from a file, or - for stdin")
	flags.BoolVar(&markdown, "markdown", false, "Treat the body as Markdown")
	flags.StringSliceVar(&msg.Attachments, "attach", nil, "Files to attach")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func (a *app) readBody(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errUtils.Mark(errors.Wrapf(err, "reading body %s", path), errUtils.ErrReadInput)
	}
	return string(data), nil
}

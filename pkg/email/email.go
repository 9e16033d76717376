// Package email composes build notification emails and delivers them through Amazon SES.
package email

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/cockroachdb/errors"
	"gopkg.in/gomail.v2"

	errUtils "github.com/umsi-mads/mads/errors"
	madsaws "github.com/umsi-mads/mads/pkg/aws"
	log "github.com/umsi-mads/mads/pkg/logger"
)

// DefaultFromName is the display name used when a Message has none.
const DefaultFromName = "MADS Course Builds"

// Message is an email before composition. Body is an HTML fragment.
type Message struct {
	To          []string
	CC          []string
	BCC         []string
	FromName    string
	Subject     string
	Body        string
	Attachments []string
}

// Recipients lists every address the message is delivered to.
func (m Message) Recipients() []string {
	all := make([]string, 0, len(m.To)+len(m.CC)+len(m.BCC))
	all = append(all, m.To...)
	all = append(all, m.CC...)
	return append(all, m.BCC...)
}

// Build composes msg as multipart/mixed with a plain and HTML alternative, sent from identity.
// Every header is logged in an indented section.
func Build(msg Message, identity string) (*gomail.Message, error) {
	if len(msg.To) == 0 {
		return nil, errUtils.ErrEmailNoRecipients
	}
	for _, path := range msg.Attachments {
		if _, err := os.Stat(path); err != nil {
			return nil, errUtils.Mark(errors.Wrapf(err, "attachment %s", path), errUtils.ErrEmailAttachment)
		}
	}

	logger := log.Default()
	logger.Info("Building email")
	logger.Indent("")
	defer logger.Outdent()

	m := gomail.NewMessage()

	m.SetHeader("To", msg.To...)
	logger.Info("To: " + strings.Join(msg.To, ", "))
	if len(msg.CC) > 0 {
		m.SetHeader("Cc", msg.CC...)
		logger.Info("CC: " + strings.Join(msg.CC, ", "))
	}
	if len(msg.BCC) > 0 {
		m.SetHeader("Bcc", msg.BCC...)
		logger.Info("BCC: " + strings.Join(msg.BCC, ", "))
	}

	name := msg.FromName
	if name == "" {
		name = DefaultFromName
	}
	m.SetAddressHeader("From", identity, name)
	logger.Info("From: " + m.FormatAddress(identity, name))

	m.SetHeader("Subject", msg.Subject)
	logger.Info("Subject: " + msg.Subject)

	if msg.Body != "" {
		plain := StripHTML(msg.Body)
		m.SetBody("text/plain", plain)
		m.AddAlternative("text/html", WrapHTML(msg.Body))

		logger.Info("Body:")
		logger.WithIndent("", func() { logger.Info(plain) })
	}

	if len(msg.Attachments) > 0 {
		logger.Info("Attachments:")
		logger.WithIndent("*", func() {
			for _, path := range msg.Attachments {
				m.Attach(path)
				logger.Info(filepath.Base(path))
			}
		})
	}

	return m, nil
}

// Raw renders m as RFC 5322 bytes.
func Raw(m *gomail.Message) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, errUtils.Mark(errors.Wrap(err, "rendering message"), errUtils.ErrEmailBuild)
	}
	return buf.Bytes(), nil
}

// Sender is the subset of the SES v2 client used for delivery.
type Sender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// NewSender returns the SES v2 client for cfg.
func NewSender(cfg awssdk.Config) Sender {
	return sesv2.NewFromConfig(cfg)
}

// Deliver builds msg and sends it as a raw message. Without an identity the message is built and logged but not sent.
func Deliver(ctx context.Context, sender Sender, identity string, msg Message) (string, error) {
	m, err := Build(msg, identity)
	if err != nil {
		return "", err
	}
	if identity == "" {
		log.Warn("No SES send identity set. Skipping email delivery.")
		return "", nil
	}

	raw, err := Raw(m)
	if err != nil {
		return "", err
	}

	out, err := sender.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: awssdk.String(identity),
		Destination: &types.Destination{
			ToAddresses:  msg.To,
			CcAddresses:  msg.CC,
			BccAddresses: msg.BCC,
		},
		Content: &types.EmailContent{Raw: &types.RawMessage{Data: raw}},
	})
	if err != nil {
		return "", madsaws.Wrap(err, errUtils.ErrSESSend, "sending %q", msg.Subject)
	}

	id := awssdk.ToString(out.MessageId)
	log.Info("Sent email", "message_id", id, "recipients", len(msg.Recipients()))
	return id, nil
}

package mailer

import (
	"context"
	"fmt"
	"os"
	"storefront/src/lib"
	awslib "storefront/src/lib/aws"
	"storefront/src/notify"
	"storefront/src/types"

	"github.com/aws/aws-sdk-go-v2/aws"
)

const (
	TRANSPORT_SMTP  = "smtp"
	TRANSPORT_SES   = "ses"
	TRANSPORT_QUEUE = "queue"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

type SMTPMailer struct{}

func (SMTPMailer) Send(ctx context.Context, msg notify.Message) error {
	return lib.SendMail(ctx, &lib.SendMailInput{
		From:     msg.From,
		FromName: msg.FromName,
		To:       msg.To,
		ReplyTo:  msg.ReplyTo,
		Subject:  msg.Subject,
		Body:     msg.Body,
		Html:     msg.Html,
	})
}

type SESMailer struct{}

func (SESMailer) Send(ctx context.Context, msg notify.Message) error {
	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.From)
	}
	dest, content := awslib.SESMessage(msg.To, msg.Subject, msg.Body, msg.Html)
	_, err := awslib.SESSendMessage(ctx, aws.String(from), dest, content)
	return err
}

// QueueMailer hands the message to a mail worker through the event broker.
type QueueMailer struct {
	Queue     string
	Publisher Publisher
}

func (q QueueMailer) Send(ctx context.Context, msg notify.Message) error {
	emailBody := types.JSONB{
		"from":      msg.From,
		"from-name": msg.FromName,
		"to":        msg.To,
		"reply-to":  msg.ReplyTo,
		"body":      msg.Body,
		"html":      msg.Html,
		"subject":   msg.Subject,
	}
	if err := q.Publisher.Publish(ctx, q.Queue, emailBody); err != nil {
		return fmt.Errorf("error sending message to queue: %w", err)
	}
	return nil
}

// NewMailer picks the transport named by MAIL_TRANSPORT, defaulting to smtp.
func NewMailer(transport string, publisher Publisher) (notify.Mailer, error) {
	switch transport {
	case "", TRANSPORT_SMTP:
		return SMTPMailer{}, nil
	case TRANSPORT_SES:
		return SESMailer{}, nil
	case TRANSPORT_QUEUE:
		if publisher == nil {
			return nil, fmt.Errorf("mail transport %q needs an event publisher", transport)
		}
		queue := os.Getenv("EMAIL_QUEUE")
		if queue == "" {
			queue = "emails"
		}
		return QueueMailer{Queue: queue, Publisher: publisher}, nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", transport)
	}
}

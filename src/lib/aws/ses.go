package aws

import (
	"context"
	"log"
	"storefront/src/lib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESMessage builds the SES destination and content of one email.
func SESMessage(to []string, subject, body string, html bool) (*types.Destination, *types.Message) {
	content := &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")}
	msgBody := &types.Body{Text: content}
	if html {
		msgBody = &types.Body{Html: content}
	}
	return &types.Destination{ToAddresses: to}, &types.Message{
		Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
		Body:    msgBody,
	}
}

func SESSendMessage(ctx context.Context, from *string, destination *types.Destination, message *types.Message) (string, error) {
	c := lib.AWSGetSESClient()
	if c == nil {
		return "", errSESUnavailable
	}
	input := &ses.SendEmailInput{
		Destination: destination,
		Source:      from,
		Message:     message,
	}
	out, err := c.SendEmail(ctx, input)
	if err != nil {
		log.Printf("Error sending email: %s\n", err.Error())
		return "", err
	}
	log.Printf("Sent email with id: %s\n", aws.ToString(out.MessageId))
	return aws.ToString(out.MessageId), nil
}

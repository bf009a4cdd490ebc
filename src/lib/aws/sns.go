package aws

import (
	"context"
	"encoding/json"
	"log"
	"storefront/src/lib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSPublisher fans lifecycle events out to one SNS topic per event name.
type SNSPublisher struct {
	inner *sns.Client
}

func NewSNSPublisher() (*SNSPublisher, error) {
	inner := lib.AWSGetSNSClient()
	if inner == nil {
		return nil, errSNSUnavailable
	}
	return &SNSPublisher{inner: inner}, nil
}

func (s *SNSPublisher) Publish(ctx context.Context, topic string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	out, err := s.inner.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(lib.GetTopicArn(topic)),
		Message:  aws.String(string(b)),
	})
	if err != nil {
		log.Printf("[SNS] Error publishing to %s: %s\n", topic, err.Error())
		return err
	}
	log.Printf("[SNS] Published %s: %s\n", topic, aws.ToString(out.MessageId))
	return nil
}

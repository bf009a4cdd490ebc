package aws

import (
	"context"
	"encoding/json"
	"log"
	"storefront/src/lib"
	"storefront/src/types"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type SQSConsumer struct {
	Name    string
	handler types.Handler
	client  *sqs.Client
}

func NewSQSConsumer(queue string, handler types.Handler) *SQSConsumer {
	return &SQSConsumer{
		Name:    queue,
		handler: handler,
	}
}

// Listen polls the queue until ctx is done. Messages are deleted only after
// the handler accepts them, so failures are redelivered once their
// visibility timeout lapses.
func (s *SQSConsumer) Listen(ctx context.Context) error {
	if s.client == nil {
		s.client = lib.AWSGetSQSClient()
	}
	if s.client == nil {
		return errSQSUnavailable
	}
	qurl, err := lib.SQSGetQueueUrl(ctx, s.client, s.Name)
	if err != nil {
		return err
	}
	go func() {
		log.Printf("%s: Listening for messages...", s.Name)
		messagesChan := make(chan sqstypes.Message, 10)
		go func(chn chan<- sqstypes.Message) {
			defer close(chn)
			for ctx.Err() == nil {
				output, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
					QueueUrl:            qurl,
					WaitTimeSeconds:     20,
					MaxNumberOfMessages: 10,
				})
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("[SQS] Error receiving messages: %s\n", err.Error())
					time.Sleep(5 * time.Second)
					continue
				}
				for _, m := range output.Messages {
					chn <- m
				}
			}
		}(messagesChan)

		for m := range messagesChan {
			body := strings.Clone(aws.ToString(m.Body))
			if err := s.handler(ctx, body); err != nil {
				log.Printf("[SQS] %s: message %s not processed: %s\n", s.Name, aws.ToString(m.MessageId), err.Error())
				continue
			}
			lib.SQSDeleteMessage(s.client, qurl, &m)
		}
		log.Printf("%s: consumer stopped\n", s.Name)
	}()
	return nil
}

// SQSPublisher sends lifecycle events to one queue per event name.
type SQSPublisher struct {
	client *sqs.Client
}

func NewSQSPublisher() (*SQSPublisher, error) {
	client := lib.AWSGetSQSClient()
	if client == nil {
		return nil, errSQSUnavailable
	}
	return &SQSPublisher{client: client}, nil
}

func (p *SQSPublisher) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return lib.SQSProduceMessage(ctx, p.client, lib.TopicName(topic), string(body))
}

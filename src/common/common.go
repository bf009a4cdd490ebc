package common

import (
	"context"
	"errors"
	"log"
	awslib "storefront/src/lib/aws"
	"storefront/src/payments"
	"storefront/src/types"

	"github.com/tidwall/gjson"
)

type PaymentEventApplier interface {
	Handle(ctx context.Context, ev types.PaymentEvent) error
}

// PaymentEventHandler adapts queued payment events to the bridge. Messages
// that can never succeed are acknowledged; anything else is left on the queue
// for redelivery.
func PaymentEventHandler(bridge PaymentEventApplier) types.Handler {
	return func(ctx context.Context, payload string) error {
		body := unwrapSNS(payload)
		ev, err := payments.ParseEvent(body)
		if err != nil {
			if errors.Is(err, payments.ErrIgnoredEvent) {
				return nil
			}
			log.Printf("[PaymentEvents] dropping malformed message: %s\n", err.Error())
			return nil
		}
		err = bridge.Handle(ctx, *ev)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, types.ErrAlreadyProcessed):
			return nil
		case errors.Is(err, types.ErrOrderNotFound):
			log.Printf("[PaymentEvents] %s refers to an unknown order: %s\n", ev.ID, err.Error())
			return nil
		case errors.Is(err, types.ErrIllegalTransition):
			log.Printf("[PaymentEvents] %s needs manual review: %s\n", ev.ID, err.Error())
			return nil
		default:
			return err
		}
	}
}

// unwrapSNS returns the inner message of an SNS notification delivered to SQS.
func unwrapSNS(payload string) string {
	if gjson.Get(payload, "Type").String() == "Notification" {
		if msg := gjson.Get(payload, "Message"); msg.Exists() {
			return msg.String()
		}
	}
	return payload
}

func PaymentEventsConsumer(ctx context.Context, queue string, bridge PaymentEventApplier) (*awslib.SQSConsumer, error) {
	c := awslib.NewSQSConsumer(queue, PaymentEventHandler(bridge))
	if err := c.Listen(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

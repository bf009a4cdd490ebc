package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"storefront/src/types"

	"github.com/stripe/stripe-go/v82"
	"github.com/tidwall/gjson"
)

var ErrIgnoredEvent = errors.New("event type is not a payment lifecycle event")

var stripeEventTypes = map[string]types.PaymentEventType{
	"payment_intent.succeeded":      types.PAYMENT_SUCCEEDED,
	"payment_intent.payment_failed": types.PAYMENT_FAILED,
	"payment_intent.canceled":       types.PAYMENT_CANCELED,
}

// FromStripe converts a verified Stripe event into a payment event.
func FromStripe(event stripe.Event) (*types.PaymentEvent, error) {
	kind, ok := stripeEventTypes[string(event.Type)]
	if !ok {
		return nil, ErrIgnoredEvent
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("parse payment intent: %w", err)
	}
	return &types.PaymentEvent{
		ID:   event.ID,
		Type: kind,
		Object: types.PaymentObject{
			ID:       pi.ID,
			Status:   string(pi.Status),
			Amount:   pi.Amount,
			Currency: string(pi.Currency),
			Metadata: pi.Metadata,
		},
	}, nil
}

// ParseEvent reads a relayed event body. Both raw Stripe events
// (data.object) and already normalised events (object) are accepted.
func ParseEvent(body string) (*types.PaymentEvent, error) {
	if !gjson.Valid(body) {
		return nil, errors.New("payment event is not valid JSON")
	}
	doc := gjson.Parse(body)
	kind := doc.Get("type").String()
	if mapped, ok := stripeEventTypes[kind]; ok {
		kind = string(mapped)
	}
	switch types.PaymentEventType(kind) {
	case types.PAYMENT_SUCCEEDED, types.PAYMENT_FAILED, types.PAYMENT_CANCELED:
	default:
		return nil, ErrIgnoredEvent
	}

	obj := doc.Get("object")
	if !obj.Exists() {
		obj = doc.Get("data.object")
	}
	if obj.Get("id").String() == "" {
		return nil, errors.New("payment event has no object id")
	}
	metadata := map[string]string{}
	obj.Get("metadata").ForEach(func(k, v gjson.Result) bool {
		metadata[k.String()] = v.String()
		return true
	})
	return &types.PaymentEvent{
		ID:   doc.Get("id").String(),
		Type: types.PaymentEventType(kind),
		Object: types.PaymentObject{
			ID:       obj.Get("id").String(),
			Status:   obj.Get("status").String(),
			Amount:   obj.Get("amount").Int(),
			Currency: obj.Get("currency").String(),
			Metadata: metadata,
		},
	}, nil
}

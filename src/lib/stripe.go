package lib

import (
	"context"
	"os"
	"storefront/src/types"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

// StripePayments starts payment intents for orders and refunds captured ones.
type StripePayments struct {
	client *stripe.Client
}

func NewStripePayments(c *stripe.Client) *StripePayments {
	if c == nil {
		c = GetStripeClient()
	}
	return &StripePayments{client: c}
}

func (p *StripePayments) CreateIntent(ctx context.Context, req types.PaymentIntentRequest) (*types.PaymentIntent, error) {
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String("Order " + req.Reference),
		Metadata: map[string]string{
			"order_id":  req.OrderID.String(),
			"reference": req.Reference,
		},
	}
	if req.Customer.Email != "" {
		params.ReceiptEmail = stripe.String(req.Customer.Email)
	}
	// one intent per order even if checkout is retried
	params.SetIdempotencyKey("order-" + req.OrderID.String())

	intent, err := p.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	return &types.PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

func (p *StripePayments) Refund(ctx context.Context, paymentReference string, amountCents int64, reason string) (string, error) {
	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(paymentReference),
		Amount:        stripe.Int64(amountCents),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	if reason != "" {
		params.Metadata = map[string]string{"reason": reason}
	}
	params.SetIdempotencyKey("refund-" + paymentReference)
	refund, err := p.client.V1Refunds.Create(ctx, params)
	if err != nil {
		return "", err
	}
	return refund.ID, nil
}

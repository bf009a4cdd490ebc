package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"storefront/src/payments"
	"storefront/src/types"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82/webhook"
)

const maxWebhookBody = int64(65536)

func stripeWebhookRoute(g *gin.RouterGroup, svc *Services) *gin.RouterGroup {
	g.POST("/webhook/stripe", func(ctx *gin.Context) {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxWebhookBody)
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("[StripeEvent] Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		event, err := webhook.ConstructEventWithOptions(
			payload,
			ctx.GetHeader("Stripe-Signature"),
			os.Getenv("STRIPE_WEBHOOK_SECRET"),
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
		)
		if err != nil {
			log.Printf("[StripeEvent] Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s %s\n", event.ID, event.Type)

		ev, err := payments.FromStripe(event)
		if err != nil {
			if errors.Is(err, payments.ErrIgnoredEvent) {
				ctx.JSON(http.StatusOK, gin.H{"received": true})
				return
			}
			log.Printf("[StripeEvent] %s: %s\n", event.ID, err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}

		err = svc.Payments.Handle(ctx.Request.Context(), *ev)
		switch {
		case err == nil, errors.Is(err, types.ErrAlreadyProcessed):
		case errors.Is(err, types.ErrOrderNotFound):
			log.Printf("[StripeEvent] %s refers to an unknown order: %s\n", event.ID, err.Error())
		case errors.Is(err, types.ErrIllegalTransition):
			log.Printf("[StripeEvent] %s needs manual review: %s\n", event.ID, err.Error())
		default:
			log.Printf("[StripeEvent] %s failed: %s\n", event.ID, err.Error())
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "event not applied"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"received": true})
	})
	return g
}

package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Orders created by checkout",
		},
		[]string{"event_id"},
	)

	orderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_order_transitions_total",
			Help: "Order status transitions by outcome",
		},
		[]string{"from", "to", "status"},
	)

	inventoryRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_inventory_rejections_total",
			Help: "Checkout lines rejected for lack of inventory",
		},
		[]string{"reason"},
	)

	categoryAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storefront_category_available",
			Help: "Last computed availability per ticket category",
		},
		[]string{"category_id"},
	)

	paymentEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_payment_events_total",
			Help: "Payment provider events by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_tickets_issued_total",
			Help: "Tickets issued for paid orders",
		},
	)

	ticketRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_ticket_redemptions_total",
			Help: "Ticket redemption attempts by result",
		},
		[]string{"result"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_notifications_total",
			Help: "Notification attempts by kind and status",
		},
		[]string{"kind", "status"},
	)

	jobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_job_processed_total",
			Help: "Rows processed by scheduled jobs",
		},
		[]string{"job"},
	)

	checkoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_checkout_duration_seconds",
			Help:    "Time spent creating an order including the payment intent",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)
)

func TrackOrderCreated(eventID string) {
	ordersCreated.WithLabelValues(eventID).Inc()
}

func TrackTransition(from, to, status string) {
	orderTransitions.WithLabelValues(from, to, status).Inc()
}

func TrackInventoryRejection(reason string) {
	inventoryRejections.WithLabelValues(reason).Inc()
}

func TrackAvailability(categoryID string, available int) {
	categoryAvailable.WithLabelValues(categoryID).Set(float64(available))
}

func TrackPaymentEvent(eventType, outcome string) {
	paymentEvents.WithLabelValues(eventType, outcome).Inc()
}

func TrackTicketsIssued(n int) {
	ticketsIssued.Add(float64(n))
}

func TrackRedemption(result string) {
	ticketRedemptions.WithLabelValues(result).Inc()
}

func TrackNotification(kind, status string) {
	notifications.WithLabelValues(kind, status).Inc()
}

func TrackJobRun(job string, processed int64) {
	jobRuns.WithLabelValues(job).Add(float64(processed))
}

func TrackCheckout(started time.Time) {
	checkoutDuration.Observe(time.Since(started).Seconds())
}

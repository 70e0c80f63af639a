package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		providerStatusTotal,
		webhookEventsTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments reaching a state, labeled by status (pending/succeeded/canceled).",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_kopeck_total",
			Help: "Total value of successful payments in minor units, labeled by currency.",
		},
		[]string{"currency"},
	)

	// Every provider status observed by the reconciliation engine, including
	// ones that carry no terminal verdict. A status that keeps growing here
	// without ever converging is a payment stuck in limbo.
	providerStatusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_provider_status_total",
			Help: "Provider statuses observed during reconciliation, labeled by status and source.",
		},
		[]string{"status", "source"}, // source: 'webhook', 'poll'
	)

	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Inbound webhook deliveries, labeled by outcome (ok/malformed/failed).",
		},
		[]string{"outcome"},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddPaymentRevenue(currency string, amountKopeck int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amountKopeck))
}

func IncProviderStatus(status, source string) {
	providerStatusTotal.WithLabelValues(norm(status), norm(source)).Inc()
}

func IncWebhookEvent(outcome string) {
	webhookEventsTotal.WithLabelValues(norm(outcome)).Inc()
}

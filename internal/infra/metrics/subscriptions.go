package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsActivatedTotal,
		subscriptionsExpiredTotal,
	)
}

var (
	subscriptionsActivatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_activated_total",
			Help: "Subscriptions created from successful payments, labeled by plan.",
		},
		[]string{"plan"},
	)

	subscriptionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Total number of subscriptions flipped to EXPIRED by the sweeper.",
		},
	)
)

func IncSubscriptionActivated(plan string) {
	subscriptionsActivatedTotal.WithLabelValues(norm(plan)).Inc()
}

func AddSubscriptionsExpired(count int64) {
	subscriptionsExpiredTotal.Add(float64(count))
}

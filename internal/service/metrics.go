package service

import "github.com/prometheus/client_golang/prometheus"

var (
	checkoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "luxora",
		Name:      "checkout_total",
		Help:      "Checkout attempts by payment method and result.",
	}, []string{"method", "result"})

	orderRevenue = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "luxora",
		Name:      "order_revenue_total",
		Help:      "Sum of placed order totals.",
	})

	orderCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "luxora",
		Name:      "order_cancelled_total",
		Help:      "Orders cancelled by customers or admins.",
	})
)

func init() {
	prometheus.MustRegister(checkoutTotal, orderRevenue, orderCancelled)
}

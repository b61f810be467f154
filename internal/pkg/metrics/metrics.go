package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paragate_orders_total",
		Help: "The total number of orders processed",
	}, []string{"status", "side"})

	SignaturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paragate_signatures_total",
		Help: "Typed-data signatures produced, by message kind",
	}, []string{"kind"})

	AuthRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paragate_auth_refreshes_total",
		Help: "JWT refresh attempts against the exchange",
	}, []string{"result"})

	ValidationRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paragate_validation_rejects_total",
		Help: "Orders rejected before signing",
	}, []string{"reason"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paragate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)

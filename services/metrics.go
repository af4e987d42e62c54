package services

import "github.com/prometheus/client_golang/prometheus"

var (
	tokensIssuedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coachmybody",
		Subsystem: "auth",
		Name:      "tokens_issued_total",
		Help:      "Number of token pairs issued, labeled by the operation that issued them.",
	}, []string{"reason"})

	recordsCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coachmybody",
		Subsystem: "records",
		Name:      "created_total",
		Help:      "Number of workout records stored.",
	})

	eventPublishFailedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coachmybody",
		Subsystem: "events",
		Name:      "publish_failed_total",
		Help:      "Number of domain events that could not be published, labeled by type.",
	}, []string{"type"})

	routineCacheCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coachmybody",
		Subsystem: "routines",
		Name:      "detail_cache_total",
		Help:      "Routine detail cache lookups, labeled hit or miss.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(tokensIssuedCounter, recordsCreatedCounter, eventPublishFailedCounter, routineCacheCounter)
}

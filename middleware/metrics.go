package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coachmybody",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, labeled by method, route and status.",
	}, []string{"method", "route", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coachmybody",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests, labeled by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(requestCounter, requestDuration)
}

// Metrics records request counts and latencies per matched route.
func Metrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		requestCounter.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pageview_requests_total",
			Help: "Page view requests by handler and result",
		},
		[]string{"handler", "result"},
	)

	StoreDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pageview_store_duration_seconds",
			Help:    "Duration of page view store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "status"},
	)
)

func init() {
	prometheus.MustRegister(Requests)
	prometheus.MustRegister(StoreDuration)
}

// ObserveStore records one store round trip.
func ObserveStore(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}

// Handler exposes the default registry on a gin route.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

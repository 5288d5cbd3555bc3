// Package metrics exposes the prometheus collectors used by the HTTP layer.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "railtix_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "railtix_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	cmsResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "railtix_cms_page_resolutions_total",
		Help: "Public CMS path resolutions by outcome.",
	}, []string{"outcome"})
)

// CMS resolution outcomes.
const (
	OutcomeRendered = "rendered"
	OutcomeReserved = "reserved"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Middleware records request counts and latency. Unmatched routes are grouped
// under "cms" since the catch-all page handler serves them.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "cms"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// ObserveCMSResolution counts one catch-all resolution.
func ObserveCMSResolution(outcome string) {
	cmsResolutions.WithLabelValues(outcome).Inc()
}

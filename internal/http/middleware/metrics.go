package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests that matched no route, so raw paths (which
// may carry chat codes) never become label values.
const unmatchedRoute = "unmatched"

// errorCodeKey holds the envelope code of a failed request for Metrics.
const errorCodeKey = "errorCode"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcode_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// Status is left out to keep histogram cardinality down.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatcode_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatcode_http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// httpErrors splits failures by envelope code, e.g. code_not_found versus
	// self_request on the same route.
	httpErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcode_http_errors_total",
			Help: "Total number of error envelopes returned, by route and error code.",
		},
		[]string{"path", "code"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpErrors)
}

// SetErrorCode records the envelope code of the response being written so
// Metrics can count it. Handlers call it through their fail helper.
func SetErrorCode(c *gin.Context, code string) {
	c.Set(errorCodeKey, code)
}

// abortWithError writes the standard error envelope from middleware.
func abortWithError(c *gin.Context, status int, code, msg string) {
	SetErrorCode(c, code)
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.GetString(requestIDKey),
		"code":       code,
		"message":    msg,
	})
}

// Metrics instruments every request: a counter by (method, route, status), a
// latency histogram by (method, route), an in-flight gauge, and an error
// counter by (route, envelope code). Routes are Gin templates
// (/api/v1/codes/:code), never raw paths.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if code := c.GetString(errorCodeKey); code != "" {
			httpErrors.WithLabelValues(path, code).Inc()
		}
	}
}

package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "order_api_http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)

	ordersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "order_api_orders_created_total",
			Help: "Orders accepted through the HTTP surface",
		},
	)
)

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := float64(time.Since(start).Milliseconds())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		status := c.Writer.Status()
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(duration)

		if c.Request.Method == "POST" && path == "/v1/orders" && status < 300 {
			ordersCreated.Inc()
		}
	}
}

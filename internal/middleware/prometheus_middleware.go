package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reqDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tilecity",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Длительность HTTP-запросов по маршруту и статусу",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	reqInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tilecity",
		Subsystem: "http",
		Name:      "requests_inflight",
		Help:      "Число запросов, обрабатываемых в данный момент",
	})

	reqErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tilecity",
		Subsystem: "http",
		Name:      "request_errors_total",
		Help:      "Число HTTP-запросов, завершившихся ошибкой (>=400)",
	}, []string{"method", "route"})
)

// PrometheusMiddleware собирает метрики по каждому HTTP-запросу.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqInflight.Inc()

		c.Next()

		reqInflight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		reqDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		if c.Writer.Status() >= 400 {
			reqErrors.WithLabelValues(c.Request.Method, route).Inc()
		}
	}
}

// RegisterMetricsEndpoint добавляет /metrics для Prometheus.
func RegisterMetricsEndpoint(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

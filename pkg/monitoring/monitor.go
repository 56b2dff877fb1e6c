package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	AttemptsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "evaluation_attempts_started_total",
			Help: "Evaluation attempts created",
		},
	)

	AttemptsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluation_attempts_submitted_total",
			Help: "Evaluation attempts scored, by outcome",
		},
		[]string{"result"},
	)

	AttemptScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evaluation_attempt_score",
			Help:    "Distribution of attempt scores (0-100)",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	CoursesCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "courses_completed_total",
			Help: "Enrollments transitioned to completed",
		},
	)

	CertificatesIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certificates_issued_total",
			Help: "Certificates issued, by source",
		},
		[]string{"source"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			AttemptsStarted,
			AttemptsSubmitted,
			AttemptScore,
			CoursesCompleted,
			CertificatesIssued,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

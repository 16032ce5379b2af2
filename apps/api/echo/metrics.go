package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several servers can live in one process.
type Metrics struct {
	registry    *prometheus.Registry
	summaryVec  *prometheus.SummaryVec
	counterVec  *prometheus.CounterVec
	filterCache *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		summaryVec: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request duration in seconds",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.95: 0.005,
					0.99: 0.001,
				},
			},
			[]string{"method", "path", "status_code"},
		),
		counterVec: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		filterCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_filter_cache_total",
				Help: "Dashboard filter cache lookups",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(
		m.summaryVec,
		m.counterVec,
		m.filterCache,
		prometheus.NewGoCollector(),
	)
	return m
}

// Middleware records the duration and count of every request by route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			if err != nil {
				ctx.Error(err)
			}

			path := ctx.Path()
			if path == "" {
				path = ctx.Request().URL.Path
			}
			status := strconv.Itoa(ctx.Response().Status)
			method := ctx.Request().Method

			m.summaryVec.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
			m.counterVec.WithLabelValues(method, path, status).Inc()
			return nil
		}
	}
}

// ObserveFilterCache is handed to dashboard.NewFilterer.
func (m *Metrics) ObserveFilterCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.filterCache.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

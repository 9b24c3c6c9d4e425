package platform

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	CommandsTotal     *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec
	WidgetLoads       *prometheus.CounterVec

	metricsOnce sync.Once
)

// InitMetrics registers the fauxterm collectors with the default registry.
// It is safe to call more than once.
func InitMetrics() {
	metricsOnce.Do(func() {
		HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fauxterm",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed, labeled by method and route.",
		}, []string{"method", "route", "status"})

		HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fauxterm",
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of request durations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"})

		CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fauxterm",
			Name:      "commands_total",
			Help:      "Commands executed, labeled by dispatch kind and outcome.",
		}, []string{"kind", "outcome"})

		CommandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fauxterm",
			Name:      "command_duration_seconds",
			Help:      "Histogram of command execution time.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"})

		WidgetLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fauxterm",
			Name:      "widget_page_loads_total",
			Help:      "Terminal pages served, labeled by the OS guessed from the user agent.",
		}, []string{"client_os"})

		prometheus.MustRegister(HTTPRequestsTotal, HTTPDuration, CommandsTotal, CommandDuration, WidgetLoads)
	})
}

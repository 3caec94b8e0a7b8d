// Package metrics exposes Prometheus collectors for the monitoring service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	checksTotal              *prometheus.CounterVec
	checkDurationSeconds     prometheus.Histogram
	fetchFallbacksTotal      prometheus.Counter
	summarizerFallbacksTotal prometheus.Counter
	notificationsTotal       *prometheus.CounterVec
	activeChecks             prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		checksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policydiff_checks_total",
				Help: "Total number of policy checks, labeled by terminal status.",
			},
			[]string{"status"},
		)

		checkDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "policydiff_check_duration_seconds",
				Help:    "Histogram of end-to-end single-policy check latencies.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		)

		fetchFallbacksTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "policydiff_fetch_fallbacks_total",
				Help: "Times the plain fetcher yielded too little content and the headless renderer took over.",
			},
		)

		summarizerFallbacksTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "policydiff_summarizer_fallbacks_total",
				Help: "Times the remote summarizer was unavailable and the local analysis was used.",
			},
		)

		notificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policydiff_notifications_total",
				Help: "Total notification deliveries, labeled by channel and outcome.",
			},
			[]string{"channel", "outcome"},
		)

		activeChecks = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "policydiff_active_checks",
				Help: "Number of policy checks currently in flight.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCheck records the terminal status and duration of one policy check.
func ObserveCheck(status string, duration time.Duration) {
	checksTotal.WithLabelValues(status).Inc()
	checkDurationSeconds.Observe(duration.Seconds())
}

// ObserveFetchFallback increments the headless-fallback counter.
func ObserveFetchFallback() {
	fetchFallbacksTotal.Inc()
}

// ObserveSummarizerFallback increments the local-analysis fallback counter.
func ObserveSummarizerFallback() {
	summarizerFallbacksTotal.Inc()
}

// ObserveNotification records one delivery attempt on a channel.
func ObserveNotification(channel string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	notificationsTotal.WithLabelValues(channel, outcome).Inc()
}

// IncActiveChecks increments the in-flight check gauge.
func IncActiveChecks() {
	activeChecks.Inc()
}

// DecActiveChecks decrements the in-flight check gauge.
func DecActiveChecks() {
	activeChecks.Dec()
}

// Package metrics exposes Prometheus collectors for the notifier service.
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
	eventsTotal             *prometheus.CounterVec
	deliveriesTotal         *prometheus.CounterVec
	deliveryDurationSeconds *prometheus.HistogramVec
	deliveriesDroppedTotal  prometheus.Counter
	jobProgressPercent      prometheus.Gauge
	jobActive               prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		eventsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "printpulse_events_total",
				Help: "Total lifecycle events emitted, labeled by type.",
			},
			[]string{"type"},
		)

		deliveriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "printpulse_webhook_deliveries_total",
				Help: "Total webhook delivery attempts, labeled by event type and outcome.",
			},
			[]string{"type", "outcome"},
		)

		deliveryDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "printpulse_webhook_delivery_duration_seconds",
				Help:    "Histogram of webhook delivery latencies, labeled by outcome.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"outcome"},
		)

		deliveriesDroppedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "printpulse_webhook_deliveries_dropped_total",
				Help: "Deliveries dropped because the dispatch queue was full.",
			},
		)

		jobProgressPercent = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "printpulse_job_progress_percent",
				Help: "Last reported percent of the active print job.",
			},
		)

		jobActive = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "printpulse_job_active",
				Help: "Whether a print job is currently being tracked (0 or 1).",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveEvent increments the event counter for the given type.
func ObserveEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}

// ObserveDelivery records one webhook delivery attempt.
func ObserveDelivery(eventType, outcome string, duration time.Duration) {
	deliveriesTotal.WithLabelValues(eventType, outcome).Inc()
	deliveryDurationSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveDropped adds to the dropped-deliveries counter.
func ObserveDropped(count int64) {
	if count > 0 {
		deliveriesDroppedTotal.Add(float64(count))
	}
}

// SetJobProgress updates the active job percent gauge.
func SetJobProgress(percent int) {
	jobProgressPercent.Set(float64(percent))
}

// SetJobActive flips the active-job gauge.
func SetJobActive(active bool) {
	if active {
		jobActive.Set(1)
		return
	}
	jobActive.Set(0)
}

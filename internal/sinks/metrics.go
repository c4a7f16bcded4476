package sinks

import (
	"github.com/printpulse/printpulse/internal/event"
	"github.com/printpulse/printpulse/internal/metrics"
)

// MetricsSink mirrors the event stream into Prometheus collectors.
type MetricsSink struct{}

// NewMetricsSink initializes the collectors and returns the sink.
func NewMetricsSink() *MetricsSink {
	metrics.Init()
	return &MetricsSink{}
}

// Notify updates the counters and job gauges for the event.
func (s *MetricsSink) Notify(evt event.Event) {
	metrics.ObserveEvent(string(evt.Type))
	switch evt.Type {
	case event.TypePrintStarted:
		metrics.SetJobActive(true)
		metrics.SetJobProgress(0)
	case event.TypeProgressUpdate:
		metrics.SetJobProgress(evt.Percent())
	case event.TypePrintEnded:
		metrics.SetJobActive(false)
	}
}

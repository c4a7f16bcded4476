// Package sinks implements event.Notifier targets that observe the event
// stream alongside webhook delivery, such as structured logging and
// Prometheus collectors.
package sinks

import (
	"go.uber.org/zap"

	"github.com/printpulse/printpulse/internal/event"
)

// LogSink emits a structured log line per event. It is useful during
// development or audits where the webhook endpoint is unavailable.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the notifier interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Notify logs the event using structured fields.
func (s *LogSink) Notify(evt event.Event) {
	fields := []zap.Field{
		zap.String("event_type", string(evt.Type)),
		zap.String("job_name", evt.JobName()),
		zap.String("plugin_version", evt.PluginVersion),
	}
	if p := evt.Percent(); p >= 0 {
		fields = append(fields, zap.Int("percent", p))
	}
	s.logger.Info("print lifecycle event", fields...)
}

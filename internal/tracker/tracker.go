// Package tracker converts host print-lifecycle signals into the webhook
// event stream. It buckets a monotonic progress fraction into integer percent
// steps and emits at most one event per newly reached percent.
package tracker

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/printpulse/printpulse/internal/event"
)

// Clock abstracts wall-clock time so tests can control elapsed durations.
type Clock interface {
	Now() time.Time
}

// fallbackJobName stands in when the host supplies an empty job name.
const fallbackJobName = "unknown"

// endedMessage matches the wording the host-facing contract established.
const endedMessage = "Print job ended or cancelled"

// Tracker owns the single active print job. All operations are cheap and
// never block or fail on the host path; events are handed to the registered
// notifiers in invocation order. Safe for concurrent callers.
type Tracker struct {
	clock     Clock
	logger    *zap.Logger
	notifiers []event.Notifier

	mu                  sync.Mutex
	printing            bool
	jobName             string
	startTime           time.Time
	lastReportedPercent int
}

// New constructs a Tracker that fans events out to the given notifiers.
func New(clock Clock, logger *zap.Logger, notifiers ...event.Notifier) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		clock:     clock,
		logger:    logger,
		notifiers: append([]event.Notifier(nil), notifiers...),
	}
}

// PrintStarted begins tracking a new job and emits a print_started event.
// Calling it while another job is active replaces that job without a
// synthetic print_ended for the discarded one; the old job simply stops
// reporting.
func (t *Tracker) PrintStarted(jobName string) {
	if jobName == "" {
		jobName = fallbackJobName
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.printing {
		t.logger.Warn("print started while another job is active",
			zap.String("previous_job", t.jobName),
			zap.String("job", jobName),
		)
	}
	t.printing = true
	t.jobName = jobName
	t.startTime = t.clock.Now()
	t.lastReportedPercent = -1
	t.notifyLocked(event.NewPrintStarted(jobName, t.startTime))
}

// Progress consumes a progress fraction in [0,1]. Out-of-range values are
// clamped and NaN is ignored. An event fires only when a new whole percent is
// reached; skipped intermediate percents are not backfilled, and samples at
// or below the last reported percent are no-ops.
func (t *Tracker) Progress(fraction float64) {
	if math.IsNaN(fraction) {
		return
	}
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.printing {
		return
	}
	percent := int(math.Floor(fraction * 100))
	if percent <= t.lastReportedPercent {
		return
	}
	t.lastReportedPercent = percent

	now := t.clock.Now()
	elapsed := now.Sub(t.startTime).Seconds()
	var remaining *float64
	if percent > 0 {
		est := elapsed * float64(100-percent) / float64(percent)
		remaining = &est
	}
	t.notifyLocked(event.NewProgressUpdate(t.jobName, percent, elapsed, remaining, now))
}

// PrintEnded emits a print_ended event and clears the active job. It is a
// no-op when no job is being tracked.
func (t *Tracker) PrintEnded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.printing {
		return
	}
	t.printing = false
	t.jobName = ""
	t.startTime = time.Time{}
	t.lastReportedPercent = -1
	t.notifyLocked(event.NewPrintEnded(endedMessage, t.clock.Now()))
}

// Active reports whether a job is currently being tracked.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.printing
}

// notifyLocked fans the event out under the tracker lock so emission order
// matches operation order. Notifiers must not block.
func (t *Tracker) notifyLocked(evt event.Event) {
	for _, n := range t.notifiers {
		if n == nil {
			continue
		}
		n.Notify(evt)
	}
}

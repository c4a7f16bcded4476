// Package monitor samples printer device state on a fixed interval and
// translates transitions into tracker calls, for hosts that expose polled
// state instead of push callbacks.
package monitor

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// defaultInterval matches the cadence the host integration established.
const defaultInterval = 5 * time.Second

// Job describes the device's active print job at poll time.
type Job struct {
	// Name is the file name identifying the job.
	Name string
	// Progress is a fraction in [0,1].
	Progress float64
}

// Device exposes the host printer state the poller samples. ActiveJob
// reports ok=false when no print is in flight; errors reflect transient
// device communication failures and are logged, not fatal.
type Device interface {
	ActiveJob() (Job, bool, error)
}

// Tracker is the subset of tracker operations the poller drives.
type Tracker interface {
	PrintStarted(jobName string)
	Progress(fraction float64)
	PrintEnded()
}

// Poller drives the tracker from periodic device samples. Poll is invoked
// from a single scheduler goroutine; Start/Stop manage that schedule.
type Poller struct {
	device   Device
	tracker  Tracker
	logger   *zap.Logger
	interval time.Duration

	scheduler *gocron.Scheduler

	printing bool
	jobName  string
}

// New constructs a Poller. A non-positive interval falls back to 5s.
func New(device Device, tracker Tracker, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		device:   device,
		tracker:  tracker,
		logger:   logger,
		interval: interval,
	}
}

// Start schedules the poll loop and returns once it is running.
func (p *Poller) Start() error {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(p.interval).Do(p.Poll); err != nil {
		return fmt.Errorf("schedule device poll: %w", err)
	}
	s.StartAsync()
	p.scheduler = s
	return nil
}

// Stop halts the schedule. In-flight webhook deliveries are unaffected.
func (p *Poller) Stop() {
	if p.scheduler != nil {
		p.scheduler.Stop()
	}
}

// Poll samples the device once and forwards any transition to the tracker.
// It is exported so in-process hosts can drive it from their own timer.
func (p *Poller) Poll() {
	job, ok, err := p.device.ActiveJob()
	if err != nil {
		p.logger.Warn("device poll failed", zap.Error(err))
		return
	}
	switch {
	case ok && !p.printing:
		p.printing = true
		p.jobName = job.Name
		p.tracker.PrintStarted(job.Name)
		p.tracker.Progress(job.Progress)
	case ok && job.Name != p.jobName:
		// The host swapped jobs between polls.
		p.jobName = job.Name
		p.tracker.PrintStarted(job.Name)
		p.tracker.Progress(job.Progress)
	case ok:
		p.tracker.Progress(job.Progress)
	case p.printing:
		p.printing = false
		p.jobName = ""
		p.tracker.PrintEnded()
	}
}

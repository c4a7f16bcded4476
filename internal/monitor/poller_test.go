package monitor

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeDevice returns scripted samples, one per Poll.
type fakeDevice struct {
	mu      sync.Mutex
	samples []sample
	idx     int
}

type sample struct {
	job Job
	ok  bool
	err error
}

func (d *fakeDevice) ActiveJob() (Job, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.idx >= len(d.samples) {
		return Job{}, false, nil
	}
	s := d.samples[d.idx]
	d.idx++
	return s.job, s.ok, s.err
}

// callRecorder records tracker invocations in order.
type callRecorder struct {
	calls []string
}

func (r *callRecorder) PrintStarted(jobName string) {
	r.calls = append(r.calls, "started:"+jobName)
}

func (r *callRecorder) Progress(fraction float64) {
	r.calls = append(r.calls, "progress")
}

func (r *callRecorder) PrintEnded() {
	r.calls = append(r.calls, "ended")
}

// TestPollDetectsJobAppearance checks the idle-to-printing transition.
func TestPollDetectsJobAppearance(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{samples: []sample{
		{ok: false},
		{job: Job{Name: "benchy.gcode", Progress: 0.1}, ok: true},
	}}
	rec := &callRecorder{}
	p := New(dev, rec, 0, nil)

	p.Poll()
	require.Empty(t, rec.calls)
	p.Poll()
	require.Equal(t, []string{"started:benchy.gcode", "progress"}, rec.calls)
}

// TestPollForwardsProgressWhilePrinting covers the steady-state self-loop.
func TestPollForwardsProgressWhilePrinting(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{samples: []sample{
		{job: Job{Name: "benchy.gcode", Progress: 0.1}, ok: true},
		{job: Job{Name: "benchy.gcode", Progress: 0.2}, ok: true},
		{job: Job{Name: "benchy.gcode", Progress: 0.3}, ok: true},
	}}
	rec := &callRecorder{}
	p := New(dev, rec, 0, nil)

	p.Poll()
	p.Poll()
	p.Poll()
	require.Equal(t, []string{"started:benchy.gcode", "progress", "progress", "progress"}, rec.calls)
}

// TestPollDetectsJobEnd checks the printing-to-idle transition.
func TestPollDetectsJobEnd(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{samples: []sample{
		{job: Job{Name: "benchy.gcode", Progress: 0.9}, ok: true},
		{ok: false},
		{ok: false},
	}}
	rec := &callRecorder{}
	p := New(dev, rec, 0, nil)

	p.Poll()
	p.Poll()
	p.Poll()
	require.Equal(t, []string{"started:benchy.gcode", "progress", "ended"}, rec.calls)
}

// TestPollDetectsJobSwap covers jobs replaced between polls without an idle
// sample in between.
func TestPollDetectsJobSwap(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{samples: []sample{
		{job: Job{Name: "first.gcode", Progress: 0.5}, ok: true},
		{job: Job{Name: "second.gcode", Progress: 0.1}, ok: true},
	}}
	rec := &callRecorder{}
	p := New(dev, rec, 0, nil)

	p.Poll()
	p.Poll()
	require.Equal(t, []string{
		"started:first.gcode", "progress",
		"started:second.gcode", "progress",
	}, rec.calls)
}

// steadyDevice always reports the same in-flight job.
type steadyDevice struct {
	job Job
}

func (d *steadyDevice) ActiveJob() (Job, bool, error) {
	return d.job, true, nil
}

// countingTracker counts progress samples and is safe for use from the
// scheduler goroutine.
type countingTracker struct {
	progress atomic.Int64
}

func (c *countingTracker) PrintStarted(string) {}

func (c *countingTracker) Progress(float64) {
	c.progress.Add(1)
}

func (c *countingTracker) PrintEnded() {}

// TestStartSchedulesPolls runs the real scheduler at a short interval and
// asserts samples keep reaching the tracker until Stop.
func TestStartSchedulesPolls(t *testing.T) {
	t.Parallel()

	dev := &steadyDevice{job: Job{Name: "benchy.gcode", Progress: 0.5}}
	rec := &countingTracker{}
	p := New(dev, rec, 20*time.Millisecond, nil)

	require.NoError(t, p.Start())
	require.Eventually(t, func() bool {
		return rec.progress.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	p.Stop()
	time.Sleep(50 * time.Millisecond) // let an in-flight poll finish
	after := rec.progress.Load()
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, after, rec.progress.Load())
}

// TestPollLogsDeviceErrorsAndContinues asserts a failing sample does not
// change state or reach the tracker.
func TestPollLogsDeviceErrorsAndContinues(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{samples: []sample{
		{job: Job{Name: "benchy.gcode", Progress: 0.5}, ok: true},
		{err: errors.New("serial port busy")},
		{job: Job{Name: "benchy.gcode", Progress: 0.6}, ok: true},
	}}
	rec := &callRecorder{}
	core, logs := observer.New(zap.WarnLevel)
	p := New(dev, rec, 0, zap.New(core))

	p.Poll()
	p.Poll()
	p.Poll()

	require.Equal(t, []string{"started:benchy.gcode", "progress", "progress"}, rec.calls)
	require.Equal(t, 1, logs.FilterMessage("device poll failed").Len())
}

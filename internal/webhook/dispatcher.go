// Package webhook delivers events to the configured endpoint as JSON HTTP
// POSTs without ever blocking the caller. Failures are logged and dropped;
// there are no retries and no delivery-order guarantee across in-flight
// requests.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printpulse/printpulse/internal/event"
	"github.com/printpulse/printpulse/internal/metrics"
	"github.com/printpulse/printpulse/internal/store"
	"github.com/printpulse/printpulse/internal/version"
)

// Config controls delivery behavior.
//   - URL: the webhook endpoint (required).
//   - Timeout: per-request bound (default 10s).
//   - UserAgent: request header (default "printpulse/<version>").
//   - QueueDepth: size of the internal channel (default 64).
//   - Workers: delivery goroutines (default 4).
//   - Logger: optional structured logger used for delivery outcomes.
//   - Recorder: optional delivery-history writer.
type Config struct {
	URL        string
	Timeout    time.Duration
	UserAgent  string
	QueueDepth int
	Workers    int
	Logger     *zap.Logger
	Recorder   store.DeliveryRecorder
}

const (
	defaultTimeout    = 10 * time.Second
	defaultQueueDepth = 64
	defaultWorkers    = 4
	recordTimeout     = 3 * time.Second
	dropLogInterval   = 5 * time.Second
)

// Dispatcher posts events to a single webhook URL from a fixed worker pool.
// It is safe for concurrent use and Send never blocks.
type Dispatcher struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger

	queue  chan event.Event
	stopCh chan struct{}
	wg     sync.WaitGroup

	closed      atomic.Bool
	closeOnce   sync.Once
	dropped     atomic.Int64
	dropLimiter rateLimiter
}

// New validates the config, starts the worker pool, and returns a Dispatcher
// ready to accept events.
func New(cfg Config) (*Dispatcher, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("invalid webhook url %q", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "printpulse/" + version.Version
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = defaultQueueDepth
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	d := &Dispatcher{
		cfg:         cfg,
		client:      &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
		queue:       make(chan event.Event, cfg.QueueDepth),
		stopCh:      make(chan struct{}),
		dropLimiter: rateLimiter{interval: dropLogInterval},
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d, nil
}

// Notify implements event.Notifier.
func (d *Dispatcher) Notify(evt event.Event) {
	d.Send(evt)
}

// Send enqueues an event for delivery. It never blocks; if the queue is full
// the delivery is dropped and a rate-limited warning is logged.
func (d *Dispatcher) Send(evt event.Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if err := evt.Validate(); err != nil {
		d.logger.Debug("discarding invalid event", zap.Error(err))
		return
	}
	select {
	case d.queue <- evt:
	default:
		d.dropped.Add(1)
		metrics.ObserveDropped(1)
		if d.dropLimiter.Allow(time.Now()) {
			count := d.dropped.Swap(0)
			d.logger.Warn("webhook deliveries dropped due to backpressure",
				zap.Int64("dropped", count))
		}
	}
}

// Close stops accepting events and waits for the workers to drain queued
// deliveries, up to the ctx deadline. Deliveries still pending when the
// deadline expires are abandoned. Safe to call multiple times.
func (d *Dispatcher) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.stopCh)
	})
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("webhook dispatcher close wait: %w", ctx.Err())
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case evt := <-d.queue:
			d.deliver(evt)
		case <-d.stopCh:
			for {
				select {
				case evt := <-d.queue:
					d.deliver(evt)
				default:
					return
				}
			}
		}
	}
}

// deliver makes exactly one attempt. Every failure mode ends here: logged,
// counted, optionally recorded, never surfaced.
func (d *Dispatcher) deliver(evt event.Event) {
	start := time.Now()
	code, err := d.post(evt)
	dur := time.Since(start)

	outcome := store.OutcomeSent
	if err != nil {
		outcome = store.OutcomeFailed
		d.logger.Warn("webhook delivery failed",
			zap.String("event_type", string(evt.Type)),
			zap.Duration("dur", dur),
			zap.Error(err),
		)
	} else {
		d.logger.Debug("webhook delivered",
			zap.String("event_type", string(evt.Type)),
			zap.Int("status", code),
			zap.Duration("dur", dur),
		)
	}
	metrics.ObserveDelivery(string(evt.Type), string(outcome), dur)
	d.record(evt, code, outcome, err)
}

func (d *Dispatcher) post(evt event.Event) (int, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return 0, fmt.Errorf("marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", d.cfg.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func (d *Dispatcher) record(evt event.Event, code int, outcome store.Outcome, deliveryErr error) {
	if d.cfg.Recorder == nil {
		return
	}
	rec := store.DeliveryRecord{
		ID:          uuid.New(),
		EventType:   string(evt.Type),
		JobName:     evt.JobName(),
		Percent:     evt.Percent(),
		AttemptedAt: time.Now().UTC(),
		Outcome:     outcome,
		StatusCode:  code,
	}
	if deliveryErr != nil {
		msg := deliveryErr.Error()
		rec.Error = &msg
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := d.cfg.Recorder.RecordDelivery(ctx, rec); err != nil {
		d.logger.Warn("delivery history write failed", zap.Error(err))
	}
}

type rateLimiter struct {
	interval time.Duration
	last     atomic.Int64
}

func (r *rateLimiter) Allow(now time.Time) bool {
	if r == nil || r.interval <= 0 {
		return true
	}
	nano := now.UnixNano()
	last := r.last.Load()
	if nano-last < r.interval.Nanoseconds() {
		return false
	}
	return r.last.CompareAndSwap(last, nano)
}

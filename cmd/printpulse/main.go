// Package main wires together the printpulse notifier service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/printpulse/printpulse/internal/api"
	"github.com/printpulse/printpulse/internal/clock/system"
	"github.com/printpulse/printpulse/internal/config"
	"github.com/printpulse/printpulse/internal/event"
	"github.com/printpulse/printpulse/internal/logging"
	"github.com/printpulse/printpulse/internal/metrics"
	"github.com/printpulse/printpulse/internal/sinks"
	"github.com/printpulse/printpulse/internal/storage/postgres"
	"github.com/printpulse/printpulse/internal/store"
	"github.com/printpulse/printpulse/internal/tracker"
	"github.com/printpulse/printpulse/internal/webhook"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	var history store.DeliveryRepository
	var recorder store.DeliveryRecorder
	if cfg.History.DSN != "" {
		hs, err := postgres.NewDeliveryStore(ctx, postgres.DeliveryStoreConfig{
			DSN:   cfg.History.DSN,
			Table: cfg.History.Table,
		})
		if err != nil {
			logger.Fatal("delivery history init failed", zap.Error(err))
		}
		defer hs.Close()
		history = hs
		recorder = hs
	}

	dispatcher, err := webhook.New(webhook.Config{
		URL:        cfg.Webhook.URL,
		Timeout:    cfg.Webhook.Timeout(),
		UserAgent:  cfg.Webhook.UserAgent,
		QueueDepth: cfg.Webhook.QueueDepth,
		Workers:    cfg.Webhook.Workers,
		Logger:     logger,
		Recorder:   recorder,
	})
	if err != nil {
		logger.Fatal("webhook dispatcher init failed", zap.Error(err))
	}

	notifiers := []event.Notifier{
		dispatcher,
		sinks.NewLogSink(logger),
		sinks.NewMetricsSink(),
	}
	tr := tracker.New(system.New(), logger, notifiers...)

	if cfg.Monitor.Enabled {
		// The standalone binary has no device to poll; hosts that do embed
		// monitor.Poller directly and drive the tracker in process.
		logger.Warn("monitor.enabled is ignored in standalone mode; progress arrives via the HTTP API")
	}

	srv := api.NewServer(tr, history, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			stop()
		}
	}()
	logger.Info("printpulse started",
		zap.Int("port", cfg.Server.Port),
		zap.String("webhook_url", cfg.Webhook.URL),
		zap.Bool("history_enabled", history != nil),
	)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", zap.Error(err))
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("webhook dispatcher close failed", zap.Error(err))
	}
	logger.Info("printpulse stopped")
}

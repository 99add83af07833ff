// Package app assembles the dispatch queue, batch optimizer and pack tracker
// into a running service from the configuration.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	apiqueue "github.com/parcelops/dispatchd/api/queue"
	"github.com/parcelops/dispatchd/config"
	"github.com/parcelops/dispatchd/core/batch"
	coremetrics "github.com/parcelops/dispatchd/core/metrics"
	"github.com/parcelops/dispatchd/core/pack"
	"github.com/parcelops/dispatchd/core/queue"
	"github.com/parcelops/dispatchd/infra/csvload"
	"github.com/parcelops/dispatchd/infra/logger"
	"github.com/parcelops/dispatchd/infra/metrics"
	"github.com/parcelops/dispatchd/infra/mqtt"
	"github.com/parcelops/dispatchd/internal/eventbus"
)

// Service wires the queue manager, optimizer and tracker behind the HTTP API.
type Service struct {
	Queue     *queue.Manager
	Optimizer *batch.Optimizer
	Tracker   *pack.Tracker

	cfg       *config.Config
	bus       *eventbus.Bus
	log       logger.Logger
	srv       *http.Server
	publisher *mqtt.Publisher
	sink      coremetrics.MetricsSink
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	if err := metrics.RegisterBuiltinSinks(); err != nil {
		return nil, fmt.Errorf("register sinks: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}

	bus := eventbus.New()
	mgr, err := queue.NewManager(cfg.Scoring.Scorer(), logg, sink, bus)
	if err != nil {
		return nil, fmt.Errorf("queue manager: %w", err)
	}
	opt, err := batch.NewOptimizer(cfg.Batch, logg, sink, bus)
	if err != nil {
		return nil, fmt.Errorf("batch optimizer: %w", err)
	}
	tracker, err := pack.NewTracker(mgr, logg, sink, bus)
	if err != nil {
		return nil, fmt.Errorf("pack tracker: %w", err)
	}

	svc := &Service{
		Queue:     mgr,
		Optimizer: opt,
		Tracker:   tracker,
		cfg:       cfg,
		bus:       bus,
		log:       logg,
		sink:      sink,
	}

	if cfg.Orders.File != "" {
		if err := svc.preloadOrders(cfg.Orders.File); err != nil {
			return nil, err
		}
	}
	svc.restoreSnapshot(cfg.Snapshot.Path)

	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPublisher(cfg.MQTT.Config, bus)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
	}

	handler := apiqueue.NewHandler(mgr, opt, tracker, logg)
	svc.srv = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return svc, nil
}

func (s *Service) preloadOrders(path string) error {
	loader := csvload.New(s.log)
	orders, report, err := loader.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	s.Queue.LoadOrders(orders)
	s.Queue.Recompute()
	s.log.Infof("preloaded %d orders from %s (%d rows, %d skipped)",
		report.Loaded, path, report.Rows, report.Skipped)
	return nil
}

// restoreSnapshot recovers pack sessions from a previous run. A missing file
// is a fresh start, not an error.
func (s *Service) restoreSnapshot(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warnf("read snapshot %s: %v", path, err)
		}
		return
	}
	var snap pack.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warnf("decode snapshot %s: %v", path, err)
		return
	}
	s.Tracker.RestoreSnapshot(snap)
	s.log.Infof("restored %d active pack sessions from %s", len(snap.Active), path)
}

func (s *Service) saveSnapshot(path string) {
	data, err := json.MarshalIndent(s.Tracker.ExportSnapshot(), "", "  ")
	if err != nil {
		s.log.Errorf("encode snapshot: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.log.Errorf("write snapshot %s: %v", path, err)
	}
}

// Run starts the HTTP listener and the snapshot loop, blocking until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("dashboard API listening on %s", s.cfg.HTTP.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	interval := s.cfg.Snapshot.IntervalSeconds
	if interval <= 0 {
		interval = 60
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.saveSnapshot(s.cfg.Snapshot.Path)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case <-ticker.C:
			s.saveSnapshot(s.cfg.Snapshot.Path)
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.publisher != nil {
		s.publisher.Close()
	}
	s.bus.Close()
	if closer, ok := s.sink.(interface{ Close() }); ok {
		closer.Close()
	}
	return nil
}

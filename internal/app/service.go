// Package service wires the store, matching engine, notification pipeline and
// scheduler together and exposes the operations the HTTP API and CLI need.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/expanders360/vendormatch/internal/adapters/mq/queue"
	"github.com/expanders360/vendormatch/internal/adapters/mq/worker"
	"github.com/expanders360/vendormatch/internal/adapters/notify"
	"github.com/expanders360/vendormatch/internal/adapters/repository"
	"github.com/expanders360/vendormatch/internal/domain/analytics"
	"github.com/expanders360/vendormatch/internal/domain/matching"
	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/expanders360/vendormatch/internal/domain/sla"
	"github.com/expanders360/vendormatch/internal/domain/types"
	"github.com/expanders360/vendormatch/internal/scheduler"
	"github.com/expanders360/vendormatch/pkg/logger"
	"github.com/expanders360/vendormatch/pkg/metrics"
)

// ErrNotStarted is returned by operations that need a started service.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the vendor matching system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	queue     *queue.InMemoryQueue
	sender    worker.Sender
	pool      *worker.Pool
	notifier  *notify.Dispatcher
	engine    *matching.Engine
	scanner   *sla.Scanner
	analytics *analytics.Service
	scheduler *scheduler.Scheduler

	// Configuration
	dbPath           string
	storeTimeout     time.Duration
	queueSize        int
	workerCount      int
	adminEmail       string
	fromEmail        string
	natsURL          string
	natsPrefix       string
	schedulerEnabled bool
	dailyRefreshSpec string
	slaScanSpec      string
	location         *time.Location
	slaLookback      time.Duration
	analyticsWindow  time.Duration
	now              func() time.Time

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:           "vendormatch.db",
		storeTimeout:     5 * time.Second,
		queueSize:        1024,
		workerCount:      2,
		schedulerEnabled: true,
		dailyRefreshSpec: scheduler.DefaultDailyRefreshSpec,
		slaScanSpec:      scheduler.DefaultSLAScanSpec,
		location:         time.UTC,
		slaLookback:      7 * 24 * time.Hour,
		analyticsWindow:  30 * 24 * time.Hour,
		now:              time.Now,
		logger:           logger.Default().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store and starts the workers and scheduler. If Start fails,
// everything it opened is closed again; an injected store is left to its owner.
func (s *Service) Start(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting vendor matching service...")

	var undo []func()
	defer func() {
		if err == nil {
			return
		}
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		s.logger.Error(ctx, "vendor matching service failed to start", logger.Error(err))
	}()

	if s.store == nil {
		store, err := repository.NewSQLiteStore(s.dbPath, repository.WithLogger(s.logger.Named("store")))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return fmt.Errorf("migrate store: %w", err)
		}
		s.store = store
		undo = append(undo, func() {
			_ = store.Close()
			s.store = nil
		})
		s.logger.Info(ctx, "using sqlite store", logger.String("path", s.dbPath))
	}

	if s.sender == nil {
		if s.natsURL != "" {
			sender, err := notify.NewNATSSender(s.natsURL, s.natsPrefix)
			if err != nil {
				return fmt.Errorf("notification transport: %w", err)
			}
			s.sender = sender
			undo = append(undo, func() {
				_ = sender.Close()
				s.sender = nil
			})
			s.logger.Info(ctx, "notifications go to nats", logger.String("url", s.natsURL))
		} else {
			s.sender = notify.NewLogSender(s.logger.Named("notify"))
			s.logger.Warn(ctx, "no notification transport configured, logging notifications instead")
		}
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.sender)
	undo = append(undo, func() {
		s.pool = nil
		s.queue = nil
	})

	s.notifier = notify.NewDispatcher(s.queue,
		notify.WithAdminEmail(s.adminEmail),
		notify.WithFromEmail(s.fromEmail),
		notify.WithClock(s.now),
	)
	s.engine = matching.NewEngine(s.store,
		matching.WithNotifier(s.notifier),
		matching.WithStoreTimeout(s.storeTimeout),
	)
	s.scanner = sla.NewScanner(s.store,
		sla.WithNotifier(s.notifier),
		sla.WithLookback(s.slaLookback),
		sla.WithClock(s.now),
	)
	s.analytics = analytics.NewService(s.store,
		analytics.WithTopWindow(s.analyticsWindow),
		analytics.WithClock(s.now),
	)

	s.scheduler = scheduler.New(scheduler.WithLocation(s.location))
	undo = append(undo, func() { s.scheduler = nil })
	for _, job := range []scheduler.Job{
		scheduler.NewDailyRefreshJob(s.dailyRefreshSpec, s.store, s.engine, nil),
		scheduler.NewSLAScanJob(s.slaScanSpec, s.scanner, nil),
	} {
		if err := s.scheduler.Register(job); err != nil {
			return fmt.Errorf("register %s: %w", job.Name, err)
		}
	}

	// Nothing below can fail, so the pool never needs unwinding.
	s.pool.Start(context.WithoutCancel(ctx))
	if s.schedulerEnabled {
		s.scheduler.Start()
	}

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "vendor matching service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("scheduler", s.schedulerEnabled),
	)
	return nil
}

// Stop stops the scheduler, drains pending notifications and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping vendor matching service...")

	var errs []error
	if err := s.scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if closer, ok := s.sender.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sender: %w", err))
		}
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "vendor matching service stopped")
	return errors.Join(errs...)
}

func (s *Service) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// RebuildMatches recomputes the matches of one project.
func (s *Service) RebuildMatches(ctx context.Context, projectID int64) ([]model.MatchDetail, error) {
	return s.engine.RebuildMatches(ctx, projectID)
}

// ListMatchesByProject returns the project's matches, best score first.
func (s *Service) ListMatchesByProject(ctx context.Context, projectID int64) ([]model.MatchDetail, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListMatchesByProject(ctx, projectID)
}

// ListMatches returns every match, newest first.
func (s *Service) ListMatches(ctx context.Context) ([]model.MatchDetail, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.store.ListMatches(ctx)
}

// CreateClient validates and stores c.
func (s *Service) CreateClient(ctx context.Context, c *model.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.store.CreateClient(ctx, c)
}

// GetClient returns one client.
func (s *Service) GetClient(ctx context.Context, id int64) (model.Client, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.store.GetClient(ctx, id)
}

// ListClients returns every client.
func (s *Service) ListClients(ctx context.Context) ([]model.Client, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.store.ListClients(ctx)
}

// CreateProject validates and stores p.
func (s *Service) CreateProject(ctx context.Context, p *model.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.store.CreateProject(ctx, p)
}

// GetProject returns one project.
func (s *Service) GetProject(ctx context.Context, id int64) (model.Project, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.store.GetProject(ctx, id)
}

// ListProjects returns projects matching f.
func (s *Service) ListProjects(ctx context.Context, f repository.ProjectFilter) ([]model.Project, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.store.ListProjects(ctx, f)
}

// UpdateProject validates and saves p.
func (s *Service) UpdateProject(ctx context.Context, p *model.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.store.UpdateProject(ctx, p)
}

// DeleteProject removes a project and its matches.
func (s *Service) DeleteProject(ctx context.Context, id int64) error {
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.store.DeleteProject(ctx, id)
}

// CreateVendor validates and stores v.
func (s *Service) CreateVendor(ctx context.Context, v *model.Vendor) error {
	if err := v.Validate(); err != nil {
		return err
	}
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.store.CreateVendor(ctx, v)
}

// GetVendor returns one vendor.
func (s *Service) GetVendor(ctx context.Context, id int64) (model.Vendor, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.store.GetVendor(ctx, id)
}

// ListVendors returns vendors, only active ones if activeOnly.
func (s *Service) ListVendors(ctx context.Context, activeOnly bool) ([]model.Vendor, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.store.ListVendors(ctx, activeOnly)
}

// UpdateVendor validates and saves v.
func (s *Service) UpdateVendor(ctx context.Context, v *model.Vendor) error {
	if err := v.Validate(); err != nil {
		return err
	}
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.store.UpdateVendor(ctx, v)
}

// DeleteVendor removes a vendor and its matches.
func (s *Service) DeleteVendor(ctx context.Context, id int64) error {
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.store.DeleteVendor(ctx, id)
}

// TopVendorsByCountry returns the per-country vendor ranking.
func (s *Service) TopVendorsByCountry(ctx context.Context) ([]types.CountryTopVendors, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.analytics.TopVendorsByCountry(ctx)
}

// GeneralAnalytics returns system-wide totals.
func (s *Service) GeneralAnalytics(ctx context.Context) (types.GeneralAnalytics, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	return s.analytics.General(ctx)
}

// ScanSLA runs one SLA compliance pass immediately.
func (s *Service) ScanSLA(ctx context.Context) (sla.Report, error) {
	return s.scanner.Scan(ctx)
}

// RunJob triggers a scheduled job by name.
func (s *Service) RunJob(ctx context.Context, name string) error {
	return s.scheduler.RunNow(ctx, name)
}

// Jobs lists the scheduled jobs.
func (s *Service) Jobs() []scheduler.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Entries()
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	s.mu.RLock()
	store := s.store
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	ctx, cancel := s.call(ctx)
	defer cancel()
	return store.Ping(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"scheduler":   s.schedulerEnabled,
	}

	if s.started {
		ctx := context.Background()
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["uptimeSeconds"] = int64(s.now().Sub(s.startedAt).Seconds())
		stats["jobs"] = s.scheduler.Entries()
		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}

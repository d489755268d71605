// Package service wires the candidate store, scoring, notification and
// background reassessment into the operations used by the HTTP API and CLI.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/skilltier/internal/adapters/mq/queue"
	"github.com/okian/skilltier/internal/adapters/mq/worker"
	"github.com/okian/skilltier/internal/adapters/notify"
	"github.com/okian/skilltier/internal/adapters/repository"
	"github.com/okian/skilltier/internal/domain/analytics"
	"github.com/okian/skilltier/internal/domain/dedupe"
	"github.com/okian/skilltier/internal/domain/scoring"
	"github.com/okian/skilltier/pkg/logger"
	"github.com/okian/skilltier/pkg/metrics"
)

// Default service configuration.
const (
	defaultQueueSize       = 1024
	defaultPageSize        = 10
	defaultMaxPageSize     = 100
	notifyTimeout          = 10 * time.Second
	systemMetricsInterval  = 10 * time.Second
	defaultShutdownTimeout = 30 * time.Second
)

// Service implements candidate registration, assessment and reporting.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	notifier  notify.Notifier
	analytics *analytics.Aggregator
	deduper   dedupe.Deduper
	queue     queue.Queue
	pool      *worker.Pool

	// Configuration
	multiplier      float64
	workerCount     int
	queueSize       int
	defaultPageSize int
	maxPageSize     int
	now             func() time.Time

	// State
	started bool
	stopCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the candidate store. The default is an in-memory store.
func WithStore(s repository.Store) Option {
	return func(svc *Service) {
		if s != nil {
			svc.store = s
		}
	}
}

// WithNotifier sets the notification sink. The default logs messages.
func WithNotifier(n notify.Notifier) Option {
	return func(svc *Service) {
		if n != nil {
			svc.notifier = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// WithExperienceMultiplier sets the multiplier used when a caller gives none.
func WithExperienceMultiplier(m float64) Option {
	return func(svc *Service) {
		if m >= 0 {
			svc.multiplier = m
		}
	}
}

// WithWorkerCount sets the number of background assessment workers.
func WithWorkerCount(count int) Option {
	return func(svc *Service) {
		if count > 0 {
			svc.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the background assessment queue.
func WithQueueSize(size int) Option {
	return func(svc *Service) {
		if size > 0 {
			svc.queueSize = size
		}
	}
}

// WithPageSizes sets the default and maximum candidate page size.
func WithPageSizes(def, max int) Option {
	return func(svc *Service) {
		if def > 0 {
			svc.defaultPageSize = def
		}
		if max > 0 {
			svc.maxPageSize = max
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		if now != nil {
			svc.now = now
		}
	}
}

// New constructs a Service. Candidate, skill, assessment and analytics
// operations work immediately; background reassessment needs Start.
func New(opts ...Option) *Service {
	s := &Service{
		multiplier:      scoring.DefaultExperienceMultiplier,
		workerCount:     runtime.NumCPU(),
		queueSize:       defaultQueueSize,
		defaultPageSize: defaultPageSize,
		maxPageSize:     defaultMaxPageSize,
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.NewNop()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.logger)
	}
	if s.maxPageSize < s.defaultPageSize {
		s.maxPageSize = s.defaultPageSize
	}
	s.analytics = analytics.NewAggregator(s.store)
	s.deduper = dedupe.NewInMemoryDeduper()
	return s
}

// Start launches the background reassessment workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting assessment service...")

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, worker.HandlerFunc(s.handleJob),
		worker.WithDeduper(s.deduper),
		worker.WithLogger(s.logger),
	)
	s.pool.Start(context.WithoutCancel(ctx))
	s.stopCh = make(chan struct{})
	go s.collectSystemMetrics(s.stopCh)

	if n, err := s.store.CountCandidates(ctx); err == nil {
		metrics.UpdateTotalCandidates(n)
	}

	s.started = true
	s.logger.Info(ctx, "assessment service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Float64("experienceMultiplier", s.multiplier),
	)
	return nil
}

// Stop drains the reassessment queue and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	if s.started {
		s.logger.Info(ctx, "stopping assessment service...")
		shutdownCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
		if err := s.pool.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
		cancel()
		close(s.stopCh)
		s.started = false
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "closing store", logger.Error(err))
	}
	s.logger.Info(ctx, "assessment service stopped")
}

func (s *Service) collectSystemMetrics(stop <-chan struct{}) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()
	for {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		metrics.UpdateSystemMemoryUsage(ms.HeapAlloc)
		metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":              s.started,
		"workerCount":          s.workerCount,
		"queueSize":            s.queueSize,
		"experienceMultiplier": s.multiplier,
		"pendingAssessments":   s.deduper.Size(),
	}
	if n, err := s.store.CountCandidates(ctx); err == nil {
		stats["totalCandidates"] = n
		metrics.UpdateTotalCandidates(n)
	}
	if s.started {
		stats["queueLength"] = s.queue.Len()
		stats["workers"] = s.pool.Stats()
		metrics.UpdateQueueSize(s.queue.Len())
	}
	return stats
}

func (s *Service) refreshCandidateGauge(ctx context.Context) {
	if n, err := s.store.CountCandidates(ctx); err == nil {
		metrics.UpdateTotalCandidates(n)
	}
}

// Package app provides the core service that implements the
// dependencies required by the HTTP API and the batch seed runner.
package app

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	eventqueue "github.com/okian/starseed/internal/adapters/mq/queue"
	workerpool "github.com/okian/starseed/internal/adapters/mq/worker"
	"github.com/okian/starseed/internal/adapters/repository"
	"github.com/okian/starseed/internal/adapters/sink"
	"github.com/okian/starseed/internal/adapters/source"
	"github.com/okian/starseed/internal/domain/dedupe"
	"github.com/okian/starseed/internal/domain/model"
	"github.com/okian/starseed/internal/domain/seed"
	"github.com/okian/starseed/internal/domain/window"
	"github.com/okian/starseed/pkg/logger"
	"github.com/okian/starseed/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize    = 100000
	defaultDedupeSize   = 50000
	defaultShardCount   = 8
	defaultMinStars     = 20
	defaultMaxSeedLimit = 1000
)

// Service implements the seed-generation pipeline: ingest, aggregate,
// materialize.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	eventQueue eventqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	shardCount   int
	window       window.Window
	minStars     int
	maxSeedLimit int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of aggregation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the delivery-id deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the number of aggregate store shards.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithWindow sets the aggregation window.
func WithWindow(w window.Window) Option {
	return func(s *Service) {
		s.window = w
	}
}

// WithMinStars sets the default activity threshold for seed clusters.
func WithMinStars(minStars int) Option {
	return func(s *Service) {
		if minStars > 0 {
			s.minStars = minStars
		}
	}
}

// WithMaxSeedLimit caps the limit accepted by seed queries.
func WithMaxSeedLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxSeedLimit = limit
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration. The default
// window covers the trailing 180 days, mirroring the campaign horizon
// the detection pipeline is tuned for.
func New(opts ...Option) *Service {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    defaultQueueSize,
		dedupeSize:   defaultDedupeSize,
		shardCount:   defaultShardCount,
		window:       window.Window{Start: now.AddDate(0, 0, -180), End: now.AddDate(0, 0, 1)},
		minStars:     defaultMinStars,
		maxSeedLimit: defaultMaxSeedLimit,
		logger:       nil, // resolved on Start
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the streaming ingest components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting seed service...")

	s.store = repository.NewShardedStore(ctx, repository.WithShardCount(s.shardCount))
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.window, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "seed service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("shards", s.shardCount),
		logger.String("window", s.window.String()),
		logger.Int("minStars", s.minStars),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping seed service...")

	if q, ok := s.eventQueue.(*eventqueue.InMemoryQueue); ok {
		_ = q.Close()
	}
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	s.started = false
	s.logger.Info(context.Background(), "seed service stopped")
}

// SeenAndRecord atomically checks if a delivery id was seen and records
// it if not. Returns true if it was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord removes a delivery id from the seen set, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of recorded delivery ids.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a star event for asynchronous aggregation.
func (s *Service) Enqueue(ctx context.Context, e model.StarEvent) bool {
	s.logger.Debug(ctx, "received star event",
		logger.String("actor", e.Actor),
		logger.String("repo", e.RepoName),
	)
	return s.eventQueue.Enqueue(ctx, e)
}

// Seeds materializes seed clusters from the current aggregate state.
// minStars of zero uses the configured threshold; limit of zero means
// no truncation up to the configured cap.
func (s *Service) Seeds(ctx context.Context, minStars, limit int) ([]model.SeedCluster, error) {
	if minStars == 0 {
		minStars = s.minStars
	}
	if limit == 0 || limit > s.maxSeedLimit {
		limit = s.maxSeedLimit
	}

	start := time.Now()
	aggregates := s.store.Snapshot(ctx)
	clusters := seed.Materialize(aggregates, minStars)
	metrics.RecordSeedRun(
		float64(time.Since(start).Milliseconds()),
		len(clusters),
		len(aggregates)-len(clusters),
	)
	metrics.UpdateReposAggregated(len(aggregates))

	if len(clusters) > limit {
		clusters = clusters[:limit]
	}
	return clusters, nil
}

// RepoAggregate returns the running aggregate for one repository.
func (s *Service) RepoAggregate(ctx context.Context, repoName string) (model.RepoAggregate, error) {
	return s.store.Get(ctx, repoName)
}

// Run executes one batch seed generation: stream events from src,
// aggregate, and write the resulting clusters to out. It is standalone
// and does not require Start.
func (s *Service) Run(ctx context.Context, src source.Source, out io.Writer) error {
	if s.logger == nil {
		s.logger = logger.Get()
	}
	runID := uuid.NewString()
	start := time.Now()
	s.logger.Info(ctx, "starting seed run",
		logger.String("runID", runID),
		logger.String("window", s.window.String()),
		logger.Int("minStars", s.minStars),
	)

	groups := make(map[string]*seed.Accumulator)
	scanned := 0
	err := src.Scan(ctx, s.window, func(e model.StarEvent) error {
		if err := seed.Validate(e); err != nil {
			metrics.RecordEventMalformed()
			return err
		}
		scanned++
		acc := groups[e.RepoName]
		if acc == nil {
			acc = &seed.Accumulator{}
			groups[e.RepoName] = acc
		}
		acc.Observe(e.StarredAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed run %s: %w", runID, err)
	}

	aggregates := make([]model.RepoAggregate, 0, len(groups))
	for repo, acc := range groups {
		aggregates = append(aggregates, acc.Aggregate(repo))
	}
	clusters := seed.Materialize(aggregates, s.minStars)

	if err := sink.NewWriter(out).WriteAll(ctx, clusters); err != nil {
		return fmt.Errorf("seed run %s: %w", runID, err)
	}

	durationMs := float64(time.Since(start).Milliseconds())
	metrics.RecordSeedRun(durationMs, len(clusters), len(aggregates)-len(clusters))
	s.logger.Info(ctx, "seed run finished",
		logger.String("runID", runID),
		logger.Int("events", scanned),
		logger.Int("repos", len(aggregates)),
		logger.Int("clusters", len(clusters)),
		logger.Float64("durationMs", durationMs),
	)
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"window":      s.window.String(),
		"minStars":    s.minStars,
	}

	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		totalRepos := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalRepos"] = totalRepos

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateReposAggregated(totalRepos)
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}

// Package worker defines the aggregation workers that fold queued star
// events into the per-repository accumulator store.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/starseed/internal/domain/model"
	"github.com/okian/starseed/internal/domain/seed"
	"github.com/okian/starseed/internal/domain/window"
	"github.com/okian/starseed/pkg/logger"
	"github.com/okian/starseed/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
)

// Event abstracts what workers read off the queue.
type Event = model.StarEvent

// Applier folds one star event into the aggregate state.
type Applier interface {
	Apply(ctx context.Context, e model.StarEvent) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker consumes events and applies them to the aggregate store.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)
}

// InMemoryWorker implements Worker for in-process aggregation.
type InMemoryWorker struct {
	queue   Queue
	applier Applier
	window  window.Window
	name    string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, w window.Window, applier Applier, opts ...Option) *InMemoryWorker {
	wk := &InMemoryWorker{
		queue:    queue,
		applier:  applier,
		window:   w,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(wk)
	}

	if wk.name != "worker" {
		wk.logger = wk.logger.Named(wk.name)
	}
	return wk
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing event", logger.Error(err))
			}
		}
	}
}

// processEvent filters one event by the window and folds it into the store.
func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := seed.Validate(event); err != nil {
		metrics.RecordEventMalformed()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "malformed_event")
		return fmt.Errorf("dropping event from %s: %w", event.Actor, err)
	}

	if !w.window.Contains(event.StarredAt) {
		metrics.RecordEventOutsideWindow()
		w.logger.Debug(ctx, "event outside window",
			logger.String("repo", event.RepoName),
			logger.String("window", w.window.String()),
		)
		return nil
	}

	if err := w.applier.Apply(ctx, event); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "apply_error")
		return fmt.Errorf("aggregate apply failed for %s: %w", event.RepoName, err)
	}

	metrics.RecordEventIngested()
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool draining queue into applier.
func NewPool(workerCount int, queue Queue, w window.Window, applier Applier) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			w,
			applier,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	select {
	case <-p.shutdown:
		// already stopped
		return
	default:
		close(p.shutdown)
	}

	for _, worker := range p.workers {
		select {
		case <-worker.shutdown:
		default:
			close(worker.shutdown)
		}
	}

	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// worker finished
		case <-time.After(workerShutdownTimeout):
			p.logger.Warn(context.Background(), "worker shutdown timed out",
				logger.String("worker", worker.name),
			)
		}
	}
	metrics.UpdateWorkerCount(0)
}

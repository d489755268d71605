// Package worker runs background assessment jobs.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/skilltier/internal/adapters/mq/queue"
	"github.com/okian/skilltier/internal/domain/dedupe"
	"github.com/okian/skilltier/pkg/logger"
	"github.com/okian/skilltier/pkg/metrics"
)

// Handler processes one assessment job.
type Handler interface {
	HandleJob(ctx context.Context, j queue.Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, j queue.Job) error

// HandleJob calls f.
func (f HandlerFunc) HandleJob(ctx context.Context, j queue.Job) error { return f(ctx, j) }

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	size    int
	queue   Queue
	handler Handler
	deduper dedupe.Deduper
	logger  logger.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	active    atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewPool creates a pool. A workerCount below one selects runtime.NumCPU().
func NewPool(workerCount int, q Queue, h Handler, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		size:    workerCount,
		queue:   q,
		handler: h,
		logger:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("worker-pool")
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Start launches the workers. Later calls are no-ops.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		p.cancel = cancel
		jobs := p.queue.Dequeue(runCtx)
		for i := 0; i < p.size; i++ {
			p.wg.Add(1)
			go p.run(runCtx, "worker-"+strconv.Itoa(i), jobs)
		}
	})
}

func (p *Pool) run(ctx context.Context, name string, jobs <-chan queue.Job) {
	defer p.wg.Done()
	log := p.logger.Named(name)
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := p.process(ctx, j); err != nil {
				log.Error(ctx, "assessment job failed",
					logger.String("candidate_id", j.CandidateID),
					logger.Error(err),
				)
			}
		}
	}
}

func (p *Pool) process(ctx context.Context, j queue.Job) error {
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(p.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActiveCount(int(p.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		if p.deduper != nil {
			p.deduper.Unrecord(ctx, j.CandidateID)
		}
	}()

	if err := p.handler.HandleJob(ctx, j); err != nil {
		p.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "job_failed")
		return fmt.Errorf("candidate %s: %w", j.CandidateID, err)
	}
	p.processed.Add(1)
	return nil
}

// Shutdown closes the queue when it supports closing, lets the workers drain
// it, and cancels them if ctx expires first.
func (p *Pool) Shutdown(ctx context.Context) error {
	var err error
	p.stopOnce.Do(func() {
		if closer, ok := p.queue.(interface{ Close() error }); ok {
			if cerr := closer.Close(); cerr != nil {
				p.logger.Error(ctx, "error closing queue", logger.Error(cerr))
			}
		}
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out")
			err = fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
		if p.cancel != nil {
			p.cancel()
		}
	})
	return err
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Workers   int   `json:"workers"`
	Active    int64 `json:"active"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

// Stats returns the current counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.size,
		Active:    p.active.Load(),
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
	}
}

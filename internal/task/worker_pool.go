package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/phrazzld/jobd/internal/domain"
)

// WorkerPool manages a fixed set of worker goroutines that dequeue jobs and
// hand them to a JobExecutor. It handles graceful shutdown and keeps workers
// alive across failing jobs.
type WorkerPool struct {
	// queue provides blocking read access to the jobs to be processed
	queue JobQueueReader

	// executor runs each dequeued job
	executor JobExecutor

	// workerCount is the number of concurrent workers to start
	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is used for cancellation and shutdown signaling
	ctx context.Context

	// cancel is the function to call to cancel the context
	cancel context.CancelFunc

	// logger for structured logging
	logger *slog.Logger

	mu      sync.Mutex
	started bool
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, it is derived with PoolSize
	WorkerCount int

	// Sizing is used when WorkerCount is not set
	Sizing SizingPolicy
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		Sizing: DefaultSizingPolicy(),
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration.
// The pool size is fixed here and does not change for the pool's lifetime.
func NewWorkerPool(queue JobQueueReader, executor JobExecutor, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = PoolSize(config.Sizing)
		logger.Info("derived worker count from hardware parallelism",
			"workers", workerCount,
			"fanout_factor", config.Sizing.FanoutFactor,
			"strategy_count", config.Sizing.StrategyCount)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		queue:       queue,
		executor:    executor,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Size returns the number of workers the pool runs
func (p *WorkerPool) Size() int {
	return p.workerCount
}

// Start launches the worker goroutines. Calling Start more than once has no
// effect.
func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("worker pool started", "workers", p.workerCount)
}

// Stop signals all workers to exit and waits for them. A worker in the middle
// of a job finishes that job first; computations are never interrupted. Jobs
// still queued are not started.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// worker processes jobs from the queue until the pool is stopped or the
// queue is closed and drained
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		job, err := p.queue.Dequeue(p.ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) {
				p.logger.Debug("task queue closed, stopping worker", "worker_id", id)
			} else {
				p.logger.Debug("stopping worker", "worker_id", id, "reason", err)
			}
			return
		}
		if p.ctx.Err() != nil {
			p.logger.Debug("pool stopped, abandoning dequeued job", "worker_id", id, "job_key", job.Key)
			return
		}

		p.runJob(job, id)
	}
}

// runJob executes one job. The execution context is detached from the pool's
// shutdown signal so that stopping the pool never cancels a computation in
// flight. A panic escaping the executor is logged and swallowed so the worker
// survives it.
func (p *WorkerPool) runJob(job domain.Job, workerID int) {
	logger := p.logger.With(
		"job_key", job.Key,
		"mode", job.Mode,
		"worker_id", workerID,
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("job executor panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()

	logger.Debug("processing job")
	p.executor.ExecuteJob(context.WithoutCancel(p.ctx), job)
}

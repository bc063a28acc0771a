package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/phrazzld/jobd/internal/cache"
	"github.com/phrazzld/jobd/internal/domain"
	"github.com/phrazzld/jobd/internal/events"
	"github.com/phrazzld/jobd/internal/redact"
	"github.com/phrazzld/jobd/internal/task"
)

const statsKey = "stats"

// Config holds the tunables of a JobService.
type Config struct {
	// QueueCapacity bounds the number of jobs waiting for a worker.
	QueueCapacity int

	// Pool sizes the worker pool. A zero Sizing.StrategyCount is filled in
	// from the computation.
	Pool task.WorkerPoolConfig

	// StatusCache and ResultCache expire independently.
	StatusCache cache.Config
	ResultCache cache.Config

	// StatsTTL bounds how long a memoized Stats snapshot is served.
	StatsTTL time.Duration

	// Keys generates job keys. Nil means RandomKeyGenerator.
	Keys KeyGenerator

	// Clock is shared with caches that do not set their own. Nil means the
	// wall clock.
	Clock clockwork.Clock
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		Pool:          task.DefaultWorkerPoolConfig(),
		StatusCache: cache.Config{
			Name:   "status",
			AgeTTL: 2 * time.Hour,
		},
		ResultCache: cache.Config{
			Name:    "result",
			IdleTTL: 30 * time.Minute,
			AgeTTL:  time.Hour,
		},
		StatsTTL: 5 * time.Second,
	}
}

// Stats is a snapshot of the service's counters and cache occupancy.
type Stats struct {
	Submitted     uint64           `json:"submitted"`
	Rejected      uint64           `json:"rejected"`
	Completed     uint64           `json:"completed"`
	Failed        uint64           `json:"failed"`
	QueueDepth    int              `json:"queue_depth"`
	QueueCapacity int              `json:"queue_capacity"`
	Workers       int              `json:"workers"`
	StatusCache   cache.CacheStats `json:"status_cache"`
	ResultCache   cache.CacheStats `json:"result_cache"`
	ComputedAt    time.Time        `json:"computed_at"`
}

// JobService accepts jobs, runs them on a worker pool and serves their
// status and results from expiring caches.
//
// Ownership model:
// JobService owns its queue, worker pool and caches. Start launches the
// workers; Stop shuts everything down and is safe to call more than once.
type JobService struct {
	computation task.Computation
	queue       *task.TaskQueue
	pool        *task.WorkerPool
	statuses    *cache.ExpiringCache[string, domain.JobStatus]
	results     *cache.ExpiringCache[string, domain.Result]
	statsCache  *cache.ExpiringCache[string, Stats]
	stats       *cache.MemoizingCache[string, Stats]
	keys        KeyGenerator
	emitter     *events.InMemoryEventEmitter
	clock       clockwork.Clock
	logger      *slog.Logger

	submitted atomic.Uint64
	rejected  atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64

	stopped  atomic.Bool
	stopOnce sync.Once
}

// NewJobService wires a JobService around computation. When emitter is nil
// the service creates its own; either way it registers a handler that keeps
// Stats fresh.
func NewJobService(
	computation task.Computation,
	cfg Config,
	emitter *events.InMemoryEventEmitter,
	logger *slog.Logger,
) (*JobService, error) {
	if computation == nil {
		return nil, ErrNilComputation
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "job_service")

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	keys := cfg.Keys
	if keys == nil {
		keys = RandomKeyGenerator{Length: DefaultKeyLength}
	}
	if emitter == nil {
		emitter = events.NewInMemoryEventEmitter(logger)
	}

	s := &JobService{
		computation: computation,
		queue:       task.NewTaskQueue(cfg.QueueCapacity, logger.With("component", "task_queue")),
		statuses:    cache.New[string, domain.JobStatus](withClock(cfg.StatusCache, "status", clock), logger),
		results:     cache.New[string, domain.Result](withClock(cfg.ResultCache, "result", clock), logger),
		statsCache: cache.New[string, Stats](
			withClock(cache.Config{AgeTTL: cfg.StatsTTL}, "stats", clock),
			logger,
		),
		keys:    keys,
		emitter: emitter,
		clock:   clock,
		logger:  logger,
	}

	stats, err := cache.NewMemoizingCache(s.statsCache, statsKey, s.computeStats)
	if err != nil {
		return nil, errors.Wrap(err, "create stats memo")
	}
	s.stats = stats

	poolCfg := cfg.Pool
	if poolCfg.Sizing.StrategyCount <= 0 {
		poolCfg.Sizing.StrategyCount = task.StrategyCountOf(computation)
	}
	s.pool = task.NewWorkerPool(s.queue, s, poolCfg, logger.With("component", "worker_pool"))

	emitter.RegisterHandler(events.HandlerFunc(func(context.Context, *events.JobEvent) error {
		s.stats.MakeDirty()
		return nil
	}))

	return s, nil
}

func withClock(cfg cache.Config, name string, clock clockwork.Clock) cache.Config {
	if cfg.Clock == nil {
		cfg.Clock = clock
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	return cfg
}

// Start launches the worker pool.
func (s *JobService) Start() {
	s.pool.Start()
	s.logger.Info("job service started",
		"workers", s.pool.Size(),
		"queue_capacity", s.queue.Cap())
}

// Stop refuses further submissions, stops the workers once their current
// jobs finish, and closes the caches. Jobs still queued are abandoned: they
// never run and their keys stay PENDING until the status TTL expires.
func (s *JobService) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		s.pool.Stop()
		s.queue.Close()

		for _, c := range []interface{ Close() error }{s.statuses, s.results, s.statsCache} {
			if err := c.Close(); err != nil {
				s.logger.Warn("failed to close cache", redact.ErrorAttr(err))
			}
		}
		s.logger.Info("job service stopped", "abandoned_jobs", s.queue.Len())
	})
}

// Submit schedules payload for computation under mode and returns the new
// job's key. It never blocks: when the queue is full it returns an error
// wrapping domain.ErrCapacityExceeded and no job is created.
func (s *JobService) Submit(ctx context.Context, payload []byte, mode domain.Mode) (string, error) {
	if s.stopped.Load() {
		return "", domain.ErrServiceStopped
	}

	key, err := s.keys.NewKey()
	if err != nil {
		return "", errors.WithSecondaryError(errors.Wrapf(ErrKeyGeneration, "submit job: %v", err), err)
	}

	job, err := domain.NewJob(key, payload, mode)
	if err != nil {
		return "", errors.Wrap(err, "submit job")
	}

	// PENDING goes in first so a worker that finishes before we return can
	// only ever move the status forward.
	s.statuses.Put(key, domain.JobStatusPending)

	if err := s.queue.TryEnqueue(job); err != nil {
		s.statuses.Invalidate(key)

		if errors.Is(err, task.ErrQueueClosed) {
			return "", domain.ErrServiceStopped
		}

		s.rejected.Add(1)
		s.logger.Warn("job rejected",
			"mode", mode,
			"queue_capacity", s.queue.Cap(),
			redact.ErrorAttr(err))
		s.emit(ctx, events.NewJobEvent(events.JobRejected, "", mode))

		return "", errors.WithHint(
			errors.Wrapf(domain.ErrCapacityExceeded, "queue capacity %d reached", s.queue.Cap()),
			"retry the submission later",
		)
	}

	s.submitted.Add(1)
	s.logger.Debug("job submitted", "job_key", key, "mode", mode)
	s.emit(ctx, events.NewJobEvent(events.JobSubmitted, key, mode))

	return key, nil
}

// ExecuteJob runs one job to completion. It implements task.JobExecutor.
//
// Whatever the computation does, including panicking, the job ends with a
// stored result and status DONE. The result is written before the status, so
// a caller that observes DONE can read the result.
func (s *JobService) ExecuteJob(ctx context.Context, job domain.Job) {
	logger := s.logger.With("job_key", job.Key, "mode", job.Mode)
	result := domain.Failure(nil)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("computation panicked",
				"panic", redact.String(fmt.Sprint(r)),
				"stack", string(debug.Stack()))
			result = domain.Failure(errors.Newf("computation panicked: %v", r))
		}

		s.results.Put(job.Key, result)
		s.statuses.Put(job.Key, domain.JobStatusDone)

		s.completed.Add(1)
		if result.IsFailure() {
			s.failed.Add(1)
		}

		event := events.NewJobEvent(events.JobCompleted, job.Key, job.Mode)
		event.Failed = result.IsFailure()
		s.emit(ctx, event)
	}()

	out, err := s.computation.Compute(ctx, job.Payload, job.Mode)
	if err != nil {
		logger.Error("computation failed", redact.ErrorAttr(err))
		result = domain.Failure(err)
		return
	}

	logger.Debug("computation finished", "failed", out.IsFailure(), "output_bytes", len(out.Output))
	result = out
}

// GetStatus returns the status of the job with key. It reports false when
// the key is unknown, its entry expired, or its submission was rejected.
func (s *JobService) GetStatus(key string) (domain.JobStatus, bool) {
	return s.statuses.Get(key)
}

// GetResult returns the result of the job with key. It reports false while
// the job is still pending and once the result has expired.
func (s *JobService) GetResult(key string) (domain.Result, bool) {
	return s.results.Get(key)
}

// Stats returns a memoized snapshot of the service counters. The snapshot is
// recomputed after any job lifecycle event or once StatsTTL has passed.
func (s *JobService) Stats() (Stats, error) {
	stats, err := s.stats.Get()
	if err != nil {
		return Stats{}, errors.Wrap(err, "get job stats")
	}
	return stats, nil
}

// Events returns the emitter the service publishes lifecycle events on.
func (s *JobService) Events() *events.InMemoryEventEmitter {
	return s.emitter
}

// Workers returns the size of the worker pool.
func (s *JobService) Workers() int {
	return s.pool.Size()
}

func (s *JobService) computeStats() (Stats, error) {
	return Stats{
		Submitted:     s.submitted.Load(),
		Rejected:      s.rejected.Load(),
		Completed:     s.completed.Load(),
		Failed:        s.failed.Load(),
		QueueDepth:    s.queue.Len(),
		QueueCapacity: s.queue.Cap(),
		Workers:       s.pool.Size(),
		StatusCache:   s.statuses.Stats(),
		ResultCache:   s.results.Stats(),
		ComputedAt:    s.clock.Now().UTC(),
	}, nil
}

func (s *JobService) emit(ctx context.Context, event *events.JobEvent) {
	event.CreatedAt = s.clock.Now().UTC()
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			"event_type", event.Type,
			redact.ErrorAttr(err))
	}
}

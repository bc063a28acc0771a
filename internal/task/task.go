package task

import (
	"context"

	"github.com/phrazzld/jobd/internal/domain"
)

// Computation is the opaque work a job runs. It is supplied by the caller's
// domain layer and invoked once per job on a worker goroutine, with no time
// limit. Returning an error marks the job as failed.
type Computation interface {
	Compute(ctx context.Context, payload []byte, mode domain.Mode) (domain.Result, error)
}

// ComputationFunc adapts an ordinary function to the Computation interface.
type ComputationFunc func(ctx context.Context, payload []byte, mode domain.Mode) (domain.Result, error)

// Compute calls f.
func (f ComputationFunc) Compute(ctx context.Context, payload []byte, mode domain.Mode) (domain.Result, error) {
	return f(ctx, payload, mode)
}

// StrategyCounter is implemented by computations that fan each job out over
// several internal strategies. Pool sizing uses the count to leave room for
// that nested parallelism.
type StrategyCounter interface {
	StrategyCount() int
}

// JobExecutor runs a single dequeued job. Implementations own the job's
// status and result bookkeeping.
type JobExecutor interface {
	ExecuteJob(ctx context.Context, job domain.Job)
}

// JobExecutorFunc adapts an ordinary function to the JobExecutor interface.
type JobExecutorFunc func(ctx context.Context, job domain.Job)

// ExecuteJob calls f.
func (f JobExecutorFunc) ExecuteJob(ctx context.Context, job domain.Job) {
	f(ctx, job)
}

// JobQueueReader provides blocking, consume-only access to queued jobs
type JobQueueReader interface {
	// Dequeue blocks until a job is available, ctx is done, or the queue is
	// closed and drained.
	Dequeue(ctx context.Context) (domain.Job, error)
}

// JobQueueWriter provides non-blocking write access to the job queue
type JobQueueWriter interface {
	// TryEnqueue adds a job without blocking.
	// Returns ErrQueueFull if the queue is at capacity, ErrQueueClosed after Close.
	TryEnqueue(job domain.Job) error

	// Close closes the queue, preventing further submission
	Close()
}

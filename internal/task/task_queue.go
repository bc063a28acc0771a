package task

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/phrazzld/jobd/internal/domain"
)

// Common errors returned by the TaskQueue
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// TaskQueue is a fixed-capacity FIFO of jobs that satisfies both
// JobQueueReader and JobQueueWriter. Enqueue never blocks; a full queue is
// the system's only backpressure signal.
type TaskQueue struct {
	jobs   chan domain.Job
	logger *slog.Logger

	// mu guards closed and the close of jobs against concurrent sends.
	mu     sync.RWMutex
	closed bool
}

// NewTaskQueue creates a new task queue with the specified capacity.
// Capacities below 1 are raised to 1.
func NewTaskQueue(capacity int, logger *slog.Logger) *TaskQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &TaskQueue{
		jobs:   make(chan domain.Job, capacity),
		logger: logger,
	}
}

// TryEnqueue adds a job to the queue without blocking.
// Returns ErrQueueFull if the queue is at capacity, ErrQueueClosed if closed.
func (q *TaskQueue) TryEnqueue(job domain.Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		q.logger.Debug("job enqueued",
			"job_key", job.Key,
			"mode", job.Mode,
			"queue_len", len(q.jobs),
			"queue_cap", cap(q.jobs))
		return nil
	default:
		return errors.Wrapf(ErrQueueFull, "queue capacity %d reached", cap(q.jobs))
	}
}

// Dequeue blocks until a job is available and returns it in FIFO order.
// It returns ctx.Err() if ctx is done first, and ErrQueueClosed once the
// queue has been closed and drained.
func (q *TaskQueue) Dequeue(ctx context.Context) (domain.Job, error) {
	select {
	case job, ok := <-q.jobs:
		if !ok {
			return domain.Job{}, ErrQueueClosed
		}
		return job, nil
	case <-ctx.Done():
		return domain.Job{}, ctx.Err()
	}
}

// Len returns the number of jobs waiting in the queue
func (q *TaskQueue) Len() int {
	return len(q.jobs)
}

// Cap returns the queue capacity
func (q *TaskQueue) Cap() int {
	return cap(q.jobs)
}

// Close closes the task queue, preventing further submission. Jobs already
// queued can still be dequeued.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.jobs)
		q.logger.Info("task queue closed", "pending", len(q.jobs))
	}
}

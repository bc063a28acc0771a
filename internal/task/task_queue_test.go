package task

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/jobd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func newTestJob(key string) domain.Job {
	return domain.Job{
		Key:     key,
		Payload: []byte("payload-" + key),
		Mode:    domain.Mode("echo"),
	}
}

func TestNewTaskQueue(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(10, logger)

	assert.NotNil(t, queue)
	assert.Equal(t, 10, queue.Cap())
	assert.Equal(t, 0, queue.Len())
	assert.False(t, queue.closed)
}

func TestNewTaskQueue_MinimumCapacity(t *testing.T) {
	for _, capacity := range []int{0, -5} {
		queue := NewTaskQueue(capacity, setupTestLogger())
		assert.Equal(t, 1, queue.Cap())

		// Buffered even with no consumer waiting
		require.NoError(t, queue.TryEnqueue(newTestJob("only")))
		assert.ErrorIs(t, queue.TryEnqueue(newTestJob("extra")), ErrQueueFull)
	}
}

func TestTryEnqueue_CapacityScenario(t *testing.T) {
	queue := NewTaskQueue(2, setupTestLogger())

	require.NoError(t, queue.TryEnqueue(newTestJob("A")))
	require.NoError(t, queue.TryEnqueue(newTestJob("B")))

	// Queue full: rejected immediately, no blocking
	err := queue.TryEnqueue(newTestJob("C"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, queue.Len())

	// Dequeue one item to make space
	job, err := queue.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", job.Key)

	// Now we should be able to enqueue again
	assert.NoError(t, queue.TryEnqueue(newTestJob("D")))
}

func TestTryEnqueue_ExcessRejected(t *testing.T) {
	const capacity = 5
	queue := NewTaskQueue(capacity, setupTestLogger())

	rejected := 0
	for i := 0; i < capacity+3; i++ {
		if err := queue.TryEnqueue(newTestJob(fmt.Sprintf("job-%d", i))); err != nil {
			assert.ErrorIs(t, err, ErrQueueFull)
			rejected++
		}
	}

	assert.Equal(t, 3, rejected)
	assert.Equal(t, capacity, queue.Len())
}

func TestDequeue_FIFO(t *testing.T) {
	queue := NewTaskQueue(10, setupTestLogger())
	for i := 0; i < 10; i++ {
		require.NoError(t, queue.TryEnqueue(newTestJob(fmt.Sprintf("%d", i))))
	}

	for i := 0; i < 10; i++ {
		job, err := queue.Dequeue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%d", i), job.Key)
	}
}

func TestDequeue_BlocksUntilAvailable(t *testing.T) {
	queue := NewTaskQueue(1, setupTestLogger())

	got := make(chan domain.Job, 1)
	go func() {
		job, err := queue.Dequeue(context.Background())
		if err == nil {
			got <- job
		}
	}()

	select {
	case <-got:
		t.Fatal("Dequeue returned before anything was enqueued")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, queue.TryEnqueue(newTestJob("late")))

	select {
	case job := <-got:
		assert.Equal(t, "late", job.Key)
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for blocked Dequeue")
	}
}

func TestDequeue_ContextCancelled(t *testing.T) {
	queue := NewTaskQueue(1, setupTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := queue.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClose(t *testing.T) {
	queue := NewTaskQueue(10, setupTestLogger())

	job := newTestJob("before-close")
	require.NoError(t, queue.TryEnqueue(job))

	queue.Close()
	queue.Close() // idempotent
	assert.True(t, queue.closed)

	err := queue.TryEnqueue(newTestJob("after-close"))
	assert.ErrorIs(t, err, ErrQueueClosed)

	// Jobs queued before close still drain
	received, err := queue.Dequeue(context.Background())
	require.NoError(t, err)
	assert.True(t, job.Equal(received))

	_, err = queue.Dequeue(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestConcurrentEnqueueAndClose(t *testing.T) {
	queue := NewTaskQueue(1000, setupTestLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				err := queue.TryEnqueue(newTestJob(fmt.Sprintf("%d-%d", i, j)))
				if err != nil {
					assert.ErrorIs(t, err, ErrQueueClosed)
				}
			}
		}(i)
	}

	time.Sleep(time.Millisecond)
	queue.Close()
	wg.Wait()
}

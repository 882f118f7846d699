package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueProcessesAndDrainsOnStop(t *testing.T) {
	var processed int64
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt64(&processed, 1)
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 32})
	q.Start(context.Background())

	for i := 0; i < 20; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{Type: "fill"}))
	}
	q.Stop()

	require.Equal(t, int64(20), atomic.LoadInt64(&processed))
	require.ErrorIs(t, q.TryEnqueue(Job{Type: "fill"}), ErrQueueClosed)
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	require.Error(t, q.TryEnqueue(Job{}))
	require.Error(t, q.Enqueue(context.Background(), Job{}))
}

func TestQueueTryEnqueueReportsFull(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	var err error
	for i := 0; i < 5; i++ {
		if err = q.TryEnqueue(Job{Type: "fill"}); err != nil {
			break
		}
	}
	require.ErrorIs(t, err, ErrQueueFull)

	close(release)
	q.Stop()
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var mu sync.Mutex
	attempts := make(map[string]int)
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[job.ID]++
		if attempts[job.ID] < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.TryEnqueue(Job{ID: "job-1", Type: "fill"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 3, attempts["job-1"])
}

func TestPrepareAssignsIDAndTimestamp(t *testing.T) {
	job := prepare(Job{Type: "fill"})
	require.NotEmpty(t, job.ID)
	require.False(t, job.Enqueued.IsZero())
}

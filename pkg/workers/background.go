package workers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Background is the bounded executor for blocking work offloaded from
// request workers. At most size tasks run at once; the rest queue.
type Background struct {
	size    int
	sem     *semaphore.Weighted
	running atomic.Int64

	mu     sync.Mutex
	closed bool
	tasks  sync.WaitGroup
}

// NewBackground creates an executor that runs at most size tasks concurrently.
func NewBackground(size int) (*Background, error) {
	if size <= 0 {
		return nil, fmt.Errorf("background executor size must be positive, got %d", size)
	}
	return &Background{
		size: size,
		sem:  semaphore.NewWeighted(int64(size)),
	}, nil
}

// Submit schedules fn and returns a channel that receives its result exactly once.
// A panic in fn is reported as an error. If the executor is closed the channel
// receives ErrClosed; if ctx ends before fn starts it receives the context error.
func (b *Background) Submit(ctx context.Context, fn func(context.Context) error) <-chan error {
	result := make(chan error, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		result <- ErrClosed
		return result
	}
	b.tasks.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.tasks.Done()

		if err := b.sem.Acquire(ctx, 1); err != nil {
			result <- err
			return
		}
		defer b.sem.Release(1)

		b.running.Add(1)
		defer b.running.Add(-1)

		result <- run(ctx, fn)
	}()

	return result
}

func run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("background task panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// Size returns the concurrency bound.
func (b *Background) Size() int { return b.size }

// Running returns the number of tasks currently executing.
func (b *Background) Running() int { return int(b.running.Load()) }

// Closed reports whether Shutdown has been called.
func (b *Background) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Shutdown refuses new tasks and waits for submitted ones to finish.
func (b *Background) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	return wait(ctx, &b.tasks)
}

package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned when work is offered to a group or executor that has been shut down.
var ErrClosed = errors.New("worker pool closed")

// Group is the request worker pool: a fixed number of slots, one per
// concurrently processing request. Requests that would exceed the slot count
// wait for a slot instead of spawning unbounded work.
type Group struct {
	size   int
	sem    *semaphore.Weighted
	active atomic.Int64

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewGroup creates a worker group with size slots. Size must be positive.
func NewGroup(size int) (*Group, error) {
	if size <= 0 {
		return nil, fmt.Errorf("worker group size must be positive, got %d", size)
	}
	return &Group{
		size: size,
		sem:  semaphore.NewWeighted(int64(size)),
	}, nil
}

// Slot is a claim on one worker slot, owned by the goroutine that acquired it.
// It is not safe for concurrent use.
type Slot struct {
	g        *Group
	held     bool
	released bool
}

// Acquire waits for a free slot. It fails with ErrClosed once Shutdown has
// been called and with the context error if ctx ends first.
func (g *Group) Acquire(ctx context.Context) (*Slot, error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, ErrClosed
	}
	g.inflight.Add(1)
	g.mu.Unlock()

	if err := g.sem.Acquire(ctx, 1); err != nil {
		g.inflight.Done()
		return nil, err
	}
	g.active.Add(1)

	return &Slot{g: g, held: true}, nil
}

// Go runs fn on its own goroutine while holding a slot.
func (g *Group) Go(ctx context.Context, fn func()) error {
	slot, err := g.Acquire(ctx)
	if err != nil {
		return err
	}
	go func() {
		defer slot.Release()
		fn()
	}()
	return nil
}

// Suspend gives the slot back while the owner waits on blocking work.
// The owner still counts as in-flight for Shutdown.
func (s *Slot) Suspend() {
	if !s.held || s.released {
		return
	}
	s.held = false
	s.g.active.Add(-1)
	s.g.sem.Release(1)
}

// Resume reacquires a suspended slot. Shutdown does not prevent an in-flight
// owner from resuming. On error the slot is left suspended.
func (s *Slot) Resume(ctx context.Context) error {
	if s.held || s.released {
		return nil
	}
	if err := s.g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	s.held = true
	s.g.active.Add(1)
	return nil
}

// Release frees the slot. It is safe to call more than once.
func (s *Slot) Release() {
	if s.released {
		return
	}
	s.Suspend()
	s.released = true
	s.g.inflight.Done()
}

// Size returns the number of slots.
func (g *Group) Size() int { return g.size }

// Active returns the number of slots currently held.
func (g *Group) Active() int { return int(g.active.Load()) }

// Closed reports whether Shutdown has been called.
func (g *Group) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Shutdown refuses new work and waits for every acquired slot to be released.
// In-flight work is never cancelled; if ctx ends first its error is returned
// and the work keeps running. Shutdown may be called more than once.
func (g *Group) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	return wait(ctx, &g.inflight)
}

func wait(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package handling

import (
	"context"
)

// Stopper requests an asynchronous shutdown of the server that owns the
// current request. Stop returns immediately and may be called any number of
// times from any goroutine.
type Stopper interface {
	Stop()
}

// StopperFunc adapts a function to the Stopper interface.
type StopperFunc func()

// Stop calls f().
func (f StopperFunc) Stop() { f() }

type noopStopper struct{}

func (noopStopper) Stop() {}

// Blocking runs fn on the server's background executor and waits for its
// result. The request's worker slot is given back while fn runs so blocking
// work never occupies a request worker. Without a background executor fn runs
// on the calling goroutine.
func Blocking[T any](c *Context, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx := c.Context()
	if c.background == nil {
		return fn(ctx)
	}

	if c.slot != nil {
		c.slot.Suspend()
	}

	var value T
	err := <-c.background.Submit(ctx, func(ctx context.Context) error {
		var err error
		value, err = fn(ctx)
		return err
	})

	if c.slot != nil {
		if rerr := c.slot.Resume(ctx); rerr != nil && err == nil {
			err = rerr
		}
	}

	return value, err
}

package handling

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"mercator-hq/harbor/pkg/config"
)

// Handler processes a single request. A returned error means processing
// failed; if nothing has been written yet the adapter answers with an error
// status. Handlers must be safe for concurrent use.
type Handler interface {
	Handle(c *Context) error
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(c *Context) error

// Handle calls f(c).
func (f HandlerFunc) Handle(c *Context) error {
	return f(c)
}

// FromHTTP wraps a net/http handler so it can be used as a terminal Handler.
func FromHTTP(h http.Handler) Handler {
	return HandlerFunc(func(c *Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	})
}

// Decorator wraps next with cross-cutting behaviour and returns the new handler.
// It is called exactly once per server start with the immutable launch
// configuration. Any setup it performs must happen before it returns; an
// error aborts the start.
type Decorator func(cfg *config.LaunchConfig, next Handler) (Handler, error)

// HandlerError carries the response status for a failed request.
type HandlerError struct {
	Status int
	Err    error
}

// NewHandlerError creates a HandlerError with the given status.
func NewHandlerError(status int, err error) *HandlerError {
	return &HandlerError{Status: status, Err: err}
}

func (e *HandlerError) Error() string {
	if e.Err == nil {
		return http.StatusText(e.Status)
	}
	return fmt.Sprintf("%d %s: %v", e.Status, http.StatusText(e.Status), e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// StatusOf returns the response status implied by a handler error.
func StatusOf(err error) int {
	var herr *HandlerError
	if errors.As(err, &herr) && herr.Status >= 400 {
		return herr.Status
	}
	return http.StatusInternalServerError
}

// Pipeline is the ordered list of decorators applied around an application
// handler. The first registered decorator is the outermost: for decorators
// registered as A, B, C a request enters A, B, C and then the application,
// and leaves in the opposite order.
type Pipeline struct {
	mu         sync.Mutex
	decorators []Decorator
}

// NewPipeline creates a pipeline with the given decorators in order.
func NewPipeline(decorators ...Decorator) *Pipeline {
	p := &Pipeline{}
	p.Register(decorators...)
	return p
}

// Register appends decorators in order. Nil decorators are ignored.
func (p *Pipeline) Register(decorators ...Decorator) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, d := range decorators {
		if d != nil {
			p.decorators = append(p.decorators, d)
		}
	}
}

// Len returns the number of registered decorators.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.decorators)
}

// Build folds the decorators around app and returns the assembled chain.
// The fold runs from the last registered decorator to the first, so each
// decorator wraps everything registered after it. A decorator that fails or
// panics aborts the build.
func (p *Pipeline) Build(cfg *config.LaunchConfig, app Handler) (Handler, error) {
	if app == nil {
		return nil, fmt.Errorf("application handler is required")
	}

	p.mu.Lock()
	decorators := make([]Decorator, len(p.decorators))
	copy(decorators, p.decorators)
	p.mu.Unlock()

	h := app
	for i := len(decorators) - 1; i >= 0; i-- {
		next, err := apply(decorators[i], cfg, h)
		if err != nil {
			return nil, fmt.Errorf("decorator %d: %w", i, err)
		}
		if next == nil {
			return nil, fmt.Errorf("decorator %d returned a nil handler", i)
		}
		h = next
	}

	return h, nil
}

func apply(d Decorator, cfg *config.LaunchConfig, next Handler) (h Handler, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return d(cfg, next)
}

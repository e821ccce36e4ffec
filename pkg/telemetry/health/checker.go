package health

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Check is a named health probe. Check returns nil when the component is
// healthy, or an error describing the problem.
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc is a function that performs a health check for a component.
type CheckFunc func(ctx context.Context) error

type namedCheck struct {
	name string
	fn   CheckFunc
}

func (c namedCheck) Name() string                    { return c.name }
func (c namedCheck) Check(ctx context.Context) error { return c.fn(ctx) }

// NewCheck creates a Check from a name and a function.
func NewCheck(name string, fn CheckFunc) Check {
	return namedCheck{name: name, fn: fn}
}

// Status values reported for checks and reports.
const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
)

// Result represents the result of a single health check.
type Result struct {
	// Status is "ok" or "unhealthy".
	Status string `json:"status"`

	// Message provides additional context (usually for unhealthy status)
	Message string `json:"message,omitempty"`

	// Duration is how long the check took
	Duration time.Duration `json:"duration_ns"`
}

// Healthy reports whether the check passed.
func (r Result) Healthy() bool { return r.Status == StatusOK }

// Report is the aggregate result of running every registered check.
type Report struct {
	// Status is "ok" when every check passed, otherwise "degraded".
	Status string `json:"status"`

	// Checks maps check names to their results.
	Checks map[string]Result `json:"checks"`

	// Timestamp is when the checks were performed
	Timestamp time.Time `json:"timestamp"`
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool { return r.Status == StatusOK }

var (
	// ErrCheckTimeout is returned when a health check times out
	ErrCheckTimeout = errors.New("health check timeout")

	// ErrUnknownCheck is returned by Run for a name that is not registered.
	ErrUnknownCheck = errors.New("unknown health check")
)

// DefaultCheckTimeout bounds each check when no timeout is configured.
const DefaultCheckTimeout = 5 * time.Second

// Registry holds health checks keyed by unique name. Registering a name
// that already exists replaces the earlier check.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]Check

	// Timeout for individual checks
	checkTimeout time.Duration
}

// New creates a registry with the specified per-check timeout.
// If timeout is 0, DefaultCheckTimeout is used.
func New(checkTimeout time.Duration) *Registry {
	if checkTimeout <= 0 {
		checkTimeout = DefaultCheckTimeout
	}

	return &Registry{
		checks:       make(map[string]Check),
		checkTimeout: checkTimeout,
	}
}

// Register adds checks. A check whose name is already registered replaces it.
func (r *Registry) Register(checks ...Check) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range checks {
		if c != nil {
			r.checks[c.Name()] = c
		}
	}
}

// RegisterFunc registers a health check function for a named component.
func (r *Registry) RegisterFunc(name string, fn CheckFunc) {
	r.Register(NewCheck(name, fn))
}

// Unregister removes the check with the given name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.checks, name)
}

// Names returns the registered check names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered health checks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.checks)
}

// Run runs the named check.
func (r *Registry) Run(ctx context.Context, name string) (Result, error) {
	r.mu.RLock()
	check, ok := r.checks[name]
	r.mu.RUnlock()

	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownCheck, name)
	}
	return r.runCheck(ctx, check), nil
}

// RunAll runs every registered check concurrently and reports each by name.
// A check that fails, panics or times out is reported as unhealthy under its
// own name; it never prevents the other checks from reporting.
func (r *Registry) RunAll(ctx context.Context) Report {
	r.mu.RLock()
	checks := make([]Check, 0, len(r.checks))
	for _, check := range r.checks {
		checks = append(checks, check)
	}
	r.mu.RUnlock()

	results := make(map[string]Result, len(checks))
	var resultMu sync.Mutex

	var g errgroup.Group
	for _, check := range checks {
		check := check
		g.Go(func() error {
			result := r.runCheck(ctx, check)

			resultMu.Lock()
			results[check.Name()] = result
			resultMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := StatusOK
	for _, result := range results {
		if !result.Healthy() {
			status = StatusDegraded
			break
		}
	}

	return Report{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// runCheck executes a single health check with timeout and panic isolation.
func (r *Registry) runCheck(ctx context.Context, check Check) Result {
	checkCtx, cancel := context.WithTimeout(ctx, r.checkTimeout)
	defer cancel()

	start := time.Now()

	errChan := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				errChan <- fmt.Errorf("health check panicked: %v", p)
			}
		}()
		errChan <- check.Check(checkCtx)
	}()

	select {
	case err := <-errChan:
		duration := time.Since(start)
		if err != nil {
			return Result{
				Status:   StatusUnhealthy,
				Message:  err.Error(),
				Duration: duration,
			}
		}
		return Result{
			Status:   StatusOK,
			Duration: duration,
		}

	case <-checkCtx.Done():
		return Result{
			Status:   StatusUnhealthy,
			Message:  ErrCheckTimeout.Error(),
			Duration: time.Since(start),
		}
	}
}

package metrics

import (
	"errors"
	"net/http"

	"mercator-hq/harbor/pkg/config"
	"mercator-hq/harbor/pkg/handling"
)

// OtherRoute is the timer suffix used once the route limit is reached.
const OtherRoute = "other"

// DefaultMaxRoutes bounds the number of distinct request timers.
const DefaultMaxRoutes = 1000

// RequestTiming returns a decorator that records one timer sample per
// request, named "<METHOD> <path>". The sample stops once the handler
// returns. A returned error, a panic or a 5xx response counts as a failure.
//
// Past maxRoutes distinct names, new routes are recorded under
// "<METHOD> other" so a scan of random paths cannot grow the registry
// without bound. Register it first so it wraps every other decorator.
func (r *Registry) RequestTiming(maxRoutes int) handling.Decorator {
	if maxRoutes <= 0 {
		maxRoutes = DefaultMaxRoutes
	}
	limiter := NewCardinalityLimiter(maxRoutes)

	return func(_ *config.LaunchConfig, next handling.Handler) (handling.Handler, error) {
		return handling.HandlerFunc(func(c *handling.Context) error {
			req := c.Request()

			name := req.Method + " " + req.URL.Path
			if !limiter.Allow(name) {
				name = req.Method + " " + OtherRoute
			}

			sample := r.Timer(name).Time()
			defer sample.stopOnPanic()
			err := next.Handle(c)

			outcome := err
			if outcome == nil && c.Response().Status() >= http.StatusInternalServerError {
				outcome = errServerStatus
			}
			sample.Stop(outcome)

			return err
		}), nil
	}
}

var errServerStatus = errors.New("server error status")

package middleware

import (
	"net/http"

	"mercator-hq/harbor/pkg/config"
	"mercator-hq/harbor/pkg/handling"
)

// Mount serves requests for exactly path with h and passes every other request
// down the chain. It is how administrative endpoints (health, metrics, stop)
// are added around an application handler.
func Mount(path string, h handling.Handler) handling.Decorator {
	return func(_ *config.LaunchConfig, next handling.Handler) (handling.Handler, error) {
		return handling.HandlerFunc(func(c *handling.Context) error {
			if c.Request().URL.Path == path {
				return h.Handle(c)
			}
			return next.Handle(c)
		}), nil
	}
}

// StopHandler answers 202 Accepted and asks the owning server to stop.
// The stop is asynchronous and drains in-flight requests, so this response is
// still delivered.
func StopHandler() handling.Handler {
	return handling.HandlerFunc(func(c *handling.Context) error {
		c.Logger().InfoContext(c.Context(), "stop requested", "remote_addr", c.Request().RemoteAddr)
		if err := c.Text(http.StatusAccepted, "stopping\n"); err != nil {
			return err
		}
		c.Stopper().Stop()
		return nil
	})
}

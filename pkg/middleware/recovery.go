package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"mercator-hq/harbor/pkg/config"
	"mercator-hq/harbor/pkg/handling"
)

// errorResponse is the JSON body written for recovered panics.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Recovery recovers from panics further down the chain. The panic is logged
// with its stack trace and, when nothing has been written yet, answered with a
// 500 JSON body that exposes no internal details. The request still fails:
// the panic is returned as an error so outer decorators record the failure.
//
// Example usage:
//
//	pipeline.Register(middleware.Recovery())
func Recovery() handling.Decorator {
	return func(_ *config.LaunchConfig, next handling.Handler) (handling.Handler, error) {
		return handling.HandlerFunc(func(c *handling.Context) (err error) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				r := c.Request()
				requestID := c.Response().Header().Get(RequestIDHeader)

				c.Logger().ErrorContext(c.Context(), "panic in handler",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				if !c.Response().Committed() {
					_ = c.JSON(http.StatusInternalServerError, errorResponse{
						Error:     "An internal error occurred. Please try again later.",
						RequestID: requestID,
					})
				}

				err = fmt.Errorf("panic in handler: %v", rec)
			}()

			return next.Handle(c)
		}), nil
	}
}

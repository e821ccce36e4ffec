package middleware

import (
	"github.com/google/uuid"

	"mercator-hq/harbor/pkg/config"
	"mercator-hq/harbor/pkg/handling"
	"mercator-hq/harbor/pkg/telemetry/logging"
)

const (
	// RequestIDHeader is the HTTP header for request ID.
	RequestIDHeader = "X-Request-ID"

	// maxRequestIDLength bounds client supplied request IDs.
	maxRequestIDLength = 128
)

// RequestID assigns every request an ID and stores it in the request context
// and the X-Request-ID response header. A client supplied X-Request-ID is
// kept when it is not longer than 128 bytes; otherwise a UUIDv4 is generated.
//
// Example usage:
//
//	pipeline.Register(middleware.RequestID())
func RequestID() handling.Decorator {
	return func(_ *config.LaunchConfig, next handling.Handler) (handling.Handler, error) {
		return handling.HandlerFunc(func(c *handling.Context) error {
			requestID := c.Request().Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > maxRequestIDLength {
				requestID = uuid.NewString()
			}

			c.SetContext(logging.WithRequestID(c.Context(), requestID))
			c.Response().Header().Set(RequestIDHeader, requestID)

			return next.Handle(c)
		}), nil
	}
}

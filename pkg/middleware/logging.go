package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/harbor/pkg/config"
	"mercator-hq/harbor/pkg/handling"
)

// Logging logs every request with structured fields once it completes.
// Requests that answer 5xx or return an error are logged at error level, 4xx
// at warn level and everything else at info level.
//
// Log format (JSON):
//
//	{
//	  "time": "2026-10-18T10:30:00Z",
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "GET",
//	  "path": "/work",
//	  "status": 200,
//	  "latency_ms": 12,
//	  "bytes": 42,
//	  "request_id": "4f6c...",
//	  "remote_addr": "192.168.1.100:54321"
//	}
func Logging() handling.Decorator {
	return func(_ *config.LaunchConfig, next handling.Handler) (handling.Handler, error) {
		return handling.HandlerFunc(func(c *handling.Context) error {
			start := time.Now()
			r := c.Request()

			c.Logger().DebugContext(c.Context(), "request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)

			err := next.Handle(c)

			status := c.Response().Status()
			if err != nil && !c.Response().Committed() {
				status = handling.StatusOf(err)
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError || err != nil {
				level = slog.LevelError
			} else if status >= http.StatusBadRequest {
				level = slog.LevelWarn
			}

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"latency_ms", time.Since(start).Milliseconds(),
				"bytes", c.Response().BytesWritten(),
				"remote_addr", r.RemoteAddr,
			}
			if err != nil {
				attrs = append(attrs, "error", err)
			}

			c.Logger().Log(c.Context(), level, "request completed", attrs...)
			return err
		}), nil
	}
}

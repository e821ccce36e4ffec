package health

import (
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"
)

// Handler returns an HTTP handler for the aggregate health endpoint.
// It runs all registered checks on every request.
//
// Returns:
//   - 200 OK: every check passed
//   - 503 Service Unavailable: at least one check failed
//
// Example response (degraded):
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "database": {"status": "ok", "duration_ns": 120000},
//	        "disk": {"status": "unhealthy", "message": "disk full", "duration_ns": 8000}
//	    },
//	    "timestamp": "2026-10-18T10:30:00Z"
//	}
func (r *Registry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		report := r.RunAll(req.Context())

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if report.Healthy() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if req.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(report)
		}
	}
}

// RateLimitedHandler wraps a handler with token bucket rate limiting.
// It prevents health check endpoint abuse by limiting requests per second;
// excess requests receive 429 Too Many Requests. A non-positive rate
// disables limiting.
//
// Usage:
//
//	handler := health.RateLimitedHandler(registry.Handler(), 10) // 10 req/s
func RateLimitedHandler(handler http.Handler, requestsPerSecond int) http.Handler {
	if requestsPerSecond <= 0 {
		return handler
	}

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

// Package middleware provides general purpose decorators for the harbor
// handler pipeline.
//
//   - RequestID assigns X-Request-ID and stores it for logging
//   - Recovery turns panics into 500 responses and failed requests
//   - Logging writes one structured access log line per request
//   - Mount serves a fixed path with its own handler
//
// Decorators registered first run outermost, so a typical pipeline is:
//
//	pipeline.Register(
//		middleware.RequestID(),
//		middleware.Logging(),
//		middleware.Recovery(),
//	)
package middleware

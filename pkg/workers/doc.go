// Package workers provides the execution pools owned by a harbor server.
//
// Group bounds the number of requests processed at once. Each request holds a
// Slot for its duration. Background runs blocking work so that a request can
// give its slot back while it waits:
//
//	slot.Suspend()
//	err := <-bg.Submit(ctx, readFile)
//	slot.Resume(ctx)
//
// Both pools shut down gracefully: new work is refused with ErrClosed and
// work already accepted runs to completion.
package workers

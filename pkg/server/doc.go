// Package server provides the lifecycle manager of a harbor server.
//
// A Server owns the listening socket, the request worker group, the
// background executor for blocking work, the services tied to its lifetime
// and the handler chain assembled from its decorators.
//
// # Lifecycle
//
//	NEW -> STARTING -> RUNNING -> STOPPING -> TERMINATED
//	          \-> FAILED
//
// Start acquires, in order: the background executor, the worker group, each
// service, the assembled handler chain and finally the listener. If any step
// fails, everything acquired so far is released in reverse order, the server
// becomes FAILED and Start returns a *BindError or *AssemblyError.
//
// Stop closes the listener so no new connections are accepted, waits for
// in-flight requests (bounded by the configured shutdown timeout), then
// releases the remaining resources in reverse acquisition order. Concurrent
// Stop calls collapse into one shutdown and all of them return after the
// server is TERMINATED. Stop on a NEW or already stopped server is a no-op.
//
// # Basic Usage
//
//	lc, err := config.NewLaunchConfigBuilder().Port(8080).Build()
//	if err != nil {
//	    return err
//	}
//
//	srv := server.New(lc, app,
//	    server.WithLogger(logger),
//	    server.WithDecorators(middleware.RequestID(), middleware.Logging()),
//	)
//	addr, err := srv.Start(ctx)
//	if err != nil {
//	    return err
//	}
//	logger.Info("listening", "address", addr.String())
//
//	<-srv.Done()
//
// # Stopping From Inside a Request
//
// Handlers reach the owning server only through its Stopper:
//
//	c.Stopper().Stop()
//
// The call returns immediately; the server drains the current request
// before it terminates.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Start and Stop are serialized;
// the accessors never block on a transition in progress.
package server

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"mercator-hq/harbor/pkg/config"
	"mercator-hq/harbor/pkg/handling"
	"mercator-hq/harbor/pkg/workers"
)

// Server owns a listening socket, the worker pools and the assembled handler
// chain, and drives them through the lifecycle described by State.
// A Server is started at most once.
type Server struct {
	launch   *config.LaunchConfig
	app      handling.Handler
	pipeline *handling.Pipeline
	services []Service
	logger   *slog.Logger
	stopper  *stopper

	// lifecycle serializes Start and Stop so transitions are linearizable.
	lifecycle sync.Mutex
	state     atomic.Int32
	resources []resource

	mu         sync.RWMutex
	bound      *BoundAddress
	group      *workers.Group
	background *workers.Background

	terminated chan struct{}
}

// resource is something acquired during STARTING and released during STOPPING.
type resource struct {
	name    string
	release func(ctx context.Context) error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDecorators registers decorators in order. The first one is outermost.
func WithDecorators(decorators ...handling.Decorator) Option {
	return func(s *Server) {
		s.pipeline.Register(decorators...)
	}
}

// WithService ties services to the server lifetime.
func WithService(services ...Service) Option {
	return func(s *Server) {
		for _, svc := range services {
			if svc != nil {
				s.services = append(s.services, svc)
			}
		}
	}
}

// New creates a server in state NEW. Nothing is allocated until Start.
func New(launch *config.LaunchConfig, app handling.Handler, opts ...Option) *Server {
	s := &Server{
		launch:     launch,
		app:        app,
		pipeline:   handling.NewPipeline(),
		logger:     slog.Default(),
		terminated: make(chan struct{}),
	}
	s.stopper = &stopper{server: s}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	return s
}

// Pipeline returns the decoration pipeline. Decorators registered after
// Start do not affect the running chain.
func (s *Server) Pipeline() *handling.Pipeline { return s.pipeline }

// Start acquires the worker pools, starts services, assembles the handler
// chain and binds the listener, in that order. On success the server is
// RUNNING and the bound address is returned. On failure everything acquired
// so far is released in reverse order, the server is FAILED and the error is
// a *BindError or an *AssemblyError. Start fails with ErrIllegalState unless
// the server is NEW.
func (s *Server) Start(ctx context.Context) (BoundAddress, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if st := s.State(); st != StateNew {
		return BoundAddress{}, fmt.Errorf("%w: cannot start server in state %s", ErrIllegalState, st)
	}
	s.setState(StateStarting)

	if s.launch == nil {
		return BoundAddress{}, s.fail(&AssemblyError{Stage: "launch config", Err: errors.New("launch config is required")})
	}

	s.logger.Info("starting server",
		"address", s.launch.ListenAddress(),
		"worker_threads", s.launch.WorkerThreads(),
		"background_threads", s.launch.BackgroundThreads(),
		"scheme", s.Scheme(),
	)

	background, err := workers.NewBackground(s.launch.BackgroundThreads())
	if err != nil {
		return BoundAddress{}, s.fail(&AssemblyError{Stage: "background executor", Err: err})
	}
	s.acquire("background executor", background.Shutdown)

	group, err := workers.NewGroup(s.launch.WorkerThreads())
	if err != nil {
		return BoundAddress{}, s.fail(&AssemblyError{Stage: "worker group", Err: err})
	}
	s.acquire("worker group", group.Shutdown)

	s.mu.Lock()
	s.group = group
	s.background = background
	s.mu.Unlock()

	for _, svc := range s.services {
		if err := ctx.Err(); err != nil {
			return BoundAddress{}, s.fail(&AssemblyError{Stage: "services", Err: err})
		}
		if err := svc.Start(ctx); err != nil {
			return BoundAddress{}, s.fail(&AssemblyError{Stage: "service " + svc.Name(), Err: err})
		}
		s.acquire("service "+svc.Name(), svc.Stop)
	}

	chain, err := s.pipeline.Build(s.launch, s.app)
	if err != nil {
		return BoundAddress{}, s.fail(&AssemblyError{Stage: "handler chain", Err: err})
	}

	listener, err := net.Listen("tcp", s.launch.ListenAddress())
	if err != nil {
		return BoundAddress{}, s.fail(&BindError{Address: s.launch.ListenAddress(), Err: err})
	}
	if tlsConfig := s.launch.TLS(); tlsConfig != nil {
		listener = tls.NewListener(listener, tlsConfig)
	}

	bound := s.boundAddress(listener.Addr())

	httpServer := &http.Server{
		Handler: handling.NewAdapter(handling.AdapterConfig{
			Chain:      chain,
			Launch:     s.launch,
			Group:      group,
			Background: background,
			Stopper:    s.stopper,
			Logger:     s.logger,
		}),
		ReadTimeout:    s.launch.ReadTimeout(),
		WriteTimeout:   s.launch.WriteTimeout(),
		IdleTimeout:    s.launch.IdleTimeout(),
		MaxHeaderBytes: s.launch.MaxHeaderBytes(),
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	serveDone := make(chan struct{})
	go s.serve(httpServer, listener, serveDone)
	s.acquire("listener", func(ctx context.Context) error {
		return s.drain(ctx, httpServer, serveDone)
	})

	s.mu.Lock()
	s.bound = &bound
	s.mu.Unlock()
	s.setState(StateRunning)

	s.logger.Info("server started", "address", bound.String(), "scheme", s.Scheme())
	return bound, nil
}

// serve runs the accept loop. If it dies for any reason other than a stop,
// the server stops itself.
func (s *Server) serve(httpServer *http.Server, listener net.Listener, done chan struct{}) {
	defer close(done)

	err := httpServer.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("serve loop failed, stopping server", "error", err)
		s.stopper.Stop()
	}
}

// drain closes the listener and waits for in-flight requests. When ctx ends
// first, remaining connections are closed forcibly.
func (s *Server) drain(ctx context.Context, httpServer *http.Server, serveDone <-chan struct{}) error {
	err := httpServer.Shutdown(ctx)
	if err != nil {
		s.logger.Warn("graceful drain did not complete, closing connections", "error", err)
		_ = httpServer.Close()
	}
	<-serveDone
	return err
}

// Stop closes the listener, lets in-flight requests finish, then stops
// services and the worker pools in reverse acquisition order. It returns once
// the server is TERMINATED. Stopping a server that is NEW or already stopped
// is a no-op. A Stop that arrives during STARTING waits for the start to
// finish. The configured shutdown timeout bounds the drain; on expiry
// connections are closed and the timeout error is returned. In that case
// the pools are not waited for either, so TERMINATED no longer implies that
// in-flight handlers and background tasks have finished.
func (s *Server) Stop(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.State() != StateRunning {
		return nil
	}
	s.setState(StateStopping)
	s.logger.Info("stopping server", "timeout", s.launch.ShutdownTimeout().String())

	if timeout := s.launch.ShutdownTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := s.releaseAll(ctx)

	s.mu.Lock()
	s.bound = nil
	s.mu.Unlock()
	s.setState(StateTerminated)
	close(s.terminated)

	if err != nil {
		s.logger.Error("server stopped with errors", "error", err)
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// AwaitTermination blocks until the server reaches TERMINATED or FAILED, or ctx ends.
func (s *Server) AwaitTermination(ctx context.Context) error {
	select {
	case <-s.terminated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed when the server reaches a terminal state.
func (s *Server) Done() <-chan struct{} { return s.terminated }

// State returns the current lifecycle state.
func (s *Server) State() State { return State(s.state.Load()) }

// Scheme returns "https" when the launch configuration carries TLS, otherwise "http".
func (s *Server) Scheme() string {
	if s.launch != nil && s.launch.Secure() {
		return "https"
	}
	return "http"
}

// Address returns the bound address while the server is RUNNING.
func (s *Server) Address() (BoundAddress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bound == nil {
		return BoundAddress{}, false
	}
	return *s.bound, true
}

// BindHost returns the bound host, or "" when the server is not RUNNING.
func (s *Server) BindHost() string {
	addr, _ := s.Address()
	return addr.Host
}

// BindPort returns the bound port, or -1 when the server is not RUNNING.
func (s *Server) BindPort() int {
	addr, ok := s.Address()
	if !ok {
		return -1
	}
	return addr.Port
}

// URL returns the base URL of a running server, or "" otherwise.
func (s *Server) URL() string {
	addr, ok := s.Address()
	if !ok {
		return ""
	}
	return s.Scheme() + "://" + addr.String()
}

// Stopper returns the capability that asynchronously stops this server.
func (s *Server) Stopper() handling.Stopper { return s.stopper }

// Launch returns the launch configuration.
func (s *Server) Launch() *config.LaunchConfig { return s.launch }

// Workers returns the request worker group and the background executor,
// or nils before the server has started.
func (s *Server) Workers() (*workers.Group, *workers.Background) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.group, s.background
}

func (s *Server) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	s.logger.Debug("server state changed", "from", prev.String(), "to", st.String())
}

func (s *Server) acquire(name string, release func(ctx context.Context) error) {
	s.resources = append(s.resources, resource{name: name, release: release})
}

// fail releases whatever Start acquired, marks the server FAILED and returns err.
func (s *Server) fail(err error) error {
	s.logger.Error("server start failed, releasing acquired resources", "error", err)

	if rerr := s.releaseAll(context.Background()); rerr != nil {
		s.logger.Error("release after failed start reported errors", "error", rerr)
	}

	s.setState(StateFailed)
	close(s.terminated)
	return err
}

// releaseAll releases resources in reverse acquisition order. Every resource
// is released even when an earlier release fails.
func (s *Server) releaseAll(ctx context.Context) error {
	var errs []error
	for i := len(s.resources) - 1; i >= 0; i-- {
		r := s.resources[i]
		if err := r.release(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to release %s: %w", r.name, err))
			continue
		}
		s.logger.Debug("released resource", "resource", r.name)
	}
	s.resources = nil
	return errors.Join(errs...)
}

// boundAddress derives the reported address from the listener. A wildcard
// bind is reported as localhost.
func (s *Server) boundAddress(addr net.Addr) BoundAddress {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		host, port, _ := net.SplitHostPort(addr.String())
		p, _ := net.LookupPort("tcp", port)
		return BoundAddress{Host: host, Port: p}
	}

	host := s.launch.Address()
	switch {
	case tcp.IP == nil || tcp.IP.IsUnspecified():
		host = "localhost"
	case host == "":
		host = tcp.IP.String()
	}
	return BoundAddress{Host: host, Port: tcp.Port}
}

// stopper stops its server asynchronously, at most once.
type stopper struct {
	server *Server
	once   sync.Once
}

func (st *stopper) Stop() {
	st.once.Do(func() {
		go func() {
			if err := st.server.Stop(context.Background()); err != nil {
				st.server.logger.Error("stop requested through stopper failed", "error", err)
			}
		}()
	})
}

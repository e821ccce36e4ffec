package config

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"
)

// LaunchConfig is the immutable snapshot of server parameters.
// It is produced once, before any server starts, and is shared read-only by
// every component of the server. All fields are unexported; use the accessors.
type LaunchConfig struct {
	address           string
	port              int
	workerThreads     int
	backgroundThreads int
	allocator         BufferAllocator
	tlsConfig         *tls.Config
	readTimeout       time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	shutdownTimeout   time.Duration
	maxHeaderBytes    int
}

// Address returns the configured bind host. Empty means all interfaces.
func (c *LaunchConfig) Address() string { return c.address }

// Port returns the configured port. Zero requests an ephemeral port.
func (c *LaunchConfig) Port() int { return c.port }

// WorkerThreads returns the number of request worker slots. Always positive.
func (c *LaunchConfig) WorkerThreads() int { return c.workerThreads }

// BackgroundThreads returns the concurrency bound of the blocking executor.
func (c *LaunchConfig) BackgroundThreads() int { return c.backgroundThreads }

// Allocator returns the response buffer allocation strategy.
func (c *LaunchConfig) Allocator() BufferAllocator { return c.allocator }

// TLS returns a copy of the TLS configuration, or nil when TLS is disabled.
func (c *LaunchConfig) TLS() *tls.Config {
	if c.tlsConfig == nil {
		return nil
	}
	return c.tlsConfig.Clone()
}

// Secure reports whether the server serves TLS.
func (c *LaunchConfig) Secure() bool { return c.tlsConfig != nil }

// ReadTimeout returns the request read timeout.
func (c *LaunchConfig) ReadTimeout() time.Duration { return c.readTimeout }

// WriteTimeout returns the response write timeout.
func (c *LaunchConfig) WriteTimeout() time.Duration { return c.writeTimeout }

// IdleTimeout returns the keep-alive idle timeout.
func (c *LaunchConfig) IdleTimeout() time.Duration { return c.idleTimeout }

// ShutdownTimeout returns the graceful drain bound. Zero means wait indefinitely.
func (c *LaunchConfig) ShutdownTimeout() time.Duration { return c.shutdownTimeout }

// MaxHeaderBytes returns the request header size limit.
func (c *LaunchConfig) MaxHeaderBytes() int { return c.maxHeaderBytes }

// ListenAddress returns the "host:port" string passed to the listener.
func (c *LaunchConfig) ListenAddress() string {
	return net.JoinHostPort(c.address, strconv.Itoa(c.port))
}

// LaunchConfigBuilder builds LaunchConfig values with a fluent API.
// It starts from the defaults; Build validates and freezes the result.
type LaunchConfigBuilder struct {
	server ServerConfig
	tls    *tls.Config
}

// NewLaunchConfigBuilder returns a builder seeded with default server settings.
func NewLaunchConfigBuilder() *LaunchConfigBuilder {
	return &LaunchConfigBuilder{server: DefaultConfig().Server}
}

// Address sets the bind host.
func (b *LaunchConfigBuilder) Address(host string) *LaunchConfigBuilder {
	b.server.Address = host
	return b
}

// Port sets the bind port.
func (b *LaunchConfigBuilder) Port(port int) *LaunchConfigBuilder {
	b.server.Port = port
	return b
}

// WorkerThreads sets the number of worker slots.
func (b *LaunchConfigBuilder) WorkerThreads(n int) *LaunchConfigBuilder {
	b.server.WorkerThreads = n
	return b
}

// BackgroundThreads sets the blocking executor bound.
func (b *LaunchConfigBuilder) BackgroundThreads(n int) *LaunchConfigBuilder {
	b.server.BackgroundThreads = n
	return b
}

// BufferAllocator sets the buffer allocation strategy.
func (b *LaunchConfigBuilder) BufferAllocator(strategy string) *LaunchConfigBuilder {
	b.server.BufferAllocator = strategy
	return b
}

// TLS sets a ready-made TLS configuration.
func (b *LaunchConfigBuilder) TLS(cfg *tls.Config) *LaunchConfigBuilder {
	b.tls = cfg
	return b
}

// ShutdownTimeout sets the graceful drain bound.
func (b *LaunchConfigBuilder) ShutdownTimeout(d time.Duration) *LaunchConfigBuilder {
	b.server.ShutdownTimeout = d
	return b
}

// Timeouts sets the read, write and idle timeouts.
func (b *LaunchConfigBuilder) Timeouts(read, write, idle time.Duration) *LaunchConfigBuilder {
	b.server.ReadTimeout = read
	b.server.WriteTimeout = write
	b.server.IdleTimeout = idle
	return b
}

// Build validates the settings and returns the frozen LaunchConfig.
// Invalid settings yield a ValidationError.
func (b *LaunchConfigBuilder) Build() (*LaunchConfig, error) {
	if errs := validateServer(&b.server); len(errs) > 0 {
		return nil, ValidationError{Errors: errs}
	}

	tlsConfig := b.tls
	if tlsConfig == nil && b.server.TLS.Enabled {
		var err error
		tlsConfig, err = loadTLS(&b.server.TLS)
		if err != nil {
			return nil, ValidationError{Errors: []FieldError{{Field: "server.tls", Message: err.Error()}}}
		}
	}

	allocator, err := NewBufferAllocator(b.server.BufferAllocator)
	if err != nil {
		return nil, ValidationError{Errors: []FieldError{{Field: "server.buffer_allocator", Message: err.Error()}}}
	}

	lc := &LaunchConfig{
		address:           b.server.Address,
		port:              b.server.Port,
		workerThreads:     b.server.WorkerThreads,
		backgroundThreads: b.server.BackgroundThreads,
		allocator:         allocator,
		readTimeout:       b.server.ReadTimeout,
		writeTimeout:      b.server.WriteTimeout,
		idleTimeout:       b.server.IdleTimeout,
		shutdownTimeout:   b.server.ShutdownTimeout,
		maxHeaderBytes:    b.server.MaxHeaderBytes,
	}
	if tlsConfig != nil {
		lc.tlsConfig = tlsConfig.Clone()
	}

	return lc, nil
}

// NewLaunchConfig derives the immutable launch configuration from a loaded Config.
func NewLaunchConfig(cfg *Config) (*LaunchConfig, error) {
	b := &LaunchConfigBuilder{server: cfg.Server}
	return b.Build()
}

// loadTLS loads the certificate pair and builds the listener TLS configuration.
func loadTLS(cfg *TLSConfig) (*tls.Config, error) {
	if cfg.CertFile == "" {
		return nil, fmt.Errorf("TLS cert file not specified")
	}
	if cfg.KeyFile == "" {
		return nil, fmt.Errorf("TLS key file not specified")
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
	}

	minVersion := uint16(tls.VersionTLS13)
	if cfg.MinVersion == "1.2" {
		minVersion = tls.VersionTLS12
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
	}, nil
}

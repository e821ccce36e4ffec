package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
)

// State is a server lifecycle state.
//
//	NEW -> STARTING -> RUNNING -> STOPPING -> TERMINATED
//	          \-> FAILED
type State int32

const (
	// StateNew is the state of a server that has not been started.
	StateNew State = iota
	// StateStarting is held while resources are acquired and the chain is assembled.
	StateStarting
	// StateRunning means the listener is bound and requests are served.
	StateRunning
	// StateStopping is held while the listener closes and work drains.
	StateStopping
	// StateTerminated is the terminal state after a stop.
	StateTerminated
	// StateFailed is the terminal state after a failed start.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateTerminated:
		return "TERMINATED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateTerminated || s == StateFailed
}

// BoundAddress is the address a running server actually listens on.
type BoundAddress struct {
	Host string
	Port int
}

// String returns "host:port".
func (a BoundAddress) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// ErrIllegalState is returned by Start when the server is not NEW.
var ErrIllegalState = errors.New("illegal server state")

// BindError reports that the listening socket could not be bound.
type BindError struct {
	Address string
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", e.Address, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// AssemblyError reports a failure while preparing the server before it
// binds: allocating pools, starting services or building the handler chain.
type AssemblyError struct {
	Stage string
	Err   error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("server assembly failed (%s): %v", e.Stage, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// Service is a component whose lifetime is tied to the server. Services are
// started during STARTING, after the worker pools, in registration order and
// stopped in reverse order during STOPPING.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

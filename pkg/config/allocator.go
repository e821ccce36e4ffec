package config

import (
	"bytes"
	"fmt"
	"sync"
)

// Buffer allocation strategies.
const (
	AllocatorPooled   = "pooled"
	AllocatorUnpooled = "unpooled"
)

// maxPooledBuffer is the largest buffer capacity returned to the pool.
const maxPooledBuffer = 64 * 1024

// BufferAllocator hands out scratch buffers used to assemble response bodies.
// Implementations must be safe for concurrent use.
type BufferAllocator interface {
	// Get returns an empty buffer.
	Get() *bytes.Buffer

	// Put releases a buffer obtained from Get. The caller must not use it afterwards.
	Put(buf *bytes.Buffer)

	// Strategy returns the configured strategy name.
	Strategy() string
}

// NewBufferAllocator returns the allocator for the named strategy.
func NewBufferAllocator(strategy string) (BufferAllocator, error) {
	switch strategy {
	case AllocatorPooled:
		return newPooledAllocator(), nil
	case AllocatorUnpooled:
		return unpooledAllocator{}, nil
	default:
		return nil, fmt.Errorf("unknown buffer allocator %q: must be 'pooled' or 'unpooled'", strategy)
	}
}

type pooledAllocator struct {
	pool sync.Pool
}

func newPooledAllocator() *pooledAllocator {
	return &pooledAllocator{
		pool: sync.Pool{New: func() any { return new(bytes.Buffer) }},
	}
}

func (a *pooledAllocator) Get() *bytes.Buffer {
	buf := a.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func (a *pooledAllocator) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBuffer {
		return
	}
	a.pool.Put(buf)
}

func (a *pooledAllocator) Strategy() string { return AllocatorPooled }

type unpooledAllocator struct{}

func (unpooledAllocator) Get() *bytes.Buffer { return new(bytes.Buffer) }

func (unpooledAllocator) Put(*bytes.Buffer) {}

func (unpooledAllocator) Strategy() string { return AllocatorUnpooled }

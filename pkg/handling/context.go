package handling

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"mercator-hq/harbor/pkg/config"
	"mercator-hq/harbor/pkg/workers"
)

// Context is the per-request state passed through the handler chain.
// It is owned by the goroutine processing the request.
type Context struct {
	request    *http.Request
	response   *Response
	launch     *config.LaunchConfig
	stopper    Stopper
	slot       *workers.Slot
	background *workers.Background
	logger     *slog.Logger
	allocator  config.BufferAllocator
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLaunchConfig attaches the server's launch configuration.
func WithLaunchConfig(lc *config.LaunchConfig) ContextOption {
	return func(c *Context) { c.launch = lc }
}

// WithStopper attaches the server's Stopper.
func WithStopper(s Stopper) ContextOption {
	return func(c *Context) { c.stopper = s }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) ContextOption {
	return func(c *Context) { c.logger = l }
}

// WithWorkers attaches the worker slot held by the request and the
// background executor used by Blocking.
func WithWorkers(slot *workers.Slot, bg *workers.Background) ContextOption {
	return func(c *Context) {
		c.slot = slot
		c.background = bg
	}
}

// NewContext creates a request context. Without options it uses a no-op
// Stopper, the default logger and an unpooled buffer allocator.
func NewContext(w http.ResponseWriter, r *http.Request, opts ...ContextOption) *Context {
	c := &Context{
		request:  r,
		response: NewResponse(w),
		stopper:  noopStopper{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.launch != nil {
		c.allocator = c.launch.Allocator()
	}
	if c.allocator == nil {
		c.allocator, _ = config.NewBufferAllocator(config.AllocatorUnpooled)
	}
	return c
}

// Request returns the current request.
func (c *Context) Request() *http.Request { return c.request }

// Response returns the status-tracking response writer.
func (c *Context) Response() *Response { return c.response }

// Launch returns the launch configuration, or nil outside a server.
func (c *Context) Launch() *config.LaunchConfig { return c.launch }

// Stopper returns the capability that stops the owning server.
func (c *Context) Stopper() Stopper { return c.stopper }

// Logger returns the request logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Context returns the request's context.Context.
func (c *Context) Context() context.Context { return c.request.Context() }

// SetContext replaces the request context for the handlers further down the chain.
func (c *Context) SetContext(ctx context.Context) {
	c.request = c.request.WithContext(ctx)
}

// SetLogger replaces the request logger for the handlers further down the chain.
func (c *Context) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Render writes a complete response. The body is assembled in a buffer from
// the configured allocator so that Content-Length is known before the
// header is sent.
func (c *Context) Render(status int, contentType string, write func(*bytes.Buffer) error) error {
	buf := c.allocator.Get()
	defer c.allocator.Put(buf)

	if err := write(buf); err != nil {
		return fmt.Errorf("failed to render response: %w", err)
	}

	h := c.response.Header()
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	c.response.WriteHeader(status)

	if c.request.Method == http.MethodHead {
		return nil
	}
	_, err := c.response.Write(buf.Bytes())
	return err
}

// Text writes a plain text response.
func (c *Context) Text(status int, body string) error {
	return c.Render(status, "text/plain; charset=utf-8", func(buf *bytes.Buffer) error {
		_, err := buf.WriteString(body)
		return err
	})
}

// JSON writes v as a JSON response.
func (c *Context) JSON(status int, v any) error {
	return c.Render(status, "application/json", func(buf *bytes.Buffer) error {
		return json.NewEncoder(buf).Encode(v)
	})
}

// Response wraps http.ResponseWriter to record the status and whether the
// response has been committed.
type Response struct {
	http.ResponseWriter
	status    int
	committed bool
	written   int64
}

// NewResponse wraps w.
func NewResponse(w http.ResponseWriter) *Response {
	if r, ok := w.(*Response); ok {
		return r
	}
	return &Response{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader records and sends the status. Later calls are ignored.
func (r *Response) WriteHeader(code int) {
	if r.committed {
		return
	}
	r.status = code
	r.committed = true
	r.ResponseWriter.WriteHeader(code)
}

// Write sends body bytes, committing a 200 status first if needed.
func (r *Response) Write(b []byte) (int, error) {
	if !r.committed {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.written += int64(n)
	return n, err
}

// Status returns the response status. It is 200 until a status is written.
func (r *Response) Status() int { return r.status }

// Committed reports whether the status line has been sent.
func (r *Response) Committed() bool { return r.committed }

// BytesWritten returns the number of body bytes written.
func (r *Response) BytesWritten() int64 { return r.written }

// Unwrap returns the underlying writer for http.ResponseController.
func (r *Response) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Flush implements http.Flusher when the underlying writer does.
func (r *Response) Flush() {
	if !r.committed {
		r.WriteHeader(http.StatusOK)
	}
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker when the underlying writer does.
func (r *Response) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.committed = true
	return hj.Hijack()
}

package handling

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"mercator-hq/harbor/pkg/config"
	"mercator-hq/harbor/pkg/workers"
)

// recorder collects entry and exit events from test decorators.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) decorator(name string) Decorator {
	return func(_ *config.LaunchConfig, next Handler) (Handler, error) {
		return HandlerFunc(func(c *Context) error {
			r.add("enter " + name)
			err := next.Handle(c)
			r.add("exit " + name)
			return err
		}), nil
	}
}

func testLaunch(t *testing.T) *config.LaunchConfig {
	t.Helper()
	lc, err := config.NewLaunchConfigBuilder().Port(0).WorkerThreads(2).BackgroundThreads(2).Build()
	if err != nil {
		t.Fatalf("failed to build launch config: %v", err)
	}
	return lc
}

func TestPipeline_Order(t *testing.T) {
	rec := &recorder{}
	p := NewPipeline(rec.decorator("A"), rec.decorator("B"))
	p.Register(rec.decorator("C"))

	if p.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", p.Len())
	}

	app := HandlerFunc(func(c *Context) error {
		rec.add("app")
		return nil
	})

	chain, err := p.Build(testLaunch(t), app)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	c := NewContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err := chain.Handle(c); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	want := []string{"enter A", "enter B", "enter C", "app", "exit C", "exit B", "exit A"}
	if strings.Join(rec.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
}

func TestPipeline_EmptyReturnsApp(t *testing.T) {
	called := false
	app := HandlerFunc(func(*Context) error { called = true; return nil })

	chain, err := NewPipeline().Build(testLaunch(t), app)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	_ = chain.Handle(NewContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
	if !called {
		t.Error("expected application handler to run")
	}
}

func TestPipeline_BuildFailures(t *testing.T) {
	app := HandlerFunc(func(*Context) error { return nil })
	boom := errors.New("boom")

	tests := []struct {
		name      string
		decorator Decorator
		app       Handler
		wantErr   error
	}{
		{
			name: "decorator error",
			decorator: func(*config.LaunchConfig, Handler) (Handler, error) {
				return nil, boom
			},
			app:     app,
			wantErr: boom,
		},
		{
			name: "decorator panic",
			decorator: func(*config.LaunchConfig, Handler) (Handler, error) {
				panic("assembly exploded")
			},
			app: app,
		},
		{
			name: "nil handler",
			decorator: func(*config.LaunchConfig, Handler) (Handler, error) {
				return nil, nil
			},
			app: app,
		},
		{
			name:      "nil application",
			decorator: nil,
			app:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(tt.decorator)
			chain, err := p.Build(testLaunch(t), tt.app)
			if err == nil {
				t.Fatalf("expected error, got chain %v", chain)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v in chain", err, tt.wantErr)
			}
		})
	}
}

func TestPipeline_DecoratorSeesLaunchConfig(t *testing.T) {
	lc := testLaunch(t)
	var seen *config.LaunchConfig
	p := NewPipeline(func(cfg *config.LaunchConfig, next Handler) (Handler, error) {
		seen = cfg
		return next, nil
	})
	if _, err := p.Build(lc, HandlerFunc(func(*Context) error { return nil })); err != nil {
		t.Fatal(err)
	}
	if seen != lc {
		t.Error("decorator did not receive the launch configuration")
	}
}

func TestContext_Render(t *testing.T) {
	w := httptest.NewRecorder()
	c := NewContext(w, httptest.NewRequest(http.MethodGet, "/", nil), WithLaunchConfig(testLaunch(t)))

	if err := c.JSON(http.StatusCreated, map[string]string{"status": "ok"}); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Content-Length"); got != fmt.Sprint(w.Body.Len()) {
		t.Errorf("Content-Length = %q, body is %d bytes", got, w.Body.Len())
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q", w.Body.String())
	}
	if !c.Response().Committed() || c.Response().Status() != http.StatusCreated {
		t.Error("response state not recorded")
	}
	if c.Response().BytesWritten() != int64(w.Body.Len()) {
		t.Errorf("BytesWritten() = %d", c.Response().BytesWritten())
	}
}

func TestContext_RenderHead(t *testing.T) {
	w := httptest.NewRecorder()
	c := NewContext(w, httptest.NewRequest(http.MethodHead, "/", nil))

	if err := c.Text(http.StatusOK, "hello"); err != nil {
		t.Fatal(err)
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body for HEAD, got %q", w.Body.String())
	}
	if w.Header().Get("Content-Length") != "5" {
		t.Errorf("Content-Length = %q, want 5", w.Header().Get("Content-Length"))
	}
}

func TestResponse_FirstStatusWins(t *testing.T) {
	w := httptest.NewRecorder()
	r := NewResponse(w)
	if r.Status() != http.StatusOK || r.Committed() {
		t.Fatal("unexpected initial state")
	}

	r.WriteHeader(http.StatusTeapot)
	r.WriteHeader(http.StatusInternalServerError)

	if r.Status() != http.StatusTeapot || w.Code != http.StatusTeapot {
		t.Errorf("status = %d/%d, want 418", r.Status(), w.Code)
	}
	if NewResponse(r) != r {
		t.Error("expected NewResponse to reuse an existing Response")
	}
}

func TestContext_SetContext(t *testing.T) {
	type key struct{}
	c := NewContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	c.SetContext(context.WithValue(c.Context(), key{}, "v"))

	if c.Request().Context().Value(key{}) != "v" {
		t.Error("expected request context to be replaced")
	}
}

func TestStatusOf(t *testing.T) {
	if got := StatusOf(errors.New("x")); got != http.StatusInternalServerError {
		t.Errorf("StatusOf(plain) = %d", got)
	}
	wrapped := fmt.Errorf("wrap: %w", NewHandlerError(http.StatusNotFound, errors.New("missing")))
	if got := StatusOf(wrapped); got != http.StatusNotFound {
		t.Errorf("StatusOf(wrapped) = %d", got)
	}
}

func TestAdapter_ServeHTTP(t *testing.T) {
	group, _ := workers.NewGroup(1)
	stopped := make(chan struct{}, 1)

	var activeDuring int
	chain := HandlerFunc(func(c *Context) error {
		activeDuring = group.Active()
		switch c.Request().URL.Path {
		case "/fail":
			return errors.New("handler failed")
		case "/missing":
			return NewHandlerError(http.StatusNotFound, nil)
		case "/partial":
			_ = c.Text(http.StatusAccepted, "done")
			return errors.New("late failure")
		case "/stop":
			c.Stopper().Stop()
		}
		return c.Text(http.StatusOK, "ok")
	})

	a := NewAdapter(AdapterConfig{
		Chain:   chain,
		Launch:  testLaunch(t),
		Group:   group,
		Stopper: StopperFunc(func() { stopped <- struct{}{} }),
	})

	tests := []struct {
		path   string
		status int
	}{
		{"/", http.StatusOK},
		{"/fail", http.StatusInternalServerError},
		{"/missing", http.StatusNotFound},
		{"/partial", http.StatusAccepted},
		{"/stop", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			a.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if activeDuring != 1 {
				t.Errorf("expected one active slot during handling, got %d", activeDuring)
			}
			if group.Active() != 0 {
				t.Errorf("slot leaked: Active() = %d", group.Active())
			}
		})
	}

	select {
	case <-stopped:
	default:
		t.Error("expected Stopper to be invoked")
	}
}

func TestAdapter_ClosedGroup(t *testing.T) {
	group, _ := workers.NewGroup(1)
	_ = group.Shutdown(context.Background())

	a := NewAdapter(AdapterConfig{
		Chain: HandlerFunc(func(c *Context) error { return c.Text(http.StatusOK, "ok") }),
		Group: group,
	})

	w := httptest.NewRecorder()
	a.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestBlocking_ReleasesSlot(t *testing.T) {
	group, _ := workers.NewGroup(1)
	bg, _ := workers.NewBackground(1)

	slot, err := group.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer slot.Release()

	c := NewContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil),
		WithWorkers(slot, bg))

	got, err := Blocking(c, func(context.Context) (int, error) {
		// The only slot is free while blocking work runs.
		if group.Active() != 0 {
			return 0, fmt.Errorf("slot still held: %d", group.Active())
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Blocking() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Blocking() = %d, want 42", got)
	}
	if group.Active() != 1 {
		t.Errorf("expected slot reacquired, Active() = %d", group.Active())
	}
}

func TestBlocking_WithoutExecutor(t *testing.T) {
	c := NewContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	want := errors.New("io failure")

	_, err := Blocking(c, func(context.Context) (string, error) { return "", want })
	if !errors.Is(err, want) {
		t.Errorf("Blocking() error = %v, want %v", err, want)
	}
}

func TestFromHTTP(t *testing.T) {
	h := FromHTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	w := httptest.NewRecorder()
	c := NewContext(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if err := h.Handle(c); err != nil {
		t.Fatal(err)
	}
	if c.Response().Status() != http.StatusNoContent {
		t.Errorf("status = %d, want 204", c.Response().Status())
	}
}

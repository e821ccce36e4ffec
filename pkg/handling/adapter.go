package handling

import (
	"errors"
	"log/slog"
	"net/http"

	"mercator-hq/harbor/pkg/config"
	"mercator-hq/harbor/pkg/workers"
)

// Adapter serves an assembled handler chain over net/http. Every request
// holds one worker slot for as long as it runs on a request worker.
type Adapter struct {
	chain      Handler
	launch     *config.LaunchConfig
	group      *workers.Group
	background *workers.Background
	stopper    Stopper
	logger     *slog.Logger
}

// AdapterConfig holds the collaborators of an Adapter.
type AdapterConfig struct {
	Chain      Handler
	Launch     *config.LaunchConfig
	Group      *workers.Group
	Background *workers.Background
	Stopper    Stopper
	Logger     *slog.Logger
}

// NewAdapter creates an Adapter. Chain and Group are required.
func NewAdapter(cfg AdapterConfig) *Adapter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stopper := cfg.Stopper
	if stopper == nil {
		stopper = noopStopper{}
	}
	return &Adapter{
		chain:      cfg.Chain,
		launch:     cfg.Launch,
		group:      cfg.Group,
		background: cfg.Background,
		stopper:    stopper,
		logger:     logger,
	}
}

// ServeHTTP implements http.Handler.
func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slot, err := a.group.Acquire(r.Context())
	if err != nil {
		if errors.Is(err, workers.ErrClosed) {
			w.Header().Set("Connection", "close")
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
		// Otherwise the client went away while waiting for a slot.
		return
	}
	defer slot.Release()

	c := NewContext(w, r,
		WithLaunchConfig(a.launch),
		WithStopper(a.stopper),
		WithLogger(a.logger),
		WithWorkers(slot, a.background),
	)

	if err := a.chain.Handle(c); err != nil {
		status := StatusOf(err)
		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		c.Logger().Log(c.Context(), level, "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)

		if !c.Response().Committed() {
			http.Error(c.Response(), http.StatusText(status), status)
		}
	}
}

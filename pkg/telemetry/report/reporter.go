package report

import (
	"context"
	"regexp"

	"mercator-hq/harbor/pkg/telemetry/metrics"
)

// Reporter exports metric snapshots to an external sink.
type Reporter interface {
	// Name identifies the reporter in logs.
	Name() string

	// Report writes one snapshot.
	Report(ctx context.Context, snap metrics.Snapshot) error

	// Close releases the sink. Report must not be called afterwards.
	Close() error
}

// Source provides the snapshots to report. *metrics.Registry implements it.
type Source interface {
	Snapshot() metrics.Snapshot
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitize turns a metric name into a safe file name component.
func sanitize(name string) string {
	s := unsafeChars.ReplaceAllString(name, "_")
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}

package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"mercator-hq/harbor/pkg/telemetry/metrics"
)

// ConsoleReporter prints snapshots as aligned tables.
//
// Example output:
//
//	-- 2026-10-18T10:30:00Z --------------------------------
//	GAUGE        VALUE
//	queue.depth  3
//
//	TIMER     COUNT  FAILURES  MEAN    MAX
//	GET /     12     0         1.2ms   4.1ms
type ConsoleReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleReporter creates a reporter writing to w, or stdout when w is nil.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleReporter{w: w}
}

// Name implements Reporter.
func (r *ConsoleReporter) Name() string { return "console" }

// Report implements Reporter.
func (r *ConsoleReporter) Report(_ context.Context, snap metrics.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "-- %s --------------------------------\n", snap.Timestamp.UTC().Format(time.RFC3339))

	if len(snap.Gauges) > 0 {
		fmt.Fprintln(tw, "GAUGE\tVALUE")
		for _, g := range snap.Gauges {
			fmt.Fprintf(tw, "%s\t%g\n", g.Name, g.Value)
		}
		fmt.Fprintln(tw)
	}

	if len(snap.Timers) > 0 {
		fmt.Fprintln(tw, "TIMER\tCOUNT\tFAILURES\tMEAN\tMAX")
		for _, t := range snap.Timers {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", t.Name, t.Count, t.Failures, t.Mean, t.Max)
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

// Close implements Reporter. The writer is owned by the caller.
func (r *ConsoleReporter) Close() error { return nil }

package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"mercator-hq/harbor/pkg/telemetry/metrics"
)

var (
	gaugeHeader = []string{"t", "value"}
	timerHeader = []string{"t", "count", "failures", "mean_ns", "max_ns", "total_ns"}
)

// CSVReporter appends every metric to its own CSV file in a directory.
// Gauges go to gauge.<name>.csv and timers to timer.<name>.csv. A header
// row is written when a file is created. The t column is a Unix timestamp
// in seconds.
type CSVReporter struct {
	mu  sync.Mutex
	dir string
}

// NewCSVReporter creates a reporter writing into dir, creating it if needed.
func NewCSVReporter(dir string) (*CSVReporter, error) {
	if dir == "" {
		return nil, errors.New("csv report directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &CSVReporter{dir: dir}, nil
}

// Name implements Reporter.
func (r *CSVReporter) Name() string { return "csv" }

// Dir returns the output directory.
func (r *CSVReporter) Dir() string { return r.dir }

// Report implements Reporter.
func (r *CSVReporter) Report(ctx context.Context, snap metrics.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := strconv.FormatInt(snap.Timestamp.Unix(), 10)

	var errs []error
	for _, g := range snap.Gauges {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := []string{ts, strconv.FormatFloat(g.Value, 'g', -1, 64)}
		errs = append(errs, r.append("gauge."+sanitize(g.Name)+".csv", gaugeHeader, row))
	}
	for _, t := range snap.Timers {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := []string{
			ts,
			strconv.FormatInt(t.Count, 10),
			strconv.FormatInt(t.Failures, 10),
			strconv.FormatInt(int64(t.Mean), 10),
			strconv.FormatInt(int64(t.Max), 10),
			strconv.FormatInt(int64(t.Total), 10),
		}
		errs = append(errs, r.append("timer."+sanitize(t.Name)+".csv", timerHeader, row))
	}
	return errors.Join(errs...)
}

// append writes row to the named file, writing header first for an empty file.
func (r *CSVReporter) append(name string, header, row []string) (err error) {
	path := filepath.Join(r.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Close implements Reporter. Files are closed after every write.
func (r *CSVReporter) Close() error { return nil }

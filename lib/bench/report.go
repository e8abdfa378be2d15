package bench

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/olekukonko/tablewriter"
)

// Timing is the measured duration of one access pattern on one backend
type Timing struct {
	Backend string
	Pattern string
	Elapsed time.Duration
}

// Millis returns the elapsed time in milliseconds (microsecond resolution)
func (t Timing) Millis() float64 {
	return float64(t.Elapsed.Microseconds()) / 1000
}

// String returns the report line of the timing
func (t Timing) String() string {
	return fmt.Sprintf("Runtime %s for %s: %.3fms", t.Backend, t.Pattern, t.Millis())
}

// Reporter receives every timing as soon as it was measured
type Reporter interface {
	Record(t Timing)
}

// ReporterFunc adapts a function to a Reporter
type ReporterFunc func(t Timing)

func (f ReporterFunc) Record(t Timing) { f(t) }

// Report prints every timing as a line to its writer and keeps all timings
// for the summary outputs (CSV, Prometheus text format, table).
type Report struct {
	out io.Writer

	mu      sync.Mutex
	timings []Timing
	set     *metrics.Set
}

// NewReport creates a report that prints the timing lines to out
func NewReport(out io.Writer) *Report {
	return &Report{
		out: out,
		set: metrics.NewSet(),
	}
}

// Record prints the line of the timing and records it
func (r *Report) Record(t Timing) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintln(r.out, t.String())
	r.timings = append(r.timings, t)
	r.set.GetOrCreateHistogram(
		fmt.Sprintf(`kvbench_pattern_duration_seconds{backend=%q,pattern=%q}`, t.Backend, t.Pattern),
	).Update(t.Elapsed.Seconds())
}

// Timings returns all recorded timings in order
func (r *Report) Timings() []Timing {
	r.mu.Lock()
	defer r.mu.Unlock()

	timings := make([]Timing, len(r.timings))
	copy(timings, r.timings)
	return timings
}

// WriteCSV writes all timings as CSV with the columns backend, pattern, elapsed_ms
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"backend", "pattern", "elapsed_ms"}); err != nil {
		return err
	}
	for _, t := range r.Timings() {
		if err := cw.Write([]string{t.Backend, t.Pattern, strconv.FormatFloat(t.Millis(), 'f', 3, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePrometheus writes the duration histograms in the Prometheus text format
func (r *Report) WritePrometheus(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set.WritePrometheus(w)
}

// RenderTable renders all timings as a table
func (r *Report) RenderTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Backend", "Pattern", "Elapsed (ms)"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, t := range r.Timings() {
		table.Append([]string{t.Backend, t.Pattern, fmt.Sprintf("%.3f", t.Millis())})
	}
	table.Render()
}

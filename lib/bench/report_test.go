package bench

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimingString(t *testing.T) {
	tests := []struct {
		elapsed  time.Duration
		expected string
	}{
		{1500 * time.Microsecond, "Runtime Memory for batch write: 1.500ms"},
		{0, "Runtime Memory for batch write: 0.000ms"},
		{2*time.Second + 1234567*time.Nanosecond, "Runtime Memory for batch write: 2001.234ms"},
	}

	for _, tt := range tests {
		timing := Timing{Backend: "Memory", Pattern: PatternBatchWrite, Elapsed: tt.elapsed}
		require.Equal(t, tt.expected, timing.String())
	}
}

func newTestReport(out *bytes.Buffer) *Report {
	report := NewReport(out)
	report.Record(Timing{Backend: "Memory", Pattern: PatternBatchWrite, Elapsed: 1500 * time.Microsecond})
	report.Record(Timing{Backend: "Memory", Pattern: PatternMultiRead, Elapsed: 250 * time.Microsecond})
	return report
}

func TestReportPrintsLines(t *testing.T) {
	var out bytes.Buffer
	report := newTestReport(&out)

	require.Equal(t,
		"Runtime Memory for batch write: 1.500ms\nRuntime Memory for multi_read: 0.250ms\n",
		out.String(),
	)
	require.Len(t, report.Timings(), 2)
}

func TestReportWriteCSV(t *testing.T) {
	report := newTestReport(&bytes.Buffer{})

	var csv bytes.Buffer
	require.NoError(t, report.WriteCSV(&csv))
	require.Equal(t,
		"backend,pattern,elapsed_ms\nMemory,batch write,1.500\nMemory,multi_read,0.250\n",
		csv.String(),
	)
}

func TestReportWritePrometheus(t *testing.T) {
	report := newTestReport(&bytes.Buffer{})

	var prom bytes.Buffer
	report.WritePrometheus(&prom)
	require.Contains(t, prom.String(), `kvbench_pattern_duration_seconds_count{backend="Memory",pattern="batch write"} 1`)
	require.Contains(t, prom.String(), `kvbench_pattern_duration_seconds_count{backend="Memory",pattern="multi_read"} 1`)
}

func TestReportRenderTable(t *testing.T) {
	report := newTestReport(&bytes.Buffer{})

	var table bytes.Buffer
	report.RenderTable(&table)
	require.Contains(t, table.String(), "Memory")
	require.Contains(t, table.String(), "batch write")
	require.Contains(t, table.String(), "1.500")
}

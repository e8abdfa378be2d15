package bench

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/engines/memory"
	"github.com/stretchr/testify/require"
)

var lineRegex = regexp.MustCompile(`^Runtime Memory for (batch write|loop write|futures write|multi_read|loop read|futures read): \d+\.\d{3}ms$`)

func TestRunEndToEnd(t *testing.T) {
	var out bytes.Buffer
	report := NewReport(&out)

	err := Run(context.Background(), DefaultConfig(100, 10, 100), []store.TestDatabase{memory.NewDatabase(nil)}, report)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	for _, line := range lines {
		require.Regexp(t, lineRegex, line)
	}
	require.Equal(t,
		[]string{PatternBatchWrite, PatternLoopWrite, PatternFuturesWrite, PatternMultiRead, PatternLoopRead, PatternFuturesRead},
		patterns(report.Timings()),
	)
}

func TestRunSkipWrite(t *testing.T) {
	cfg := DefaultConfig(10, 4, 4)
	cfg.SkipWrite = true
	cfg.OpStats = true

	var timings []Timing
	err := Run(context.Background(), cfg, []store.TestDatabase{memory.NewDatabase(nil)}, collect(&timings))
	require.NoError(t, err)
	require.Equal(t, []string{PatternMultiRead, PatternLoopRead, PatternFuturesRead}, patterns(timings))
}

func TestRunStopsAtFailingBackend(t *testing.T) {
	failing := store.NewTestDatabase("Failing", func(context.Context) (store.Store, error) {
		return nil, store.NewError(store.RetCBackendError, "connection refused")
	})

	var secondCalls atomic.Int64
	second := store.NewTestDatabase("Second", func(ctx context.Context) (store.Store, error) {
		secondCalls.Add(1)
		return memory.NewStore(nil), nil
	})

	var timings []Timing
	err := Run(context.Background(), DefaultConfig(10, 4, 4), []store.TestDatabase{failing, second}, collect(&timings))
	require.Error(t, err)
	require.Contains(t, err.Error(), "backend Failing")
	require.Contains(t, err.Error(), "connection refused")

	require.Empty(t, timings)
	require.Zero(t, secondCalls.Load())
}

func TestRunStopsAtFailingWrite(t *testing.T) {
	failing := wrapDatabase("Failing", func(s store.Store) store.Store { return &failingStore{Store: s} })

	var secondCalls atomic.Int64
	second := store.NewTestDatabase("Second", func(ctx context.Context) (store.Store, error) {
		secondCalls.Add(1)
		return memory.NewStore(nil), nil
	})

	var timings []Timing
	err := Run(context.Background(), DefaultConfig(10, 4, 4), []store.TestDatabase{failing, second}, collect(&timings))
	require.Error(t, err)
	require.Contains(t, err.Error(), "backend Failing")
	require.Contains(t, err.Error(), PatternBatchWrite)
	require.Contains(t, err.Error(), "disk on fire")

	// no write or read pattern of the failing backend finished
	require.Empty(t, timings)
	require.Zero(t, secondCalls.Load())
}

func TestRunRunsBackendsInOrder(t *testing.T) {
	first := wrapDatabase("First", func(s store.Store) store.Store { return s })
	second := wrapDatabase("Second", func(s store.Store) store.Store { return s })

	var timings []Timing
	err := Run(context.Background(), DefaultConfig(5, 4, 4), []store.TestDatabase{first, second}, collect(&timings))
	require.NoError(t, err)
	require.Len(t, timings, 12)
	for i, timing := range timings {
		if i < 6 {
			require.Equal(t, "First", timing.Backend)
		} else {
			require.Equal(t, "Second", timing.Backend)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig(0, 0, 0).Validate())
	require.Error(t, DefaultConfig(-1, 10, 10).Validate())

	cfg := DefaultConfig(1, 1, 1)
	cfg.MaxConcurrency = -1
	require.Error(t, cfg.Validate())
}

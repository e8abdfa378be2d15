package bench

import (
	"context"
	"slices"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/engines/memory"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestRunWrite(t *testing.T) {
	db := newCountingDatabase(memory.NewDatabase(nil))
	data := BuildDataset(NewKeyGenerator(DefaultSeed), 50, 8, 8)

	var timings []Timing
	err := NewRunner(collect(&timings), 0).RunWrite(context.Background(), db, data)
	require.NoError(t, err)

	require.Equal(t, []string{PatternBatchWrite, PatternLoopWrite, PatternFuturesWrite}, patterns(timings))
	for _, timing := range timings {
		require.Equal(t, memory.Name, timing.Backend)
	}

	// every pattern uses its own store
	require.Equal(t, int64(3), db.created.Load())
	require.Equal(t, int64(3), db.closed.Load())
}

func TestRunRead(t *testing.T) {
	db := newCountingDatabase(memory.NewDatabase(nil))
	data := BuildDataset(NewKeyGenerator(DefaultSeed), 50, 8, 8)

	var timings []Timing
	err := NewRunner(collect(&timings), 0).RunRead(context.Background(), db, data)
	require.NoError(t, err)

	require.Equal(t, []string{PatternMultiRead, PatternLoopRead, PatternFuturesRead}, patterns(timings))

	// all read patterns share one store
	require.Equal(t, int64(1), db.created.Load())
	require.Equal(t, int64(1), db.closed.Load())
}

func TestRunReadIsRepeatable(t *testing.T) {
	db := memory.NewDatabase(nil)
	data := BuildDataset(NewKeyGenerator(DefaultSeed), 20, 4, 4)
	runner := NewRunner(ReporterFunc(func(Timing) {}), 0)

	for i := 0; i < 3; i++ {
		require.NoError(t, runner.RunRead(context.Background(), db, data))
	}
}

func TestRunReadKeepsOrderOfConcurrentReads(t *testing.T) {
	db := wrapDatabase("Delaying", func(s store.Store) store.Store { return &delayingStore{Store: s} })
	data := BuildDataset(NewKeyGenerator(DefaultSeed), 64, 4, 4)

	for _, limit := range []int{0, 1, 4} {
		var timings []Timing
		err := NewRunner(collect(&timings), limit).RunRead(context.Background(), db, data)
		require.NoError(t, err, "max concurrency %d", limit)
		require.Len(t, timings, 3)
	}
}

func TestRunReadDetectsMismatch(t *testing.T) {
	db := wrapDatabase("Reversing", func(s store.Store) store.Store { return &reversingStore{Store: s} })
	data := BuildDataset(NewKeyGenerator(DefaultSeed), 10, 4, 4)

	var timings []Timing
	err := NewRunner(collect(&timings), 0).RunRead(context.Background(), db, data)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrResultMismatch))
	require.Contains(t, err.Error(), PatternMultiRead)
	require.Contains(t, err.Error(), "index 0")
	require.Empty(t, timings)
}

func TestRunWriteStopsAtFirstError(t *testing.T) {
	db := newCountingDatabase(wrapDatabase("Failing", func(s store.Store) store.Store { return &failingStore{Store: s} }))
	data := BuildDataset(NewKeyGenerator(DefaultSeed), 10, 4, 4)

	var timings []Timing
	err := NewRunner(collect(&timings), 0).RunWrite(context.Background(), db, data)
	require.Error(t, err)
	require.Contains(t, err.Error(), PatternBatchWrite)
	require.Contains(t, err.Error(), "disk on fire")

	var se *store.Error
	require.True(t, errors.As(err, &se))
	require.Equal(t, store.RetCBackendError, se.Code)

	require.Empty(t, timings)
	require.Equal(t, int64(1), db.created.Load())
	require.Equal(t, int64(1), db.closed.Load())
}

func TestVerify(t *testing.T) {
	expected := []store.Lookup{store.Found([]byte("a")), store.Found([]byte{})}

	tests := []struct {
		name    string
		values  []store.Lookup
		wantErr bool
	}{
		{"equal", []store.Lookup{store.Found([]byte("a")), store.Found(nil)}, false},
		{"missing", []store.Lookup{store.Found([]byte("a")), {}}, true},
		{"wrong value", []store.Lookup{store.Found([]byte("b")), store.Found([]byte{})}, true},
		{"too short", []store.Lookup{store.Found([]byte("a"))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verify("test", tt.values, expected)
			if tt.wantErr {
				require.True(t, errors.Is(err, ErrResultMismatch))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestWritePatternsPrepareBatchesBeforeRun(t *testing.T) {
	data := BuildDataset(NewKeyGenerator(DefaultSeed), 20, 8, 8)
	r := NewRunner(collect(new([]Timing)), 4)

	tests := []struct {
		name        string
		prepare     func(*Dataset) writeFunc
		wantBatches int
		wantLen     int
	}{
		{PatternBatchWrite, r.batchWrite, 1, 20},
		{PatternLoopWrite, r.loopWrite, 20, 1},
		{PatternFuturesWrite, r.futuresWrite, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := tt.prepare(data)

			first := &recordingStore{Store: memory.NewStore(nil)}
			second := &recordingStore{Store: memory.NewStore(nil)}
			require.NoError(t, run(context.Background(), first))
			require.NoError(t, run(context.Background(), second))

			require.Len(t, first.batches, tt.wantBatches)
			require.Len(t, second.batches, tt.wantBatches)
			for _, b := range first.batches {
				require.Equal(t, tt.wantLen, b.Len())
				// the same batches are reused, nothing is built while the pattern runs
				require.True(t, slices.Contains(second.batches, b))
			}
		})
	}
}

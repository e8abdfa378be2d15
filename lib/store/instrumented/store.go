// Package instrumented wraps a store.TestDatabase so that every operation of its
// stores is timed with a go-metrics Timer.
package instrumented

import (
	"context"
	"time"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/rcrowley/go-metrics"
)

// Timer names
const (
	OpWriteBatch      = "write_batch"
	OpReadValue       = "read_value"
	OpReadMultiValues = "read_multi_values"
)

// Ops lists the timer names in report order
var Ops = []string{OpWriteBatch, OpReadValue, OpReadMultiValues}

type database struct {
	inner    store.TestDatabase
	registry metrics.Registry
}

// Wrap returns a TestDatabase with the same name whose stores record the duration
// of every call in the timers of registry. Failed calls are timed as well.
func Wrap(db store.TestDatabase, registry metrics.Registry) store.TestDatabase {
	return &database{inner: db, registry: registry}
}

func (d *database) Name() string { return d.inner.Name() }

func (d *database) NewTestStore(ctx context.Context) (store.Store, error) {
	s, err := d.inner.NewTestStore(ctx)
	if err != nil {
		return nil, err
	}
	return &storeImpl{
		inner:     s,
		write:     metrics.GetOrRegisterTimer(OpWriteBatch, d.registry),
		read:      metrics.GetOrRegisterTimer(OpReadValue, d.registry),
		readMulti: metrics.GetOrRegisterTimer(OpReadMultiValues, d.registry),
	}, nil
}

type storeImpl struct {
	inner     store.Store
	write     metrics.Timer
	read      metrics.Timer
	readMulti metrics.Timer
}

func (s *storeImpl) WriteBatch(ctx context.Context, batch *store.Batch) error {
	defer s.write.UpdateSince(time.Now())
	return s.inner.WriteBatch(ctx, batch)
}

func (s *storeImpl) ReadValue(ctx context.Context, key []byte) ([]byte, bool, error) {
	defer s.read.UpdateSince(time.Now())
	return s.inner.ReadValue(ctx, key)
}

func (s *storeImpl) ReadMultiValues(ctx context.Context, keys [][]byte) ([]store.Lookup, error) {
	defer s.readMulti.UpdateSince(time.Now())
	return s.inner.ReadMultiValues(ctx, keys)
}

func (s *storeImpl) Close() error {
	return s.inner.Close()
}

// OpStats summarizes the timer of one operation
type OpStats struct {
	Op    string
	Count int64
	Mean  time.Duration
	P99   time.Duration
}

// Stats returns the statistics of all operations that were called at least once, in the order of Ops
func Stats(registry metrics.Registry) []OpStats {
	var stats []OpStats
	for _, op := range Ops {
		t, ok := registry.Get(op).(metrics.Timer)
		if !ok {
			continue
		}
		snap := t.Snapshot()
		if snap.Count() == 0 {
			continue
		}
		stats = append(stats, OpStats{
			Op:    op,
			Count: snap.Count(),
			Mean:  time.Duration(snap.Mean()),
			P99:   time.Duration(snap.Percentile(0.99)),
		})
	}
	return stats
}

package bench

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/engines/memory"
)

// countingDatabase counts created and closed stores
type countingDatabase struct {
	inner   store.TestDatabase
	created atomic.Int64
	closed  atomic.Int64
}

func newCountingDatabase(inner store.TestDatabase) *countingDatabase {
	return &countingDatabase{inner: inner}
}

func (d *countingDatabase) Name() string { return d.inner.Name() }

func (d *countingDatabase) NewTestStore(ctx context.Context) (store.Store, error) {
	s, err := d.inner.NewTestStore(ctx)
	if err != nil {
		return nil, err
	}
	d.created.Add(1)
	return &closeHook{Store: s, onClose: func() { d.closed.Add(1) }}, nil
}

type closeHook struct {
	store.Store
	onClose func()
}

func (s *closeHook) Close() error {
	s.onClose()
	return s.Store.Close()
}

// delayingStore delays point reads by an amount that decreases with the key's first byte,
// so concurrent reads complete out of order
type delayingStore struct {
	store.Store
}

func (s *delayingStore) ReadValue(ctx context.Context, key []byte) ([]byte, bool, error) {
	if len(key) > 0 {
		time.Sleep(time.Duration(255-int(key[0])) * 10 * time.Microsecond)
	}
	return s.Store.ReadValue(ctx, key)
}

// reversingStore returns the multi read results in reverse order
type reversingStore struct {
	store.Store
}

func (s *reversingStore) ReadMultiValues(ctx context.Context, keys [][]byte) ([]store.Lookup, error) {
	values, err := s.Store.ReadMultiValues(ctx, keys)
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}
	return values, err
}

// failingStore fails every write
type failingStore struct {
	store.Store
}

func (s *failingStore) WriteBatch(context.Context, *store.Batch) error {
	return store.NewError(store.RetCBackendError, "disk on fire")
}

// wrapDatabase returns a memory database whose stores are wrapped by wrap
func wrapDatabase(name string, wrap func(store.Store) store.Store) store.TestDatabase {
	inner := memory.NewDatabase(nil)
	return store.NewTestDatabase(name, func(ctx context.Context) (store.Store, error) {
		s, err := inner.NewTestStore(ctx)
		if err != nil {
			return nil, err
		}
		return wrap(s), nil
	})
}

// collect returns a reporter that appends all timings to the slice
func collect(timings *[]Timing) Reporter {
	return ReporterFunc(func(t Timing) {
		*timings = append(*timings, t)
	})
}

func patterns(timings []Timing) []string {
	names := make([]string, len(timings))
	for i, t := range timings {
		names[i] = t.Pattern
	}
	return names
}

// recordingStore records every batch passed to WriteBatch
type recordingStore struct {
	store.Store
	mu      sync.Mutex
	batches []*store.Batch
}

func (s *recordingStore) WriteBatch(ctx context.Context, batch *store.Batch) error {
	s.mu.Lock()
	s.batches = append(s.batches, batch)
	s.mu.Unlock()
	return s.Store.WriteBatch(ctx, batch)
}

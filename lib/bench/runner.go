package bench

import (
	"context"
	"time"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/sync/errgroup"
)

// Access pattern labels
const (
	PatternBatchWrite   = "batch write"
	PatternLoopWrite    = "loop write"
	PatternFuturesWrite = "futures write"
	PatternMultiRead    = "multi_read"
	PatternLoopRead     = "loop read"
	PatternFuturesRead  = "futures read"
)

// ErrResultMismatch marks a read pattern whose result differs from the written dataset
var ErrResultMismatch = errors.New("result mismatch")

var log = logger.GetLogger("bench")

// Runner measures the write and read access patterns against a backend
// and passes every timing to its Reporter.
type Runner struct {
	reporter       Reporter
	maxConcurrency int
}

// NewRunner creates a runner. maxConcurrency bounds the number of goroutines of
// the futures patterns (0 = one goroutine per key).
func NewRunner(reporter Reporter, maxConcurrency int) *Runner {
	return &Runner{reporter: reporter, maxConcurrency: maxConcurrency}
}

// --------------------------------------------------------------------------
// Write patterns
// --------------------------------------------------------------------------

// writeFunc performs one write pattern against a store
type writeFunc func(ctx context.Context, s store.Store) error

// RunWrite measures the three write patterns. Every pattern writes the whole dataset
// into its own fresh store, which is closed afterwards. The batches are built before
// the timer starts, so only the WriteBatch calls are measured. The first error aborts.
func (r *Runner) RunWrite(ctx context.Context, db store.TestDatabase, data *Dataset) error {
	patterns := []struct {
		name    string
		prepare func(data *Dataset) writeFunc
	}{
		{PatternBatchWrite, r.batchWrite},
		{PatternLoopWrite, r.loopWrite},
		{PatternFuturesWrite, r.futuresWrite},
	}

	for _, p := range patterns {
		s, err := db.NewTestStore(ctx)
		if err != nil {
			return errors.Wrapf(err, "%s: failed to create store", p.name)
		}
		run := p.prepare(data)

		start := time.Now()
		err = run(ctx, s)
		elapsed := time.Since(start)

		closeStore(db.Name(), s)
		if err != nil {
			return errors.Wrapf(err, "%s", p.name)
		}
		r.reporter.Record(Timing{Backend: db.Name(), Pattern: p.name, Elapsed: elapsed})
	}
	return nil
}

func (r *Runner) batchWrite(data *Dataset) writeFunc {
	batch := data.Batch()
	return func(ctx context.Context, s store.Store) error {
		return s.WriteBatch(ctx, batch)
	}
}

// singleBatches returns one batch with a single put per pair
func singleBatches(data *Dataset) []*store.Batch {
	pairs := data.Pairs()
	batches := make([]*store.Batch, len(pairs))
	for i, p := range pairs {
		batches[i] = store.NewBatch()
		batches[i].Put(p.Key, p.Value)
	}
	return batches
}

func (r *Runner) loopWrite(data *Dataset) writeFunc {
	batches := singleBatches(data)
	return func(ctx context.Context, s store.Store) error {
		for _, batch := range batches {
			if err := s.WriteBatch(ctx, batch); err != nil {
				return err
			}
		}
		return nil
	}
}

func (r *Runner) futuresWrite(data *Dataset) writeFunc {
	batches := singleBatches(data)
	return func(ctx context.Context, s store.Store) error {
		g, gctx := r.group(ctx)
		for _, batch := range batches {
			batch := batch
			g.Go(func() error {
				return s.WriteBatch(gctx, batch)
			})
		}
		return g.Wait()
	}
}

// --------------------------------------------------------------------------
// Read patterns
// --------------------------------------------------------------------------

// RunRead populates one fresh store with a single batch and measures the three read
// patterns on it. Every result must equal data.Expected(), otherwise an error marked
// with ErrResultMismatch is returned.
func (r *Runner) RunRead(ctx context.Context, db store.TestDatabase, data *Dataset) error {
	s, err := db.NewTestStore(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create store")
	}
	defer closeStore(db.Name(), s)

	if err := s.WriteBatch(ctx, data.Batch()); err != nil {
		return errors.Wrap(err, "failed to populate store")
	}

	patterns := []struct {
		name string
		run  func(ctx context.Context, s store.Store, keys [][]byte) ([]store.Lookup, error)
	}{
		{PatternMultiRead, r.multiRead},
		{PatternLoopRead, r.loopRead},
		{PatternFuturesRead, r.futuresRead},
	}

	for _, p := range patterns {
		keys := data.Keys()
		expected := data.Expected()

		start := time.Now()
		values, err := p.run(ctx, s, keys)
		elapsed := time.Since(start)

		if err != nil {
			return errors.Wrapf(err, "%s", p.name)
		}
		if err := verify(p.name, values, expected); err != nil {
			return err
		}
		r.reporter.Record(Timing{Backend: db.Name(), Pattern: p.name, Elapsed: elapsed})
	}
	return nil
}

func (r *Runner) multiRead(ctx context.Context, s store.Store, keys [][]byte) ([]store.Lookup, error) {
	return s.ReadMultiValues(ctx, keys)
}

func (r *Runner) loopRead(ctx context.Context, s store.Store, keys [][]byte) ([]store.Lookup, error) {
	values := make([]store.Lookup, len(keys))
	for i, key := range keys {
		value, found, err := s.ReadValue(ctx, key)
		if err != nil {
			return nil, err
		}
		if found {
			values[i] = store.Found(value)
		}
	}
	return values, nil
}

func (r *Runner) futuresRead(ctx context.Context, s store.Store, keys [][]byte) ([]store.Lookup, error) {
	values := make([]store.Lookup, len(keys))
	g, gctx := r.group(ctx)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			value, found, err := s.ReadValue(gctx, key)
			if err != nil {
				return err
			}
			if found {
				values[i] = store.Found(value)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func (r *Runner) group(ctx context.Context) (*errgroup.Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	if r.maxConcurrency > 0 {
		g.SetLimit(r.maxConcurrency)
	}
	return g, gctx
}

// verify compares the result of a read pattern with the expected lookups
func verify(pattern string, values, expected []store.Lookup) error {
	if len(values) != len(expected) {
		return errors.Wrapf(ErrResultMismatch, "%s: expected %d results, got %d", pattern, len(expected), len(values))
	}
	for i := range expected {
		if !values[i].Equal(expected[i]) {
			return errors.Wrapf(ErrResultMismatch, "%s: index %d: expected %s, got %s", pattern, i, expected[i], values[i])
		}
	}
	return nil
}

// closeStore closes a store after a pattern. Failures are logged only.
func closeStore(backend string, s store.Store) {
	if err := s.Close(); err != nil {
		log.Warningf("failed to close %s store: %v", backend, err)
	}
}

package pebble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/cockroachdb/pebble"
	"github.com/lni/dragonboat/v4/logger"
)

const Name = "Pebble"

var log = logger.GetLogger("pebble")

// Options configures the pebble backend
type Options struct {
	BaseDir string // Directory in which the per-store directories are created ("" = os.TempDir())
	Sync    bool   // Whether batches are synced to disk before WriteBatch returns
}

// DefaultOptions returns the default pebble options
func DefaultOptions() *Options {
	return &Options{
		BaseDir: "",
		Sync:    false,
	}
}

// storeImpl is a store.Store backed by its own pebble database
type storeImpl struct {
	db        *pebble.DB
	dir       string
	writeOpts *pebble.WriteOptions
}

// NewDatabase returns a store.TestDatabase that opens a new pebble database
// in a fresh temporary directory for every test store
func NewDatabase(opts *Options) store.TestDatabase {
	if opts == nil {
		opts = DefaultOptions()
	}
	return store.NewTestDatabase(Name, func(_ context.Context) (store.Store, error) {
		return NewTestStore(opts)
	})
}

// NewTestStore opens a pebble database in a new temporary directory below opts.BaseDir.
// The directory is removed when the store is closed.
func NewTestStore(opts *Options) (store.Store, error) {
	dir, err := os.MkdirTemp(opts.BaseDir, "kvbench-pebble-*")
	if err != nil {
		return nil, store.WrapBackendError(err, "failed to create data directory")
	}

	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, store.WrapBackendError(err, "failed to open pebble database")
	}
	log.Debugf("opened pebble database in %s", dir)

	writeOpts := pebble.NoSync
	if opts.Sync {
		writeOpts = pebble.Sync
	}

	return &storeImpl{
		db:        db,
		dir:       dir,
		writeOpts: writeOpts,
	}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docs see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) WriteBatch(_ context.Context, batch *store.Batch) error {
	if batch.IsEmpty() {
		return nil
	}

	b := s.db.NewBatch()
	defer b.Close()

	for _, op := range batch.Ops() {
		var err error
		switch op.Type {
		case store.OpPut:
			err = b.Set(op.Key, op.Value, nil)
		case store.OpDelete:
			err = b.Delete(op.Key, nil)
		default:
			return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown operation %s", op.Type))
		}
		if err != nil {
			return store.WrapBackendError(err, "failed to build batch")
		}
	}

	return store.WrapBackendError(b.Commit(s.writeOpts), "failed to commit batch")
}

func (s *storeImpl) ReadValue(_ context.Context, key []byte) ([]byte, bool, error) {
	return get(s.db, key)
}

// ReadMultiValues reads all keys from one snapshot, so the result reflects a single point in time
func (s *storeImpl) ReadMultiValues(_ context.Context, keys [][]byte) ([]store.Lookup, error) {
	snap := s.db.NewSnapshot()
	defer snap.Close()

	values := make([]store.Lookup, len(keys))
	for i, key := range keys {
		value, found, err := get(snap, key)
		if err != nil {
			return nil, err
		}
		if found {
			values[i] = store.Found(value)
		}
	}
	return values, nil
}

func (s *storeImpl) Close() error {
	err := s.db.Close()
	if rmErr := os.RemoveAll(s.dir); rmErr != nil && err == nil {
		err = rmErr
	}
	return store.WrapBackendError(err, "failed to close pebble database")
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// reader is implemented by *pebble.DB and *pebble.Snapshot
type reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

// get reads a key and copies the value, since pebble only guarantees it until the closer is closed
func get(r reader, key []byte) ([]byte, bool, error) {
	value, closer, err := r.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, store.WrapBackendError(err, "failed to read key")
	}
	defer closer.Close()

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, true, nil
}

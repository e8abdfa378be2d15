package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	bolt "go.etcd.io/bbolt"
)

const Name = "Bolt"

var (
	log        = logger.GetLogger("bolt")
	bucketName = []byte("kv")
)

// Options configures the bolt backend
type Options struct {
	BaseDir string        // Directory in which the per-store directories are created ("" = os.TempDir())
	Sync    bool          // Whether every transaction is synced to disk
	Timeout time.Duration // How long to wait for the file lock when opening the database
}

// DefaultOptions returns the default bolt options
func DefaultOptions() *Options {
	return &Options{
		BaseDir: "",
		Sync:    false,
		Timeout: time.Second,
	}
}

// storeImpl is a store.Store backed by its own bolt file
type storeImpl struct {
	db  *bolt.DB
	dir string
}

// NewDatabase returns a store.TestDatabase that creates a new bolt file
// in a fresh temporary directory for every test store
func NewDatabase(opts *Options) store.TestDatabase {
	if opts == nil {
		opts = DefaultOptions()
	}
	return store.NewTestDatabase(Name, func(_ context.Context) (store.Store, error) {
		return NewTestStore(opts)
	})
}

// NewTestStore opens a bolt database in a new temporary directory below opts.BaseDir.
// The directory is removed when the store is closed.
func NewTestStore(opts *Options) (store.Store, error) {
	dir, err := os.MkdirTemp(opts.BaseDir, "kvbench-bolt-*")
	if err != nil {
		return nil, store.WrapBackendError(err, "failed to create data directory")
	}

	db, err := bolt.Open(filepath.Join(dir, "kv.db"), 0o600, &bolt.Options{Timeout: opts.Timeout})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, store.WrapBackendError(err, "failed to open bolt database")
	}
	db.NoSync = !opts.Sync

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		_ = os.RemoveAll(dir)
		return nil, store.WrapBackendError(err, "failed to create bucket")
	}
	log.Debugf("opened bolt database in %s", dir)

	return &storeImpl{db: db, dir: dir}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docs see store/interface.go)
// --------------------------------------------------------------------------

// WriteBatch applies the batch in one read-write transaction
func (s *storeImpl) WriteBatch(_ context.Context, batch *store.Batch) error {
	if batch.IsEmpty() {
		return nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		for _, op := range batch.Ops() {
			switch op.Type {
			case store.OpPut:
				// bolt keeps a reference until commit, values are never nil so
				// that empty values can be told apart from missing keys
				value := make([]byte, len(op.Value))
				copy(value, op.Value)
				if err := b.Put(op.Key, value); err != nil {
					return err
				}
			case store.OpDelete:
				if err := b.Delete(op.Key); err != nil {
					return err
				}
			default:
				return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown operation %s", op.Type))
			}
		}
		return nil
	})
	if _, ok := err.(*store.Error); ok {
		return err
	}
	return store.WrapBackendError(err, "failed to write batch")
}

func (s *storeImpl) ReadValue(_ context.Context, key []byte) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		value, found = get(tx.Bucket(bucketName), key)
		return nil
	})
	if err != nil {
		return nil, false, store.WrapBackendError(err, "failed to read key")
	}
	return value, found, nil
}

// ReadMultiValues reads all keys in one read-only transaction
func (s *storeImpl) ReadMultiValues(_ context.Context, keys [][]byte) ([]store.Lookup, error) {
	values := make([]store.Lookup, len(keys))
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		for i, key := range keys {
			if value, found := get(b, key); found {
				values[i] = store.Found(value)
			}
		}
		return nil
	})
	if err != nil {
		return nil, store.WrapBackendError(err, "failed to read keys")
	}
	return values, nil
}

func (s *storeImpl) Close() error {
	err := s.db.Close()
	if rmErr := os.RemoveAll(s.dir); rmErr != nil && err == nil {
		err = rmErr
	}
	return store.WrapBackendError(err, "failed to close bolt database")
}

// get copies the value, since bolt only guarantees it for the lifetime of the transaction.
// Bolt returns nil for missing keys and a non-nil empty slice for empty values.
func get(b *bolt.Bucket, key []byte) ([]byte, bool) {
	value := b.Get(key)
	if value == nil {
		return nil, false
	}
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, true
}

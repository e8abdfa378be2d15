package memory

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	Name          = "Memory"
	magicNum      = "KVBMEM\x00\x00" // File format identifier
	formatVersion = 1                // Snapshot format version
)

// --------------------------------------------------------------------------
// Core memory store structure
// --------------------------------------------------------------------------

// Store is an in-memory implementation of store.Store.
// Readers share a reader-biased lock, batches are applied under the write lock
// and are therefore atomic.
type Store struct {
	mu   *xsync.RBMutex
	data map[string][]byte
}

// Options configures the memory store
type Options struct {
	InitialCapacity int // Initial capacity of the underlying map
}

// DefaultOptions returns the default memory store options
func DefaultOptions() *Options {
	return &Options{
		InitialCapacity: 1024,
	}
}

// NewStore creates a new, empty memory store with the specified options (optional)
func NewStore(opts *Options) *Store {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Store{
		mu:   xsync.NewRBMutex(),
		data: make(map[string][]byte, opts.InitialCapacity),
	}
}

// NewDatabase returns a store.TestDatabase that creates a fresh memory store per test store
func NewDatabase(opts *Options) store.TestDatabase {
	return store.NewTestDatabase(Name, func(_ context.Context) (store.Store, error) {
		return NewStore(opts), nil
	})
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Apply applies the operations in order under the write lock.
// Values are copied so the caller can reuse its buffers.
func (s *Store) Apply(ops []store.Op) error {
	for _, op := range ops {
		if op.Type != store.OpPut && op.Type != store.OpDelete {
			return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown operation %s", op.Type))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range ops {
		switch op.Type {
		case store.OpPut:
			valueCopy := make([]byte, len(op.Value))
			copy(valueCopy, op.Value)
			s.data[string(op.Key)] = valueCopy
		case store.OpDelete:
			delete(s.data, string(op.Key))
		}
	}
	return nil
}

func (s *Store) WriteBatch(_ context.Context, batch *store.Batch) error {
	return s.Apply(batch.Ops())
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Get returns a copy of the value for a key
func (s *Store) Get(key []byte) ([]byte, bool) {
	t := s.mu.RLock()
	defer s.mu.RUnlock(t)

	return s.getLocked(key)
}

// GetMulti returns copies of the values of all keys, read under one lock
func (s *Store) GetMulti(keys [][]byte) []store.Lookup {
	t := s.mu.RLock()
	defer s.mu.RUnlock(t)

	values := make([]store.Lookup, len(keys))
	for i, key := range keys {
		if value, ok := s.getLocked(key); ok {
			values[i] = store.Found(value)
		}
	}
	return values
}

// getLocked must be called with at least the read lock held
func (s *Store) getLocked(key []byte) ([]byte, bool) {
	value, ok := s.data[string(key)]
	if !ok {
		return nil, false
	}
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, true
}

func (s *Store) ReadValue(_ context.Context, key []byte) ([]byte, bool, error) {
	value, ok := s.Get(key)
	return value, ok, nil
}

func (s *Store) ReadMultiValues(_ context.Context, keys [][]byte) ([]store.Lookup, error) {
	return s.GetMulti(keys), nil
}

// Len returns the number of entries
func (s *Store) Len() int {
	t := s.mu.RLock()
	defer s.mu.RUnlock(t)
	return len(s.data)
}

// Close drops all entries
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte)
	return nil
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Save writes all entries to w. The format is:
// 8 bytes magic number,
// 1 byte format version,
// 8 bytes number of entries (big endian),
// per entry: 4 bytes key length, key, 4 bytes value length, value
func (s *Store) Save(w io.Writer) error {
	t := s.mu.RLock()
	defer s.mu.RUnlock(t)

	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}
	if err := bw.WriteByte(formatVersion); err != nil {
		return err
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(len(s.data)))
	if _, err := bw.Write(buf[:]); err != nil {
		return err
	}

	for key, value := range s.data {
		if err := writeChunk(bw, []byte(key)); err != nil {
			return err
		}
		if err := writeChunk(bw, value); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load replaces all entries with the entries read from r
func (s *Store) Load(r io.Reader) error {
	br := bufio.NewReader(r)

	header := make([]byte, len(magicNum)+1)
	if _, err := io.ReadFull(br, header); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if string(header[:len(magicNum)]) != magicNum {
		return fmt.Errorf("invalid magic number")
	}
	if header[len(magicNum)] != formatVersion {
		return fmt.Errorf("unsupported format version %d", header[len(magicNum)])
	}

	var buf [8]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return fmt.Errorf("failed to read entry count: %w", err)
	}
	count := binary.BigEndian.Uint64(buf[:])

	data := make(map[string][]byte, count)
	for i := uint64(0); i < count; i++ {
		key, err := readChunk(br)
		if err != nil {
			return fmt.Errorf("failed to read key %d: %w", i, err)
		}
		value, err := readChunk(br)
		if err != nil {
			return fmt.Errorf("failed to read value %d: %w", i, err)
		}
		data[string(key)] = value
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func writeChunk(w *bufio.Writer, chunk []byte) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(len(chunk)))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	_, err := w.Write(chunk)
	return err
}

func readChunk(r *bufio.Reader) ([]byte, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	chunk := make([]byte, binary.BigEndian.Uint32(buf[:]))
	if _, err := io.ReadFull(r, chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}

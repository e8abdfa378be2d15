package scylla

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	Name = "ScyllaDB"

	tableName = "kv"

	// Cassandra compatible databases reject batches above ~50 KiB by default
	maxBatchBytes = 32 << 10
)

var log = logger.GetLogger("scylla")

// Options configures the ScyllaDB backend
type Options struct {
	Hosts             []string      // Contact points
	ReplicationFactor int           // Replication factor of the per-store keyspace (SimpleStrategy)
	Consistency       string        // Consistency level of all queries, e.g. "QUORUM" or "ONE"
	Timeout           time.Duration // Query timeout
	BatchSize         int           // Maximum number of statements per logged batch
}

// DefaultOptions returns the default ScyllaDB options
func DefaultOptions() *Options {
	return &Options{
		Hosts:             []string{"127.0.0.1"},
		ReplicationFactor: 1,
		Consistency:       "QUORUM",
		Timeout:           10 * time.Second,
		BatchSize:         100,
	}
}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

// NewDatabase returns a store.TestDatabase that creates a new keyspace for every test store
func NewDatabase(opts *Options) store.TestDatabase {
	if opts == nil {
		opts = DefaultOptions()
	}
	return store.NewTestDatabase(Name, func(ctx context.Context) (store.Store, error) {
		return NewTestStore(ctx, opts)
	})
}

// NewTestStore connects to the cluster and creates the keyspace kvbench_<uuid> with a single table.
// The keyspace is dropped when the store is closed.
func NewTestStore(ctx context.Context, opts *Options) (store.Store, error) {
	consistency, err := gocql.ParseConsistencyWrapper(opts.Consistency)
	if err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("invalid consistency level %q", opts.Consistency))
	}
	if opts.BatchSize <= 0 {
		return nil, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("invalid batch size %d", opts.BatchSize))
	}

	cluster := gocql.NewCluster(opts.Hosts...)
	cluster.Consistency = consistency
	cluster.Timeout = opts.Timeout
	cluster.ConnectTimeout = opts.Timeout
	cluster.Logger = gocqlLogger{}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, store.WrapBackendError(err, "failed to connect to cluster")
	}

	keyspace := "kvbench_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	s := &storeImpl{
		session:   session,
		keyspace:  keyspace,
		table:     keyspace + "." + tableName,
		batchSize: opts.BatchSize,
	}

	err = session.Query(fmt.Sprintf(
		"CREATE KEYSPACE %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}",
		keyspace, opts.ReplicationFactor,
	)).WithContext(ctx).Exec()
	if err != nil {
		session.Close()
		return nil, store.WrapBackendError(err, fmt.Sprintf("failed to create keyspace %s", keyspace))
	}

	err = session.Query(fmt.Sprintf("CREATE TABLE %s (k blob PRIMARY KEY, v blob)", s.table)).WithContext(ctx).Exec()
	if err != nil {
		_ = s.Close()
		return nil, store.WrapBackendError(err, fmt.Sprintf("failed to create table %s", s.table))
	}
	log.Debugf("created keyspace %s", keyspace)

	s.insertStmt = fmt.Sprintf("INSERT INTO %s (k, v) VALUES (?, ?)", s.table)
	s.deleteStmt = fmt.Sprintf("DELETE FROM %s WHERE k = ?", s.table)
	s.selectStmt = fmt.Sprintf("SELECT v FROM %s WHERE k = ?", s.table)
	s.selectInStmt = fmt.Sprintf("SELECT k, v FROM %s WHERE k IN ?", s.table)
	return s, nil
}

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// storeImpl is a store.Store backed by one keyspace. gocql sessions are safe for concurrent use.
type storeImpl struct {
	session   *gocql.Session
	keyspace  string
	table     string
	batchSize int

	insertStmt   string
	deleteStmt   string
	selectStmt   string
	selectInStmt string
}

// WriteBatch writes the operations as logged batches of at most batchSize statements
// and maxBatchBytes of payload. Each logged batch is atomic, a split batch is not.
func (s *storeImpl) WriteBatch(ctx context.Context, batch *store.Batch) error {
	// statements in one batch share a timestamp, so the last write per key has to be
	// selected before sending
	ops := batch.Simplify()
	if len(ops) == 0 {
		return nil
	}

	b := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	size := 0
	for _, op := range ops {
		opSize := len(op.Key) + len(op.Value)
		if b.Size() > 0 && (b.Size() >= s.batchSize || size+opSize > maxBatchBytes) {
			if err := s.session.ExecuteBatch(b); err != nil {
				return store.WrapBackendError(err, "failed to write batch")
			}
			b = s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
			size = 0
		}

		switch op.Type {
		case store.OpPut:
			b.Query(s.insertStmt, op.Key, nonNil(op.Value))
		case store.OpDelete:
			b.Query(s.deleteStmt, op.Key)
		default:
			return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown operation %s", op.Type))
		}
		size += opSize
	}

	return store.WrapBackendError(s.session.ExecuteBatch(b), "failed to write batch")
}

func (s *storeImpl) ReadValue(ctx context.Context, key []byte) ([]byte, bool, error) {
	var value []byte
	err := s.session.Query(s.selectStmt, key).WithContext(ctx).Scan(&value)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, store.WrapBackendError(err, "failed to read key")
	}
	return nonNil(value), true, nil
}

// ReadMultiValues reads the distinct keys with "SELECT ... WHERE k IN ?" queries of at
// most batchSize keys and maps the rows back to the requested order.
func (s *storeImpl) ReadMultiValues(ctx context.Context, keys [][]byte) ([]store.Lookup, error) {
	unique := make([][]byte, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[string(k)]; !ok {
			seen[string(k)] = struct{}{}
			unique = append(unique, k)
		}
	}

	found := make(map[string][]byte, len(unique))
	for start := 0; start < len(unique); start += s.batchSize {
		end := min(start+s.batchSize, len(unique))

		iter := s.session.Query(s.selectInStmt, unique[start:end]).WithContext(ctx).Iter()
		var k, v []byte
		for iter.Scan(&k, &v) {
			found[string(k)] = nonNil(v)
			// Scan reuses the slices
			k, v = nil, nil
		}
		if err := iter.Close(); err != nil {
			return nil, store.WrapBackendError(err, "failed to read keys")
		}
	}

	values := make([]store.Lookup, len(keys))
	for i, k := range keys {
		if v, ok := found[string(k)]; ok {
			values[i] = store.Found(v)
		}
	}
	return values, nil
}

// Close drops the keyspace and closes the session
func (s *storeImpl) Close() error {
	defer s.session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	err := s.session.Query(fmt.Sprintf("DROP KEYSPACE IF EXISTS %s", s.keyspace)).WithContext(ctx).Exec()
	if err == nil {
		log.Debugf("dropped keyspace %s", s.keyspace)
	}
	return store.WrapBackendError(err, fmt.Sprintf("failed to drop keyspace %s", s.keyspace))
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// nonNil maps nil to an empty slice, gocql binds nil as NULL
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// gocqlLogger forwards the driver's log output to the scylla logger
type gocqlLogger struct{}

func (gocqlLogger) Print(v ...interface{}) {
	log.Debugf("%s", strings.TrimSuffix(fmt.Sprint(v...), "\n"))
}

func (gocqlLogger) Printf(format string, v ...interface{}) {
	log.Debugf("%s", strings.TrimSuffix(fmt.Sprintf(format, v...), "\n"))
}

func (gocqlLogger) Println(v ...interface{}) {
	log.Debugf("%s", strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

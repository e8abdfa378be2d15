// Package store provides the capability interface that every key-value backend
// has to satisfy to take part in the kvbench benchmarks.
//
// The package focuses on:
//   - A unified interface (Store) for batched writes, point reads and multi-key reads
//   - A backend kind abstraction (TestDatabase) that creates isolated, ephemeral stores
//   - Unified error reporting through typed return codes
//
// Key Components:
//
//   - Store Interface: The core abstraction. WriteBatch applies a Batch of put and
//     delete operations, ReadValue performs a point lookup and ReadMultiValues
//     performs a batched lookup whose result keeps the order and length of the
//     requested keys. A Store is a shared handle and must be safe for concurrent use,
//     which is what allows the benchmarks to fan out many operations on the same store.
//
//   - TestDatabase: A backend kind ("Pebble", "DynamoDB", ...). NewTestStore creates
//     a store that is isolated from every other store (own directory, table,
//     keyspace or raft node). Closing the store destroys its data.
//
//   - Batch: An ordered group of Put and Delete operations. Simplify removes
//     operations that are overwritten later in the same batch.
//
//   - Error System: Error carries a RetCode, a message and the underlying cause,
//     so that callers can use errors.Is / errors.As on backend errors.
//
// Implementations:
//
//   - engines/memory: in-memory map guarded by a reader-biased mutex
//   - engines/pebble: embedded LSM tree (github.com/cockroachdb/pebble)
//   - engines/bolt: embedded B+tree (go.etcd.io/bbolt)
//   - engines/dynamo: Amazon DynamoDB (github.com/aws/aws-sdk-go-v2)
//   - engines/scylla: ScyllaDB / Cassandra (github.com/gocql/gocql)
//   - dstore: raft replicated store (github.com/lni/dragonboat/v4)
//
// The testing package (github.com/ValentinKolb/kvbench/lib/store/testing) provides a
// conformance suite and go-test benchmarks that run against any TestDatabase.
package store

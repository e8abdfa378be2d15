// Package pebble implements a store.Store on top of Pebble
// (github.com/cockroachdb/pebble), the RocksDB-inspired LSM key-value store
// used by CockroachDB. It takes the place of the embedded on-disk backend.
//
// Every test store opens its own database in a fresh temporary directory,
// which is removed again on Close. WriteBatch builds one pebble.Batch and
// commits it atomically (without fsync unless Options.Sync is set).
// ReadMultiValues reads all keys from a single pebble.Snapshot.
package pebble

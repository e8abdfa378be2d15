// Package scylla implements a store.Store on top of ScyllaDB (or any Cassandra
// compatible database) using the gocql driver.
//
// Every test store opens its own session and creates the keyspace
// "kvbench_<uuid>" (SimpleStrategy, configurable replication factor) with the table
//
//	kv (k blob PRIMARY KEY, v blob)
//
// which is dropped again on Close.
//
// Implementation Details:
//
//   - WriteBatch: the batch is folded with Batch.Simplify (all statements of a
//     logged batch share one write timestamp) and sent as logged batches of at most
//     Options.BatchSize statements and 32 KiB of payload.
//   - ReadValue: a single SELECT at the configured consistency level.
//   - ReadMultiValues: "SELECT k, v FROM kv WHERE k IN ?" with at most
//     Options.BatchSize distinct keys per query.
//
// Empty keys are rejected by the database and surface as backend errors.
package scylla

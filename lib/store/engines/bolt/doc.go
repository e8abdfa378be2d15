// Package bolt implements a store.Store on top of bbolt (go.etcd.io/bbolt),
// an embedded B+tree key-value store.
//
// Every test store owns one database file in a fresh temporary directory with
// a single bucket. WriteBatch runs one read-write transaction, so a batch is
// atomic. ReadValue and ReadMultiValues run read-only transactions; a multi read
// sees one consistent version of the data.
//
// Bolt does not accept empty keys, writing one fails with a backend error.
package bolt

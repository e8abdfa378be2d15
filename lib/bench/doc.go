// Package bench measures key-value backends with three access patterns each for
// writes and reads.
//
// Components:
//
//   - KeyGenerator: seeded pseudo random byte strings, reproducible for the same seed.
//   - Dataset: N generated key value pairs. All accessors return deep copies, so
//     every access pattern owns its input.
//   - Runner: measures the patterns against a store.TestDatabase.
//   - Run: drives the runner over a list of databases and stops at the first error.
//   - Report: prints and collects the timings (CSV, Prometheus text format, table).
//
// Write Patterns (one fresh store each):
//
//   - "batch write":   all pairs in a single WriteBatch call
//   - "loop write":    one single-operation batch per pair, sequentially
//   - "futures write": one single-operation batch per pair, each in its own goroutine
//
// Read Patterns (on one store, populated with a single batch):
//
//   - "multi_read":   one ReadMultiValues call with all keys
//   - "loop read":    one ReadValue call per key, sequentially
//   - "futures read": one ReadValue call per key, each in its own goroutine
//
// Every read result is compared with the dataset. A difference in order, presence or
// value fails the run with an error marked ErrResultMismatch.
//
// Only the store calls of a pattern are timed; store creation, dataset copies,
// verification and closing are not. Every timing is reported as a line
//
//	Runtime <backend> for <pattern>: <elapsed>ms
package bench

// Package testing provides standardised tests and benchmarks for
// backends that satisfy the store.TestDatabase interface.
//
// The package contains:
//   - testing: A conformance suite for the Store contract (round trips, missing keys,
//     result order of multi reads, concurrent use of one handle, store isolation)
//   - benchmark: go-test benchmarks for the common store operations
//
// Example usage:
//
//	database := mybackend.NewDatabase(nil)
//
//	// Running the standard test suite
//	storetesting.RunStoreTests(t, "MyBackend", database)
//
//	// Running performance benchmarks
//	storetesting.RunStoreBenchmarks(b, "MyBackend", database)
package testing

package testing

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
)

// RunStoreBenchmarks runs all go-test benchmarks for a store.TestDatabase
func RunStoreBenchmarks(b *testing.B, name string, database store.TestDatabase) {

	b.Run("WriteSingle", func(b *testing.B) {
		benchmarkWriteSingle(b, newStore(b, database))
	})

	b.Run("WriteBatch", func(b *testing.B) {
		benchmarkWriteBatch(b, newStore(b, database))
	})

	b.Run("ReadValue", func(b *testing.B) {
		benchmarkReadValue(b, newStore(b, database))
	})

	b.Run("ReadValue(missing)", func(b *testing.B) {
		benchmarkReadMissing(b, newStore(b, database))
	})

	b.Run("ReadMultiValues", func(b *testing.B) {
		benchmarkReadMultiValues(b, newStore(b, database))
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

const benchmarkKeys = 1000

// prepare writes benchmarkKeys entries in one batch and returns the keys
func prepare(b *testing.B, s store.Store) [][]byte {
	keys := make([][]byte, benchmarkKeys)
	batch := store.NewBatch()
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("test-key-%d", i))
		batch.Put(keys[i], []byte(fmt.Sprintf("test-value-%d", i)))
	}
	if err := s.WriteBatch(context.Background(), batch); err != nil {
		b.Fatalf("failed to prepare data: %v", err)
	}
	return keys
}

// Parallel benchmarking for writing one key per batch
func benchmarkWriteSingle(b *testing.B, s store.Store) {
	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := atomic.AddInt64(&counter, 1)
			batch := store.NewBatch()
			batch.Put([]byte(fmt.Sprintf("test-key-%d", i)), []byte(fmt.Sprintf("test-value-%d", i)))
			if err := s.WriteBatch(context.Background(), batch); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// Benchmark for batches of 100 keys
func benchmarkWriteBatch(b *testing.B, s store.Store) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		batch := store.NewBatch()
		for j := 0; j < 100; j++ {
			batch.Put([]byte(fmt.Sprintf("test-key-%d-%d", i, j)), []byte("test-value"))
		}
		if err := s.WriteBatch(context.Background(), batch); err != nil {
			b.Fatal(err)
		}
	}
}

// Parallel benchmarking for point reads
func benchmarkReadValue(b *testing.B, s store.Store) {
	keys := prepare(b, s)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			if _, _, err := s.ReadValue(context.Background(), keys[counter%len(keys)]); err != nil {
				b.Error(err)
				return
			}
			counter++
		}
	})
}

// Parallel benchmarking for point reads (with key miss)
func benchmarkReadMissing(b *testing.B, s store.Store) {
	key := []byte("test-key")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, _, err := s.ReadValue(context.Background(), key); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// Benchmark for reading all prepared keys at once
func benchmarkReadMultiValues(b *testing.B, s store.Store) {
	keys := prepare(b, s)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.ReadMultiValues(context.Background(), keys); err != nil {
			b.Fatal(err)
		}
	}
}

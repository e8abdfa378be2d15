package testing

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
)

// RunStoreTests runs a comprehensive test suite for a store.TestDatabase.
func RunStoreTests(t *testing.T, name string, database store.TestDatabase) {
	t.Run(name, func(t *testing.T) {
		t.Run("Write&Read", func(t *testing.T) {
			testWriteRead(t, newStore(t, database))
		})

		t.Run("MissingKey", func(t *testing.T) {
			testMissingKey(t, newStore(t, database))
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, newStore(t, database))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, newStore(t, database))
		})

		t.Run("EmptyBatch", func(t *testing.T) {
			testEmptyBatch(t, newStore(t, database))
		})

		t.Run("EmptyValue", func(t *testing.T) {
			testEmptyValue(t, newStore(t, database))
		})

		t.Run("MultiReadOrder", func(t *testing.T) {
			testMultiReadOrder(t, newStore(t, database))
		})

		t.Run("MultiReadEmpty", func(t *testing.T) {
			testMultiReadEmpty(t, newStore(t, database))
		})

		t.Run("LargeBatch", func(t *testing.T) {
			testLargeBatch(t, newStore(t, database))
		})

		t.Run("ReturnsCopy", func(t *testing.T) {
			testReturnsCopy(t, newStore(t, database))
		})

		t.Run("ConcurrentAccess", func(t *testing.T) {
			testConcurrentAccess(t, newStore(t, database))
		})

		t.Run("Isolation", func(t *testing.T) {
			testIsolation(t, database)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// newStore creates a fresh store and closes it when the test finishes
func newStore(t testing.TB, database store.TestDatabase) store.Store {
	s, err := database.NewTestStore(context.Background())
	if err != nil {
		t.Fatalf("Failed to create test store for %s: %v", database.Name(), err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close test store: %v", err)
		}
	})
	return s
}

func put(t testing.TB, s store.Store, key, value string) {
	b := store.NewBatch()
	b.Put([]byte(key), []byte(value))
	if err := s.WriteBatch(context.Background(), b); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
}

func expectValue(t testing.TB, s store.Store, key, expected string) {
	value, found, err := s.ReadValue(context.Background(), []byte(key))
	if err != nil {
		t.Fatalf("ReadValue(%s) failed: %v", key, err)
	}
	if !found {
		t.Fatalf("Expected key %s to exist", key)
	}
	if !bytes.Equal(value, []byte(expected)) {
		t.Errorf("Expected value %s for key %s, got %s", expected, key, value)
	}
}

func expectMissing(t testing.TB, s store.Store, key string) {
	_, found, err := s.ReadValue(context.Background(), []byte(key))
	if err != nil {
		t.Fatalf("ReadValue(%s) failed: %v", key, err)
	}
	if found {
		t.Errorf("Expected key %s to be missing", key)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testWriteRead(t *testing.T, s store.Store) {
	b := store.NewBatch()
	for i := 0; i < 10; i++ {
		b.Put([]byte(fmt.Sprintf("test-key-%d", i)), []byte(fmt.Sprintf("test-value-%d", i)))
	}
	if err := s.WriteBatch(context.Background(), b); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		expectValue(t, s, fmt.Sprintf("test-key-%d", i), fmt.Sprintf("test-value-%d", i))
	}
}

func testMissingKey(t *testing.T, s store.Store) {
	expectMissing(t, s, "nonexistent-key")

	put(t, s, "test-key", "test-value")
	expectMissing(t, s, "nonexistent-key")
}

func testOverwrite(t *testing.T, s store.Store) {
	put(t, s, "test-key", "test-value1")
	put(t, s, "test-key", "test-value2")
	expectValue(t, s, "test-key", "test-value2")

	// the last write for a key inside one batch wins
	b := store.NewBatch()
	b.Put([]byte("test-key"), []byte("test-value3"))
	b.Put([]byte("test-key"), []byte("test-value4"))
	if err := s.WriteBatch(context.Background(), b); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	expectValue(t, s, "test-key", "test-value4")
}

func testDelete(t *testing.T, s store.Store) {
	put(t, s, "test-key", "test-value")
	put(t, s, "other-key", "other-value")

	b := store.NewBatch()
	b.Delete([]byte("test-key"))
	b.Delete([]byte("never-written"))
	if err := s.WriteBatch(context.Background(), b); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}

	expectMissing(t, s, "test-key")
	expectValue(t, s, "other-key", "other-value")

	// put and delete in one batch
	b = store.NewBatch()
	b.Put([]byte("temp-key"), []byte("temp-value"))
	b.Delete([]byte("temp-key"))
	if err := s.WriteBatch(context.Background(), b); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	expectMissing(t, s, "temp-key")
}

func testEmptyBatch(t *testing.T, s store.Store) {
	if err := s.WriteBatch(context.Background(), store.NewBatch()); err != nil {
		t.Fatalf("WriteBatch with empty batch failed: %v", err)
	}
}

func testEmptyValue(t *testing.T, s store.Store) {
	put(t, s, "empty-value-key", "")

	value, found, err := s.ReadValue(context.Background(), []byte("empty-value-key"))
	if err != nil {
		t.Fatalf("ReadValue failed: %v", err)
	}
	if !found {
		t.Fatalf("Expected key with empty value to exist")
	}
	if len(value) != 0 {
		t.Errorf("Expected empty value, got %x", value)
	}

	values, err := s.ReadMultiValues(context.Background(), [][]byte{[]byte("empty-value-key")})
	if err != nil {
		t.Fatalf("ReadMultiValues failed: %v", err)
	}
	if len(values) != 1 || !values[0].Found || len(values[0].Value) != 0 {
		t.Errorf("Expected one found empty value, got %v", values)
	}
}

func testMultiReadOrder(t *testing.T, s store.Store) {
	b := store.NewBatch()
	for i := 0; i < 20; i++ {
		b.Put([]byte(fmt.Sprintf("key-%02d", i)), []byte(fmt.Sprintf("value-%02d", i)))
	}
	if err := s.WriteBatch(context.Background(), b); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}

	// reversed order, interleaved with missing keys and one duplicate
	var keys [][]byte
	var expected []store.Lookup
	for i := 19; i >= 0; i-- {
		keys = append(keys, []byte(fmt.Sprintf("key-%02d", i)))
		expected = append(expected, store.Found([]byte(fmt.Sprintf("value-%02d", i))))
		if i%5 == 0 {
			keys = append(keys, []byte(fmt.Sprintf("missing-%02d", i)))
			expected = append(expected, store.Lookup{})
		}
	}
	keys = append(keys, []byte("key-07"))
	expected = append(expected, store.Found([]byte("value-07")))

	values, err := s.ReadMultiValues(context.Background(), keys)
	if err != nil {
		t.Fatalf("ReadMultiValues failed: %v", err)
	}
	if len(values) != len(keys) {
		t.Fatalf("Expected %d results, got %d", len(keys), len(values))
	}
	for i := range expected {
		if !values[i].Equal(expected[i]) {
			t.Errorf("Position %d (key %s): expected %v, got %v", i, keys[i], expected[i], values[i])
		}
	}
}

func testMultiReadEmpty(t *testing.T, s store.Store) {
	values, err := s.ReadMultiValues(context.Background(), nil)
	if err != nil {
		t.Fatalf("ReadMultiValues with no keys failed: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("Expected no results, got %d", len(values))
	}
}

func testLargeBatch(t *testing.T, s store.Store) {
	const numKeys = 1000

	b := store.NewBatch()
	keys := make([][]byte, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = []byte(fmt.Sprintf("large-batch-key-%d", i))
		b.Put(keys[i], []byte(fmt.Sprintf("large-batch-value-%d", i)))
	}
	if err := s.WriteBatch(context.Background(), b); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}

	values, err := s.ReadMultiValues(context.Background(), keys)
	if err != nil {
		t.Fatalf("ReadMultiValues failed: %v", err)
	}
	if len(values) != numKeys {
		t.Fatalf("Expected %d results, got %d", numKeys, len(values))
	}
	for i, v := range values {
		expected := store.Found([]byte(fmt.Sprintf("large-batch-value-%d", i)))
		if !v.Equal(expected) {
			t.Fatalf("Position %d: expected %v, got %v", i, expected, v)
		}
	}
}

func testReturnsCopy(t *testing.T, s store.Store) {
	put(t, s, "test-key", "test-value")

	value, _, err := s.ReadValue(context.Background(), []byte("test-key"))
	if err != nil {
		t.Fatalf("ReadValue failed: %v", err)
	}
	value[0] = 'X'

	expectValue(t, s, "test-key", "test-value")
}

func testConcurrentAccess(t *testing.T, s store.Store) {
	const numWorkers = 16
	const keysPerWorker = 20

	var wg sync.WaitGroup
	errs := make(chan error, numWorkers)
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < keysPerWorker; i++ {
				key := []byte(fmt.Sprintf("worker-%d-key-%d", w, i))
				b := store.NewBatch()
				b.Put(key, key)
				if err := s.WriteBatch(context.Background(), b); err != nil {
					errs <- err
					return
				}
				value, found, err := s.ReadValue(context.Background(), key)
				if err != nil {
					errs <- err
					return
				}
				if !found || !bytes.Equal(value, key) {
					errs <- fmt.Errorf("worker %d: read back wrong value for %s", w, key)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func testIsolation(t *testing.T, database store.TestDatabase) {
	first := newStore(t, database)
	second := newStore(t, database)

	put(t, first, "shared-key", "first")
	expectMissing(t, second, "shared-key")

	put(t, second, "shared-key", "second")
	expectValue(t, first, "shared-key", "first")
	expectValue(t, second, "shared-key", "second")
}

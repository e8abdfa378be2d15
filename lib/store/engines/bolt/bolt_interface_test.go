package bolt

import (
	"context"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	storetesting "github.com/ValentinKolb/kvbench/lib/store/testing"
)

func testOptions(t testing.TB) *Options {
	opts := DefaultOptions()
	opts.BaseDir = t.TempDir()
	return opts
}

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, Name, NewDatabase(testOptions(t)))
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, Name, NewDatabase(testOptions(b)))
}

func TestEmptyKeyIsRejected(t *testing.T) {
	s, err := NewDatabase(testOptions(t)).NewTestStore(context.Background())
	if err != nil {
		t.Fatalf("NewTestStore failed: %v", err)
	}
	defer s.Close()

	b := store.NewBatch()
	b.Put([]byte("valid"), []byte("value"))
	b.Put([]byte{}, []byte("value"))

	err = s.WriteBatch(context.Background(), b)
	if err == nil {
		t.Fatalf("Expected error for empty key")
	}
	storeErr, ok := err.(*store.Error)
	if !ok || storeErr.Code != store.RetCBackendError {
		t.Errorf("Expected backend error, got %v", err)
	}

	// the transaction was rolled back as a whole
	_, found, err := s.ReadValue(context.Background(), []byte("valid"))
	if err != nil {
		t.Fatalf("ReadValue failed: %v", err)
	}
	if found {
		t.Errorf("Expected failed batch to leave no entries")
	}
}

package pebble

import (
	"context"
	"os"
	"testing"

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

func TestCloseRemovesDirectory(t *testing.T) {
	opts := testOptions(t)

	s, err := NewDatabase(opts).NewTestStore(context.Background())
	if err != nil {
		t.Fatalf("NewTestStore failed: %v", err)
	}
	dir := s.(*storeImpl).dir

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("Expected data directory %s to exist: %v", dir, err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("Expected data directory %s to be removed, got %v", dir, err)
	}
}

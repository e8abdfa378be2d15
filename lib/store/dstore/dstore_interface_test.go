package dstore

import (
	"testing"

	storetesting "github.com/ValentinKolb/kvbench/lib/store/testing"
)

func Test(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping raft tests in short mode")
	}
	storetesting.RunStoreTests(t, Name, NewDatabase(nil))
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, Name, NewDatabase(nil))
}

package scylla

import (
	"context"
	"os"
	"strings"
	"testing"

	storetesting "github.com/ValentinKolb/kvbench/lib/store/testing"
	"github.com/stretchr/testify/require"
)

// testOptions returns options for the cluster given by KVBENCH_TEST_SCYLLA_HOSTS
// (comma separated). The test is skipped if it is not set.
func testOptions(t testing.TB) *Options {
	hosts := os.Getenv("KVBENCH_TEST_SCYLLA_HOSTS")
	if hosts == "" {
		t.Skip("KVBENCH_TEST_SCYLLA_HOSTS not set")
	}
	opts := DefaultOptions()
	opts.Hosts = strings.Split(hosts, ",")
	opts.Consistency = "ONE"
	return opts
}

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, Name, NewDatabase(testOptions(t)))
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, Name, NewDatabase(testOptions(b)))
}

func TestInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Consistency = "SOMETIMES"
	_, err := NewTestStore(context.Background(), opts)
	require.Error(t, err)

	opts = DefaultOptions()
	opts.BatchSize = 0
	_, err = NewTestStore(context.Background(), opts)
	require.Error(t, err)
}

func TestNonNil(t *testing.T) {
	require.NotNil(t, nonNil(nil))
	require.Equal(t, []byte("x"), nonNil([]byte("x")))
}

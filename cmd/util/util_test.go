package util

import (
	"strings"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/bench"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		require.LessOrEqual(t, len(line), Wrap)
	}
	require.Equal(t, "short text", WrapString("  short   text "))
	require.Empty(t, WrapString(""))
}

func TestBackendOrder(t *testing.T) {
	require.Equal(t, []string{"dynamodb", "scylladb", "pebble", "bolt", "raft", "memory"}, BackendNames())
}

func TestBuildDatabases(t *testing.T) {
	c := &Config{Backends: []string{"memory", "Pebble", "raft"}}
	dbs, err := BuildDatabases(c)
	require.NoError(t, err)
	require.Len(t, dbs, 3)
	require.Equal(t, "Memory", dbs[0].Name())
	require.Equal(t, "Pebble", dbs[1].Name())
	require.Equal(t, "Raft", dbs[2].Name())

	_, err = BuildDatabases(&Config{Backends: []string{"rocksdb"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown backend")
}

func TestReadConfigArguments(t *testing.T) {
	viper.Set("backends", "memory")
	defer viper.Set("backends", nil)

	c, err := ReadConfig([]string{"100", "10", "1000"})
	require.NoError(t, err)
	require.Equal(t, 100, c.Bench.NumKeys)
	require.Equal(t, 10, c.Bench.KeySize)
	require.Equal(t, 1000, c.Bench.ValueSize)

	_, err = ReadConfig([]string{"100", "10"})
	require.Error(t, err)

	_, err = ReadConfig([]string{"100", "ten", "10"})
	require.Error(t, err)
}

func TestConfigString(t *testing.T) {
	c := &Config{Bench: bench.DefaultConfig(1, 2, 3), Backends: []string{"memory"}}
	s := c.String()
	require.Contains(t, s, "BENCHMARK")
	require.Contains(t, s, "Num Keys")
	require.Contains(t, s, "memory")
}

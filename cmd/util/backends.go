package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/dstore"
	"github.com/ValentinKolb/kvbench/lib/store/engines/bolt"
	"github.com/ValentinKolb/kvbench/lib/store/engines/dynamo"
	"github.com/ValentinKolb/kvbench/lib/store/engines/memory"
	"github.com/ValentinKolb/kvbench/lib/store/engines/pebble"
	"github.com/ValentinKolb/kvbench/lib/store/engines/scylla"
)

// Backend is an entry of the backend registry
type Backend struct {
	Key         string                             // Name used by the --backends flag
	Description string                             // Short description for the backends command
	New         func(c *Config) store.TestDatabase // Creates the database from the configuration
}

// Backends is the registry of all backend kinds in benchmark order
var Backends = []Backend{
	{
		Key:         "dynamodb",
		Description: "Amazon DynamoDB (or DynamoDB Local), one table per store",
		New: func(c *Config) store.TestDatabase {
			opts := c.Dynamo
			return dynamo.NewDatabase(&opts)
		},
	},
	{
		Key:         "scylladb",
		Description: "ScyllaDB / Cassandra, one keyspace per store",
		New: func(c *Config) store.TestDatabase {
			opts := c.Scylla
			return scylla.NewDatabase(&opts)
		},
	},
	{
		Key:         "pebble",
		Description: "embedded LSM tree (RocksDB family), one directory per store",
		New: func(c *Config) store.TestDatabase {
			return pebble.NewDatabase(&pebble.Options{BaseDir: c.DataDir})
		},
	},
	{
		Key:         "bolt",
		Description: "embedded B+tree (bbolt), one file per store",
		New: func(c *Config) store.TestDatabase {
			opts := bolt.DefaultOptions()
			opts.BaseDir = c.DataDir
			return bolt.NewDatabase(opts)
		},
	},
	{
		Key:         "raft",
		Description: "single replica dragonboat shard over an in-memory state machine",
		New: func(c *Config) store.TestDatabase {
			opts := c.Raft
			return dstore.NewDatabase(&opts)
		},
	},
	{
		Key:         "memory",
		Description: "in-memory map, baseline without I/O",
		New: func(c *Config) store.TestDatabase {
			return memory.NewDatabase(nil)
		},
	},
}

// BackendNames returns the keys of all registered backends in order
func BackendNames() []string {
	names := make([]string, len(Backends))
	for i, b := range Backends {
		names[i] = b.Key
	}
	return names
}

// BuildDatabases creates the databases selected by c.Backends, in the order given there
func BuildDatabases(c *Config) ([]store.TestDatabase, error) {
	dbs := make([]store.TestDatabase, 0, len(c.Backends))
	for _, name := range c.Backends {
		backend, ok := lookupBackend(name)
		if !ok {
			return nil, fmt.Errorf("unknown backend %q (available: %s)", name, strings.Join(BackendNames(), ", "))
		}
		dbs = append(dbs, backend.New(c))
	}
	return dbs, nil
}

func lookupBackend(name string) (Backend, bool) {
	for _, b := range Backends {
		if strings.EqualFold(b.Key, name) {
			return b, true
		}
	}
	return Backend{}, false
}

package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/kvbench/lib/bench"
	"github.com/ValentinKolb/kvbench/lib/store/dstore"
	"github.com/ValentinKolb/kvbench/lib/store/engines/dynamo"
	"github.com/ValentinKolb/kvbench/lib/store/engines/scylla"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the complete configuration of a benchmark run
type Config struct {
	Bench    bench.Config
	Backends []string

	LogLevel    string
	CSVPath     string
	MetricsFile string
	Table       bool

	DataDir string
	Dynamo  dynamo.Options
	Scylla  scylla.Options
	Raft    dstore.Options
}

// SetupFlags adds all benchmark flags to a command
func SetupFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	// benchmark
	flags.String("backends", strings.Join(BackendNames(), ","), WrapString("Comma-separated list of backends to benchmark, in order"))
	flags.Uint64("seed", bench.DefaultSeed, WrapString("Seed of the key and value generator"))
	flags.Bool("skip-write", false, WrapString("Only run the read patterns"))
	flags.Int("max-concurrency", 0, WrapString("Maximum number of concurrent goroutines of the futures patterns (0 = one per key)"))
	flags.Bool("op-stats", false, WrapString("Time every single store operation and log count, mean and p99 per backend"))

	// output
	flags.String("log-level", "warn", WrapString("LogLevel is the level at which logs will be output to stderr (debug, info, warn, error)"))
	flags.String("csv", "", WrapString("Write all timings as CSV to this file"))
	flags.String("metrics-file", "", WrapString("Write the timings as histograms in the Prometheus text format to this file"))
	flags.Bool("table", false, WrapString("Print a summary table after all backends finished"))

	// embedded backends
	flags.String("data-dir", "", WrapString("Directory in which the embedded backends (pebble, bolt, raft) create their temporary data directories (default: system temp dir)"))

	// dynamodb
	dynamoDefaults := dynamo.DefaultOptions()
	flags.String("dynamodb-endpoint", "http://localhost:8000", WrapString("DynamoDB endpoint (empty = AWS default endpoint of the region)"))
	flags.String("dynamodb-region", dynamoDefaults.Region, WrapString("AWS region of the DynamoDB tables"))
	flags.String("dynamodb-access-key-id", "", WrapString("Static access key id (empty = default AWS credential chain)"))
	flags.String("dynamodb-secret-access-key", "", WrapString("Static secret access key (empty = default AWS credential chain)"))
	flags.Duration("dynamodb-table-timeout", dynamoDefaults.TableTimeout, WrapString("How long to wait for a new table to become active"))

	// scylladb
	scyllaDefaults := scylla.DefaultOptions()
	flags.String("scylla-hosts", strings.Join(scyllaDefaults.Hosts, ","), WrapString("Comma-separated list of ScyllaDB contact points"))
	flags.Int("scylla-replication-factor", scyllaDefaults.ReplicationFactor, WrapString("Replication factor of the benchmark keyspaces"))
	flags.String("scylla-consistency", scyllaDefaults.Consistency, WrapString("Consistency level of all queries (e.g. ONE, QUORUM, ALL)"))
	flags.Duration("scylla-timeout", scyllaDefaults.Timeout, WrapString("Query and connect timeout"))
	flags.Int("scylla-batch-size", scyllaDefaults.BatchSize, WrapString("Maximum number of statements per batch and of keys per multi read query"))

	// raft
	raftDefaults := dstore.DefaultOptions()
	flags.Uint64("raft-rtt-millisecond", raftDefaults.RTTMillisecond, WrapString("RTTMillisecond of the raft node host. ElectionRTT and HeartbeatRTT are derived from this value"))
	flags.Duration("raft-timeout", raftDefaults.Timeout, WrapString("Timeout of raft proposals, reads and the leader election"))
	flags.Uint64("raft-snapshot-entries", raftDefaults.SnapshotEntries, WrapString("Snapshot the state machine every n applied entries (0 = disabled)"))
}

// ReadConfig reads the configuration from viper and parses the positional arguments
// <num_key> <key_size> <value_size>
func ReadConfig(args []string) (*Config, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("requires 3 arguments <num_key> <key_size> <value_size>, received %d", len(args))
	}

	names := []string{"num_key", "key_size", "value_size"}
	sizes := make([]int, 3)
	for i := range sizes {
		v, err := strconv.ParseUint(args[i], 10, strconv.IntSize-1)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: must be an unsigned integer", names[i], args[i])
		}
		sizes[i] = int(v)
	}

	c := &Config{
		Bench:       bench.DefaultConfig(sizes[0], sizes[1], sizes[2]),
		Backends:    splitList(viper.GetString("backends")),
		LogLevel:    viper.GetString("log-level"),
		CSVPath:     viper.GetString("csv"),
		MetricsFile: viper.GetString("metrics-file"),
		Table:       viper.GetBool("table"),
		DataDir:     viper.GetString("data-dir"),
		Dynamo: dynamo.Options{
			Endpoint:        viper.GetString("dynamodb-endpoint"),
			Region:          viper.GetString("dynamodb-region"),
			AccessKeyID:     viper.GetString("dynamodb-access-key-id"),
			SecretAccessKey: viper.GetString("dynamodb-secret-access-key"),
			TableTimeout:    viper.GetDuration("dynamodb-table-timeout"),
		},
		Scylla: scylla.Options{
			Hosts:             splitList(viper.GetString("scylla-hosts")),
			ReplicationFactor: viper.GetInt("scylla-replication-factor"),
			Consistency:       viper.GetString("scylla-consistency"),
			Timeout:           viper.GetDuration("scylla-timeout"),
			BatchSize:         viper.GetInt("scylla-batch-size"),
		},
		Raft: dstore.Options{
			BaseDir:            viper.GetString("data-dir"),
			RTTMillisecond:     viper.GetUint64("raft-rtt-millisecond"),
			Timeout:            viper.GetDuration("raft-timeout"),
			SnapshotEntries:    viper.GetUint64("raft-snapshot-entries"),
			CompactionOverhead: viper.GetUint64("raft-snapshot-entries") / 2,
		},
	}
	c.Bench.Seed = viper.GetUint64("seed")
	c.Bench.SkipWrite = viper.GetBool("skip-write")
	c.Bench.MaxConcurrency = viper.GetInt("max-concurrency")
	c.Bench.OpStats = viper.GetBool("op-stats")

	if len(c.Backends) == 0 {
		return nil, fmt.Errorf("no backends selected")
	}
	if err := c.Bench.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// String returns a human-readable representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Benchmark")
	addField("Num Keys", strconv.Itoa(c.Bench.NumKeys))
	addField("Key Size", fmt.Sprintf("%d bytes", c.Bench.KeySize))
	addField("Value Size", fmt.Sprintf("%d bytes", c.Bench.ValueSize))
	addField("Seed", strconv.FormatUint(c.Bench.Seed, 10))
	addField("Skip Write", strconv.FormatBool(c.Bench.SkipWrite))
	addField("Max Concurrency", strconv.Itoa(c.Bench.MaxConcurrency))
	addField("Op Stats", strconv.FormatBool(c.Bench.OpStats))
	addField("Backends", strings.Join(c.Backends, ", "))

	addSection("Output")
	addField("Log Level", c.LogLevel)
	addField("CSV File", c.CSVPath)
	addField("Metrics File", c.MetricsFile)
	addField("Table", strconv.FormatBool(c.Table))

	addSection("Embedded Backends")
	addField("Data Directory", c.DataDir)

	addSection("DynamoDB")
	addField("Endpoint", c.Dynamo.Endpoint)
	addField("Region", c.Dynamo.Region)
	addField("Static Credentials", strconv.FormatBool(c.Dynamo.AccessKeyID != ""))
	addField("Table Timeout", c.Dynamo.TableTimeout.String())

	addSection("ScyllaDB")
	addField("Hosts", strings.Join(c.Scylla.Hosts, ", "))
	addField("Replication Factor", strconv.Itoa(c.Scylla.ReplicationFactor))
	addField("Consistency", c.Scylla.Consistency)
	addField("Timeout", c.Scylla.Timeout.String())
	addField("Batch Size", strconv.Itoa(c.Scylla.BatchSize))

	addSection("RAFT Parameters")
	addField("Round Trip Time (ms)", fmt.Sprintf("%d ms", c.Raft.RTTMillisecond))
	addField("Election RTT (ms)", fmt.Sprintf("%d", c.Raft.RTTMillisecond*10))
	addField("Heartbeat RTT (ms)", fmt.Sprintf("%d", c.Raft.RTTMillisecond))
	addField("Snapshot Entries", fmt.Sprintf("%d", c.Raft.SnapshotEntries))
	addField("Timeout", c.Raft.Timeout.String())

	return sb.String()
}

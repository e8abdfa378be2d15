package bench

import (
	"context"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/instrumented"
	"github.com/cockroachdb/errors"
	"github.com/rcrowley/go-metrics"
)

// Config configures a benchmark run
type Config struct {
	NumKeys        int    // Number of generated key value pairs
	KeySize        int    // Length of every key in bytes
	ValueSize      int    // Length of every value in bytes
	Seed           uint64 // Seed of the key generator
	SkipWrite      bool   // Only run the read patterns
	MaxConcurrency int    // Limit of concurrent goroutines of the futures patterns (0 = unlimited)
	OpStats        bool   // Time every store operation and log the statistics per backend
}

// DefaultConfig returns the configuration used for a run with the given sizes
func DefaultConfig(numKeys, keySize, valueSize int) Config {
	return Config{
		NumKeys:   numKeys,
		KeySize:   keySize,
		ValueSize: valueSize,
		Seed:      DefaultSeed,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.NumKeys < 0 || c.KeySize < 0 || c.ValueSize < 0 {
		return errors.Newf("sizes must not be negative (num_key=%d, key_size=%d, value_size=%d)", c.NumKeys, c.KeySize, c.ValueSize)
	}
	if c.MaxConcurrency < 0 {
		return errors.Newf("max concurrency must not be negative, got %d", c.MaxConcurrency)
	}
	return nil
}

// Run benchmarks the databases one after the other. For every database a dataset is built
// from cfg.Seed, the write patterns are run (unless cfg.SkipWrite) followed by the read
// patterns. The first error stops the run and is returned with the backend name.
func Run(ctx context.Context, cfg Config, dbs []store.TestDatabase, rep Reporter) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	runner := NewRunner(rep, cfg.MaxConcurrency)

	for _, db := range dbs {
		var registry metrics.Registry
		if cfg.OpStats {
			registry = metrics.NewRegistry()
			db = instrumented.Wrap(db, registry)
		}

		log.Infof("benchmarking %s (num_key=%d, key_size=%d, value_size=%d)", db.Name(), cfg.NumKeys, cfg.KeySize, cfg.ValueSize)
		data := BuildDataset(NewKeyGenerator(cfg.Seed), cfg.NumKeys, cfg.KeySize, cfg.ValueSize)

		if !cfg.SkipWrite {
			if err := runner.RunWrite(ctx, db, data); err != nil {
				return errors.Wrapf(err, "backend %s", db.Name())
			}
		}
		if err := runner.RunRead(ctx, db, data); err != nil {
			return errors.Wrapf(err, "backend %s", db.Name())
		}

		if registry != nil {
			for _, s := range instrumented.Stats(registry) {
				log.Infof("%s %-17s count=%-8d mean=%-12s p99=%s", db.Name(), s.Op, s.Count, s.Mean, s.P99)
			}
		}
	}
	return nil
}

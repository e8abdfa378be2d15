package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ValentinKolb/kvbench/cmd/util"
	"github.com/ValentinKolb/kvbench/lib/bench"
	"github.com/ValentinKolb/kvbench/lib/logging"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
)

var (
	log = logger.GetLogger("cmd")

	runConfig = &util.Config{}

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvbench <num_key> <key_size> <value_size>",
		Short: "key-value storage backend benchmark",
		Long: fmt.Sprintf(`kvbench (v%s)

Measures the read and write latency of key-value storage backends with three
access patterns each: one batched call, a sequential loop and concurrent
goroutines. num_key pairs of random keys (key_size bytes) and values
(value_size bytes) are generated from a fixed seed, so every backend sees the
same data.

Every flag can also be set with an environment variable KVBENCH_<FLAG>
(e.g. KVBENCH_SCYLLA_HOSTS=10.0.0.1,10.0.0.2). .env and .env.local files are loaded.`, Version),
		Args:    cobra.MinimumNArgs(3),
		PreRunE: processConfig,
		RunE:    run,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvbench",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kvbench v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(backendsCmd)

	// Add Flags
	util.SetupFlags(RootCmd)
}

// processConfig binds the flags to viper and reads the run configuration
func processConfig(cmd *cobra.Command, args []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	c, err := util.ReadConfig(args)
	if err != nil {
		return err
	}
	runConfig = c
	return nil
}

// run benchmarks all selected backends
func run(cmd *cobra.Command, _ []string) error {
	// arguments are valid, errors from here on are not usage errors
	cmd.SilenceUsage = true

	if err := logging.InitLoggers(runConfig.LogLevel); err != nil {
		return err
	}
	log.Debugf("configuration:\n%s", runConfig)

	dbs, err := util.BuildDatabases(runConfig)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report := bench.NewReport(cmd.OutOrStdout())
	runErr := bench.Run(ctx, runConfig.Bench, dbs, report)

	// the timings measured before a failure are exported as well
	if err := writeOutputs(runConfig, report, cmd.OutOrStdout()); err != nil {
		if runErr != nil {
			log.Errorf("failed to write outputs: %v", err)
			return runErr
		}
		return err
	}
	return runErr
}

// writeOutputs writes the optional CSV file, metrics file and summary table
func writeOutputs(c *util.Config, report *bench.Report, out io.Writer) error {
	if c.CSVPath != "" {
		if err := writeFile(c.CSVPath, report.WriteCSV); err != nil {
			return fmt.Errorf("failed to write csv file: %w", err)
		}
		log.Infof("wrote timings to %s", c.CSVPath)
	}

	if c.MetricsFile != "" {
		err := writeFile(c.MetricsFile, func(w io.Writer) error {
			report.WritePrometheus(w)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
		log.Infof("wrote metrics to %s", c.MetricsFile)
	}

	if c.Table {
		report.RenderTable(out)
	}
	return nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

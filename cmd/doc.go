// Package cmd implements the command-line interface of kvbench.
//
//	kvbench [flags] <num_key> <key_size> <value_size>
//
// runs the benchmark on every selected backend and prints one line per backend
// and access pattern to stdout:
//
//	Runtime <backend> for <pattern>: <elapsed>ms
//
// Logs are written to stderr. Subcommands:
//
//   - backends: lists the backend registry
//   - version: prints the version
//
// The subpackage util holds the flag definitions, the configuration and the
// backend registry (internal use).
//
// See kvbench --help for a list of all flags.
package cmd

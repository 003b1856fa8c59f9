// Package endbench holds constants shared across the benchmark harness.
package endbench

const (
	// ClientVersion is reported by the CLI and stamped into run metadata.
	ClientVersion = "0.3.1"

	// DefaultConfigFile is the config path used when none is given on the
	// command line.
	DefaultConfigFile = "endbench.yml"

	// DefaultOutputDir receives the results table, the scaling summary,
	// and the per-job logs for a run.
	DefaultOutputDir = "results"
)

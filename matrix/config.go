// Package matrix defines the experiment configuration and enumerates the
// measurement matrix a run will execute.
package matrix

import (
	"os"

	"github.com/google/shlex"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SolverSpec names one solver variant under comparison.
type SolverSpec struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
	// Fragile marks a variant known to crash on hard inputs. Whether
	// fragile variants still get paired with such inputs is a run-level
	// choice (IncludeFragile), not something the harness decides.
	Fragile bool `yaml:"fragile,omitempty"`
}

// Preset selects a named subset of the configured dimensions. Empty slices
// inherit the full configured dimension; a zero trial count inherits the
// config default. Presets change which cells are enumerated, never any
// schema.
type Preset struct {
	Solvers   []string `yaml:"solvers,omitempty"`
	Positions []string `yaml:"positions,omitempty"`
	Threads   []int    `yaml:"threads,omitempty"`
	Trials    int      `yaml:"trials,omitempty"`
}

// Config is the YAML experiment definition.
type Config struct {
	Solvers   []SolverSpec `yaml:"solvers"`
	Positions []string     `yaml:"positions"`
	Threads   []int        `yaml:"threads"`
	Trials    int          `yaml:"trials"`

	TimeLimitSecs int    `yaml:"time_limit_secs"`
	EvalDataFile  string `yaml:"eval_data_file"`

	// Placement is the resource-placement prefix as a single command
	// string, e.g. "numactl --interleave=all". Applied only when the
	// tool is actually present on the host.
	Placement string `yaml:"placement,omitempty"`

	// ParallelFraction is the parallelizable fraction f used by the
	// Amdahl prediction in the scaling summary.
	ParallelFraction float64 `yaml:"amdahl_parallel_fraction"`

	// BaselineThreads anchors the speedup ratios; defaults to 1.
	BaselineThreads int `yaml:"baseline_threads,omitempty"`

	// IncludeFragile controls whether solvers marked fragile are still
	// paired with positions above FragileCutoffEmpties. Unset means
	// true: crashes are recorded as data, not avoided.
	IncludeFragile       *bool `yaml:"include_fragile,omitempty"`
	FragileCutoffEmpties int   `yaml:"fragile_cutoff_empties,omitempty"`

	OutputDir string            `yaml:"output_dir,omitempty"`
	Presets   map[string]Preset `yaml:"presets,omitempty"`
}

// LoadConfig reads and validates a YAML experiment definition.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config '%s'", path)
	}

	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrapf(err, "parsing config '%s'", path)
	}

	if c.BaselineThreads == 0 {
		c.BaselineThreads = 1
	}

	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config '%s'", path)
	}

	return c, nil
}

// Validate checks the dimension lists and preset references.
func (c *Config) Validate() error {
	catcher := grip.NewBasicCatcher()

	catcher.NewWhen(len(c.Solvers) == 0, "no solvers configured")
	seen := map[string]bool{}
	for _, s := range c.Solvers {
		catcher.ErrorfWhen(s.Name == "", "solver with path '%s' has no name", s.Path)
		catcher.ErrorfWhen(s.Path == "", "solver '%s' has no binary path", s.Name)
		catcher.ErrorfWhen(seen[s.Name], "duplicate solver name '%s'", s.Name)
		seen[s.Name] = true
	}

	catcher.NewWhen(len(c.Positions) == 0, "no positions configured")
	catcher.NewWhen(len(c.Threads) == 0, "no thread counts configured")
	for _, p := range c.Threads {
		catcher.ErrorfWhen(p < 1, "thread count %d is not positive", p)
	}
	catcher.NewWhen(c.Trials < 1, "trials must be at least 1")
	catcher.NewWhen(c.TimeLimitSecs < 1, "time limit must be at least 1 second")
	catcher.NewWhen(c.EvalDataFile == "", "no evaluation data file configured")
	catcher.ErrorfWhen(c.ParallelFraction < 0 || c.ParallelFraction > 1,
		"amdahl parallel fraction %f is outside [0,1]", c.ParallelFraction)

	if _, err := c.PlacementArgs(); err != nil {
		catcher.Wrap(err, "placement prefix")
	}

	for name, preset := range c.Presets {
		for _, sn := range preset.Solvers {
			catcher.ErrorfWhen(!seen[sn], "preset '%s' references unknown solver '%s'", name, sn)
		}
		for _, p := range preset.Threads {
			catcher.ErrorfWhen(p < 1, "preset '%s' has non-positive thread count %d", name, p)
		}
		catcher.ErrorfWhen(preset.Trials < 0, "preset '%s' has negative trials", name)
	}

	return catcher.Resolve()
}

// PlacementArgs splits the configured placement prefix into argv tokens.
func (c *Config) PlacementArgs() ([]string, error) {
	if c.Placement == "" {
		return nil, nil
	}
	args, err := shlex.Split(c.Placement)
	return args, errors.Wrapf(err, "splitting placement prefix '%s'", c.Placement)
}

// KeepFragile reports the resolved include-fragile choice.
func (c *Config) KeepFragile() bool {
	if c.IncludeFragile == nil {
		return true
	}
	return *c.IncludeFragile
}

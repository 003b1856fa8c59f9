package matrix

import (
	"testing"

	"github.com/evergreen-ci/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Solvers: []SolverSpec{
			{Name: "seq", Path: "/opt/solvers/seq", Fragile: true},
			{Name: "ws", Path: "/opt/solvers/ws"},
		},
		Positions:        []string{"empties_12_id_001", "empties_20_id_002"},
		Threads:          []int{1, 2},
		Trials:           2,
		TimeLimitSecs:    60,
		EvalDataFile:     "eval.dat",
		ParallelFraction: 0.95,
		BaselineThreads:  1,
	}
}

func TestEnumerateNestedOrder(t *testing.T) {
	cfg := testConfig()
	cells, err := cfg.Enumerate("")
	require.NoError(t, err)
	// 2 solvers x 2 positions x 2 thread counts x 2 trials
	require.Len(t, cells, 16)

	first := cells[0]
	assert.Equal(t, "seq", first.Solver.Name)
	assert.Equal(t, "empties_12_id_001", first.Position)
	assert.Equal(t, 1, first.Threads)
	assert.Equal(t, 1, first.Trial)

	// Trial varies fastest, then threads, then position, then solver.
	assert.Equal(t, 2, cells[1].Trial)
	assert.Equal(t, 2, cells[2].Threads)
	assert.Equal(t, "empties_20_id_002", cells[4].Position)
	assert.Equal(t, "ws", cells[8].Solver.Name)
}

func TestEnumerateIsDeterministic(t *testing.T) {
	cfg := testConfig()
	a, err := cfg.Enumerate("")
	require.NoError(t, err)
	b, err := cfg.Enumerate("")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEnumeratePresetSubset(t *testing.T) {
	cfg := testConfig()
	cfg.Presets = map[string]Preset{
		"smoke": {
			Solvers:   []string{"ws"},
			Positions: []string{"empties_12_id_001"},
			Threads:   []int{2},
			Trials:    1,
		},
		"trials-only": {Trials: 1},
	}

	cells, err := cfg.Enumerate("smoke")
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "ws", cells[0].Solver.Name)
	assert.Equal(t, 2, cells[0].Threads)

	// Unset preset dimensions inherit the full configured lists.
	cells, err = cfg.Enumerate("trials-only")
	require.NoError(t, err)
	assert.Len(t, cells, 8)
}

func TestEnumerateUnknownPreset(t *testing.T) {
	cfg := testConfig()
	_, err := cfg.Enumerate("nope")
	assert.Error(t, err)
}

func TestEnumerateFragileFiltering(t *testing.T) {
	cfg := testConfig()
	cfg.IncludeFragile = utility.ToBoolPtr(false)
	cfg.FragileCutoffEmpties = 14

	cells, err := cfg.Enumerate("")
	require.NoError(t, err)
	for _, cell := range cells {
		if cell.Solver.Fragile {
			assert.LessOrEqual(t, PositionEmpties(cell.Position), 14,
				"fragile solver paired with %s", cell.Position)
		}
	}
	// seq loses one position (4 cells); ws keeps both.
	assert.Len(t, cells, 12)

	// The default keeps every pairing: crashes are data.
	cfg.IncludeFragile = nil
	cells, err = cfg.Enumerate("")
	require.NoError(t, err)
	assert.Len(t, cells, 16)
}

func TestPositionEmpties(t *testing.T) {
	assert.Equal(t, 14, PositionEmpties("empties_14_id_007"))
	assert.Equal(t, 20, PositionEmpties("positions/empties_20_id_123"))
	assert.Equal(t, 0, PositionEmpties("board_14.pos"))
	assert.Equal(t, 0, PositionEmpties(""))
	assert.Equal(t, 0, PositionEmpties("empties_x_id_001"))
}

func TestPlacementArgs(t *testing.T) {
	cfg := testConfig()
	args, err := cfg.PlacementArgs()
	require.NoError(t, err)
	assert.Nil(t, args)

	cfg.Placement = "numactl --interleave=all"
	args, err = cfg.PlacementArgs()
	require.NoError(t, err)
	assert.Equal(t, []string{"numactl", "--interleave=all"}, args)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, testConfig().Validate())

	for name, breakIt := range map[string]func(*Config){
		"no solvers":     func(c *Config) { c.Solvers = nil },
		"unnamed solver": func(c *Config) { c.Solvers[0].Name = "" },
		"pathless solver": func(c *Config) {
			c.Solvers[1].Path = ""
		},
		"duplicate solver": func(c *Config) { c.Solvers[1].Name = "seq" },
		"no positions":     func(c *Config) { c.Positions = nil },
		"no threads":       func(c *Config) { c.Threads = nil },
		"zero threads":     func(c *Config) { c.Threads = []int{0} },
		"zero trials":      func(c *Config) { c.Trials = 0 },
		"zero time limit":  func(c *Config) { c.TimeLimitSecs = 0 },
		"no eval file":     func(c *Config) { c.EvalDataFile = "" },
		"bad fraction":     func(c *Config) { c.ParallelFraction = 1.5 },
		"bad preset solver": func(c *Config) {
			c.Presets = map[string]Preset{"x": {Solvers: []string{"ghost"}}}
		},
	} {
		cfg := testConfig()
		breakIt(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

package matrix

import (
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// Cell is one enumerated measurement: a solver, a position, a thread count,
// and a trial index. The enumerated slice is generated once per run and
// treated as read-only afterward.
type Cell struct {
	Solver   SolverSpec
	Position string
	Threads  int
	Trial    int
}

// Position files follow the convention empties_<NN>_id_<NNN>.
var positionName = regexp.MustCompile(`^empties_(\d+)_id_(\d+)$`)

// PositionEmpties extracts the empty-cell count from a position file name,
// or 0 when the name does not follow the convention.
func PositionEmpties(position string) int {
	m := positionName.FindStringSubmatch(filepath.Base(position))
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// Enumerate expands the experiment matrix in deterministic nested order:
// solver, then position, then thread count, then trial. An empty preset
// name means the full configured dimensions. When the run excludes fragile
// pairings, cells combining a fragile solver with a position above the
// cutoff are dropped here, before anything executes.
func (c *Config) Enumerate(preset string) ([]Cell, error) {
	solvers := c.Solvers
	positions := c.Positions
	threads := c.Threads
	trials := c.Trials

	if preset != "" {
		p, ok := c.Presets[preset]
		if !ok {
			return nil, errors.Errorf("unknown preset '%s'", preset)
		}
		if len(p.Solvers) > 0 {
			solvers = nil
			for _, name := range p.Solvers {
				for _, s := range c.Solvers {
					if s.Name == name {
						solvers = append(solvers, s)
					}
				}
			}
		}
		if len(p.Positions) > 0 {
			positions = p.Positions
		}
		if len(p.Threads) > 0 {
			threads = p.Threads
		}
		if p.Trials > 0 {
			trials = p.Trials
		}
	}

	var cells []Cell
	for _, s := range solvers {
		for _, pos := range positions {
			if !c.KeepFragile() && s.Fragile && PositionEmpties(pos) > c.FragileCutoffEmpties {
				continue
			}
			for _, p := range threads {
				for trial := 1; trial <= trials; trial++ {
					cells = append(cells, Cell{
						Solver:   s,
						Position: pos,
						Threads:  p,
						Trial:    trial,
					})
				}
			}
		}
	}

	return cells, nil
}

// Package aggregate computes cross-trial scaling statistics. Means only ever
// cover trials the solver actually finished; anything with a zero or missing
// denominator is carried as an explicit not-computable value instead of a
// NaN, an Inf, or a fabricated number.
package aggregate

import (
	"sort"
	"strconv"

	"github.com/othello-hpc/endbench/parselog"
	"gonum.org/v1/gonum/stat"
)

// Value is a statistic that may be not-computable. The zero Value is
// not-computable.
type Value struct {
	val float64
	ok  bool
}

// Computable wraps a finite statistic.
func Computable(v float64) Value { return Value{val: v, ok: true} }

// NotComputable marks a statistic whose inputs were missing or degenerate.
func NotComputable() Value { return Value{} }

// Float64 returns the value and whether it is computable.
func (v Value) Float64() (float64, bool) { return v.val, v.ok }

// Format renders the value with the given number of decimals, or "NA" when
// not computable.
func (v Value) Format(decimals int) string {
	if !v.ok {
		return "NA"
	}
	return strconv.FormatFloat(v.val, 'f', decimals, 64)
}

// Cell keys one (solver, thread count) aggregation bucket.
type Cell struct {
	Solver  string
	Threads int
}

// Row is the per-cell scaling summary.
type Row struct {
	Solver      string
	Threads     int
	ValidTrials int

	AvgTime  Value
	AvgNodes Value
	AvgNPS   Value
	TimeCV   Value

	Speedup       Value
	Efficiency    Value
	IdealSpeedup  float64
	AmdahlSpeedup float64
}

// Amdahl predicts speedup at p threads for a workload whose parallelizable
// fraction is f: 1 / ((1-f) + f/p).
func Amdahl(f float64, p int) float64 {
	if p < 1 {
		p = 1
	}
	return 1.0 / ((1.0 - f) + f/float64(p))
}

// Table accumulates per-trial metrics and produces scaling rows. The
// parallel fraction for the Amdahl prediction and the baseline thread count
// for speedup are supplied by the caller, never invented here.
type Table struct {
	parallelFraction float64
	baselineThreads  int
	cells            map[Cell][]parselog.Metrics
}

// NewTable returns an empty table. baselineThreads is the thread count whose
// mean time anchors the speedup ratios, normally 1.
func NewTable(parallelFraction float64, baselineThreads int) *Table {
	if baselineThreads < 1 {
		baselineThreads = 1
	}
	return &Table{
		parallelFraction: parallelFraction,
		baselineThreads:  baselineThreads,
		cells:            map[Cell][]parselog.Metrics{},
	}
}

// Add records one trial's metrics in its cell. Unsolved trials are kept so
// the trial count is honest; they are excluded from the means later.
func (t *Table) Add(solverName string, threads int, m parselog.Metrics) {
	key := Cell{Solver: solverName, Threads: threads}
	t.cells[key] = append(t.cells[key], m)
}

// cellStats are the per-cell means over solved trials only.
type cellStats struct {
	valid int
	time  float64
	nodes float64
	nps   float64
	cv    Value
}

func collect(records []parselog.Metrics) cellStats {
	var times, nodes, nps []float64
	for _, m := range records {
		if !m.Status.IsSolved() {
			continue
		}
		times = append(times, m.TimeSec)
		nodes = append(nodes, float64(m.TotalNodes))
		nps = append(nps, float64(m.NPS))
	}

	cs := cellStats{valid: len(times)}
	if cs.valid == 0 {
		cs.cv = NotComputable()
		return cs
	}

	cs.time = stat.Mean(times, nil)
	cs.nodes = stat.Mean(nodes, nil)
	cs.nps = stat.Mean(nps, nil)

	cs.cv = NotComputable()
	if len(times) >= 2 && cs.time > 0 {
		cs.cv = Computable(stat.StdDev(times, nil) / cs.time)
	}

	return cs
}

// Rows computes the scaling summary, ordered by solver name and then thread
// count. Speedup compares each cell against the same solver's baseline
// thread count; a missing, empty, or zero-time baseline makes speedup and
// efficiency not-computable for the whole solver.
func (t *Table) Rows() []Row {
	keys := make([]Cell, 0, len(t.cells))
	for key := range t.cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Solver != keys[j].Solver {
			return keys[i].Solver < keys[j].Solver
		}
		return keys[i].Threads < keys[j].Threads
	})

	baselines := map[string]cellStats{}
	for key, records := range t.cells {
		if key.Threads == t.baselineThreads {
			baselines[key.Solver] = collect(records)
		}
	}

	rows := make([]Row, 0, len(keys))
	for _, key := range keys {
		cs := collect(t.cells[key])

		row := Row{
			Solver:        key.Solver,
			Threads:       key.Threads,
			ValidTrials:   cs.valid,
			AvgTime:       NotComputable(),
			AvgNodes:      NotComputable(),
			AvgNPS:        NotComputable(),
			TimeCV:        cs.cv,
			Speedup:       NotComputable(),
			Efficiency:    NotComputable(),
			IdealSpeedup:  float64(key.Threads),
			AmdahlSpeedup: Amdahl(t.parallelFraction, key.Threads),
		}

		if cs.valid > 0 {
			row.AvgTime = Computable(cs.time)
			row.AvgNodes = Computable(cs.nodes)
			row.AvgNPS = Computable(cs.nps)

			base, ok := baselines[key.Solver]
			if ok && base.valid > 0 && base.time > 0 && cs.time > 0 {
				speedup := base.time / cs.time
				row.Speedup = Computable(speedup)
				row.Efficiency = Computable(speedup / float64(key.Threads) * 100.0)
			}
		}

		rows = append(rows, row)
	}

	return rows
}

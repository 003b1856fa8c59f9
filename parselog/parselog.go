// Package parselog extracts structured metrics from the free-form output of
// a solver run. Parsing is a total function: any text, including garbage
// from a crashing process, yields a well-defined result. The distinction
// between "the solver measured zero" and "nothing was measured" is kept in
// the tagged Result and collapsed to zero sentinels only in Resolve.
package parselog

import (
	"regexp"
	"strconv"

	"github.com/evergreen-ci/utility"
	"github.com/othello-hpc/endbench/solver"
)

// Status is the persisted vocabulary for a measurement's outcome.
type Status string

const (
	StatusWin     Status = "WIN"
	StatusLoss    Status = "LOSS"
	StatusDraw    Status = "DRAW"
	StatusUnknown Status = "UNKNOWN"
	StatusTimeout Status = "TIMEOUT"
)

// IsSolved reports whether the solver actually finished the position; only
// solved trials contribute numeric data to aggregation.
func (s Status) IsSolved() bool {
	return s == StatusWin || s == StatusLoss || s == StatusDraw
}

// Summary holds the values of the solver's throughput line.
type Summary struct {
	Nodes   int64
	Seconds float64
	NPS     int64
}

// Result is the tagged output of Parse. A nil Summary means the throughput
// line was absent, which is different from a line reporting zeros; the same
// holds for the optional worker-utilization and subtask counters.
type Result struct {
	Summary    *Summary
	Outcome    Status
	WorkerUtil *float64
	Subtasks   *int64
}

// The two authoritative line shapes of the solver's stdout contract, plus
// the optional counters some variants report. Matching is order-insensitive
// and tolerant of arbitrary surrounding text; the first occurrence of each
// shape wins.
var (
	summaryLine  = regexp.MustCompile(`(?m)^\s*Total:\s*(\d+)\s+nodes\s+in\s+(\d+(?:\.\d+)?)\s+seconds\s+\((\d+)\s+NPS\)`)
	resultLine   = regexp.MustCompile(`(?m)^\s*Result:\s*(WIN|LOSS|DRAW)\b`)
	workersLine  = regexp.MustCompile(`(?m)^\s*Workers:\s*(\d+(?:\.\d+)?)%\s+utilization`)
	subtasksLine = regexp.MustCompile(`(?m)^\s*Subtasks:\s*(\d+)\b`)
)

// Parse scans the log text for the recognized line shapes. It never fails;
// unrecognized or absent lines leave the corresponding field untagged.
func Parse(text string) Result {
	res := Result{Outcome: StatusUnknown}

	if m := summaryLine.FindStringSubmatch(text); m != nil {
		nodes, _ := strconv.ParseInt(m[1], 10, 64)
		seconds, _ := strconv.ParseFloat(m[2], 64)
		nps, _ := strconv.ParseInt(m[3], 10, 64)
		res.Summary = &Summary{Nodes: nodes, Seconds: seconds, NPS: nps}
	}

	if m := resultLine.FindStringSubmatch(text); m != nil {
		res.Outcome = Status(m[1])
	}

	if m := workersLine.FindStringSubmatch(text); m != nil {
		util, _ := strconv.ParseFloat(m[1], 64)
		res.WorkerUtil = utility.ToFloat64Ptr(util)
	}

	if m := subtasksLine.FindStringSubmatch(text); m != nil {
		n, _ := strconv.ParseInt(m[1], 10, 64)
		res.Subtasks = utility.ToInt64Ptr(n)
	}

	return res
}

// Metrics is the fully resolved record for one trial. All numeric fields
// are always defined, with zero standing in for anything unmeasured. A
// status outside WIN/LOSS/DRAW always carries zeros, even if the dying
// process managed to print a partial summary.
type Metrics struct {
	Status     Status
	TimeSec    float64
	TotalNodes int64
	NPS        int64
	WorkerUtil float64
	Subtasks   int64
}

// Resolve collapses the tagged result into a Metrics record, taking the
// process exit class into account. The runner's verdict outranks whatever
// the log claims: a timed-out or crashed process yields TIMEOUT or UNKNOWN
// with zeroed numbers.
func (r Result) Resolve(class solver.ExitClass) Metrics {
	m := Metrics{Status: StatusUnknown}

	switch class {
	case solver.ExitTimedOut:
		m.Status = StatusTimeout
		return m
	case solver.ExitCrashed:
		return m
	}

	m.Status = r.Outcome
	if !m.Status.IsSolved() {
		return m
	}

	if r.Summary != nil {
		m.TimeSec = r.Summary.Seconds
		m.TotalNodes = r.Summary.Nodes
		m.NPS = r.Summary.NPS
	}
	m.WorkerUtil = utility.FromFloat64Ptr(r.WorkerUtil)
	m.Subtasks = utility.FromInt64Ptr(r.Subtasks)

	return m
}

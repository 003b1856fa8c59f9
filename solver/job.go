// Package solver defines the invocation contract for the endgame solver
// binaries under measurement and runs a single measurement at a time.
package solver

import (
	"fmt"
	"strconv"
	"time"
)

// ExitClass classifies how a solver process terminated, independent of what
// it printed. Crashes and timeouts are routine outcomes for a batch and are
// represented here rather than as errors.
type ExitClass int

const (
	// ExitCompleted means the process exited zero within its budget.
	ExitCompleted ExitClass = iota
	// ExitCrashed means the process died abnormally (signal or non-zero
	// exit) for a reason other than the harness timeout.
	ExitCrashed
	// ExitTimedOut means the harness killed the process after the wall
	// clock budget elapsed.
	ExitTimedOut
)

func (c ExitClass) String() string {
	switch c {
	case ExitCompleted:
		return "COMPLETED"
	case ExitCrashed:
		return "CRASHED"
	case ExitTimedOut:
		return "TIMEOUT"
	default:
		return fmt.Sprintf("ExitClass(%d)", int(c))
	}
}

// JobDescriptor fully describes one measurement. Descriptors are immutable
// values; the driver creates one per enumerated matrix cell and trial.
type JobDescriptor struct {
	Solver        string
	SolverPath    string
	PositionFile  string
	Threads       int
	TimeLimitSecs int
	EvalDataFile  string
	// Placement is the argv prefix binding the process to a memory
	// policy (for example ["numactl", "--interleave=all"]). Empty when
	// the placement tool is unavailable or unconfigured.
	Placement []string
	LogPath   string
}

// Args assembles the solver's own command line, without any placement
// prefix; the Runner prepends that when the placement tool is available. The
// solver's positional contract is position file, thread count, time limit,
// evaluation data file, then the verbose flag; -v also selects the solver's
// non-interactive mode, which the harness requires because nothing can answer
// a prompt mid-run.
func (j JobDescriptor) Args() []string {
	args := make([]string, 0, 6)
	args = append(args,
		j.SolverPath,
		j.PositionFile,
		strconv.Itoa(j.Threads),
		strconv.Itoa(j.TimeLimitSecs),
		j.EvalDataFile,
		"-v",
	)
	return args
}

// ID returns a stable identifier for the job, used for log naming and amboy
// job IDs.
func (j JobDescriptor) ID() string {
	return fmt.Sprintf("%s.%s.t%d", j.Solver, j.PositionFile, j.Threads)
}

// JobOutcome is the process-level result of one measurement: how the child
// terminated, how long it ran, and everything it printed.
type JobOutcome struct {
	Class   ExitClass
	Elapsed time.Duration
	Log     string
}

// Package driver walks the experiment matrix and executes measurement jobs
// strictly one at a time. Concurrent jobs would share cores and memory
// bandwidth with the solver under measurement, so the dispatch loop is a
// single thread issuing one blocking job after another, and each row is
// durably recorded before the next job starts.
package driver

import (
	"context"
	"time"

	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/queue"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/othello-hpc/endbench/aggregate"
	"github.com/othello-hpc/endbench/capability"
	"github.com/othello-hpc/endbench/matrix"
	"github.com/othello-hpc/endbench/solver"
	"github.com/othello-hpc/endbench/store"
	"github.com/othello-hpc/endbench/units"
	"github.com/pkg/errors"
)

// jobState tracks one job through its lifecycle. There is no backward
// transition: a recorded job is never retried or resumed.
type jobState int

const (
	statePending jobState = iota
	stateRunning
	stateCompleted
	stateCrashed
	stateTimedOut
	stateRecorded
)

func (s jobState) String() string {
	switch s {
	case statePending:
		return "PENDING"
	case stateRunning:
		return "RUNNING"
	case stateCompleted:
		return "COMPLETED"
	case stateCrashed:
		return "CRASHED"
	case stateTimedOut:
		return "TIMEOUT"
	case stateRecorded:
		return "RECORDED"
	default:
		return "INVALID"
	}
}

func stateForClass(class solver.ExitClass) jobState {
	switch class {
	case solver.ExitCrashed:
		return stateCrashed
	case solver.ExitTimedOut:
		return stateTimedOut
	default:
		return stateCompleted
	}
}

const queuePollInterval = 25 * time.Millisecond

// Options configures a Driver. The capability set is probed once by the
// caller and handed in as a value; the driver never inspects the
// environment itself.
type Options struct {
	Config *matrix.Config
	Caps   capability.Set
	Store  *store.Store

	// UseQueue routes each job through a single-worker amboy queue
	// instead of invoking it inline. Dispatch stays serial either way:
	// the driver waits for each submitted job before building the next.
	UseQueue bool
}

// Driver owns the matrix walk for one run.
type Driver struct {
	opts      Options
	runner    *solver.Runner
	placement []string
	queue     amboy.Queue
}

// New builds a driver from validated options.
func New(opts Options) (*Driver, error) {
	if opts.Config == nil {
		return nil, errors.New("driver requires a config")
	}
	if opts.Store == nil {
		return nil, errors.New("driver requires a result store")
	}

	placement, err := opts.Config.PlacementArgs()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	d := &Driver{
		opts:      opts,
		runner:    solver.NewRunner(opts.Caps),
		placement: placement,
	}
	if opts.UseQueue {
		d.queue = queue.NewLocalLimitedSize(1, 128)
	}

	return d, nil
}

// Runner exposes the driver's runner so callers can adjust its kill grace.
func (d *Driver) Runner() *solver.Runner { return d.runner }

// describe builds the immutable descriptor for one cell.
func (d *Driver) describe(cell matrix.Cell) solver.JobDescriptor {
	return solver.JobDescriptor{
		Solver:        cell.Solver.Name,
		SolverPath:    cell.Solver.Path,
		PositionFile:  cell.Position,
		Threads:       cell.Threads,
		TimeLimitSecs: d.opts.Config.TimeLimitSecs,
		EvalDataFile:  d.opts.Config.EvalDataFile,
		Placement:     d.placement,
		LogPath:       d.opts.Store.LogPath(cell),
	}
}

// RunAll executes every enumerated cell in order. A crashed or timed-out
// solver is contained at the job boundary and the batch continues; the only
// fatal conditions are context cancellation and being unable to record a
// row. Row N is written and synced before job N+1 begins.
func (d *Driver) RunAll(ctx context.Context, cells []matrix.Cell) ([]store.ResultRow, error) {
	if d.queue != nil {
		if err := d.queue.Start(ctx); err != nil {
			return nil, errors.Wrap(err, "starting dispatch queue")
		}
	}

	rows := make([]store.ResultRow, 0, len(cells))
	for i, cell := range cells {
		if err := ctx.Err(); err != nil {
			return rows, errors.Wrap(err, "run interrupted")
		}

		state := statePending
		j := units.NewSolverBenchmarkJob(d.runner, cell, d.describe(cell))
		grip.Debug(message.Fields{
			"message": "job enumerated",
			"job":     j.ID(),
			"state":   state.String(),
		})

		state = stateRunning
		grip.Info(message.Fields{
			"message": "dispatching job",
			"job":     j.ID(),
			"index":   i + 1,
			"of":      len(cells),
			"state":   state.String(),
			"queued":  d.queue != nil,
		})

		if d.queue != nil {
			if err := d.queue.Put(ctx, j); err != nil {
				return rows, errors.Wrapf(err, "submitting job '%s'", j.ID())
			}
			if !amboy.WaitJobInterval(ctx, j, d.queue, queuePollInterval) {
				return rows, errors.Errorf("run interrupted while waiting on job '%s'", j.ID())
			}
		} else {
			j.Run(ctx)
		}

		if err := j.Error(); err != nil {
			// Not a solver failure: the job could not be executed or
			// captured at all, which means the environment is broken.
			return rows, errors.Wrapf(err, "executing job '%s'", j.ID())
		}

		row, ok := j.Row()
		if !ok {
			return rows, errors.Errorf("job '%s' completed without a result row", j.ID())
		}
		state = stateForRow(row)

		if err := d.opts.Store.Append(row); err != nil {
			return rows, errors.Wrapf(err, "recording row for job '%s'", j.ID())
		}
		state = stateRecorded
		rows = append(rows, row)

		grip.Info(message.Fields{
			"message": "job recorded",
			"job":     j.ID(),
			"result":  row.Result,
			"status":  row.Status,
			"state":   state.String(),
		})
	}

	return rows, nil
}

func stateForRow(row store.ResultRow) jobState {
	switch row.Status {
	case solver.ExitCrashed.String():
		return stateCrashed
	case solver.ExitTimedOut.String():
		return stateTimedOut
	default:
		return stateCompleted
	}
}

// Summarize aggregates recorded rows into the scaling summary. Rows appear
// in matrix-enumeration order, so each row's thread count comes from the
// cell at the same index; a mismatch means the rows were not produced by
// this matrix.
func Summarize(cfg *matrix.Config, cells []matrix.Cell, rows []store.ResultRow) ([]aggregate.Row, error) {
	if len(cells) != len(rows) {
		return nil, errors.Errorf("have %d rows for %d enumerated cells", len(rows), len(cells))
	}

	table := aggregate.NewTable(cfg.ParallelFraction, cfg.BaselineThreads)
	for i, row := range rows {
		cell := cells[i]
		if row.Solver != cell.Solver.Name || row.Position != cell.Position {
			return nil, errors.Errorf("row %d (%s, %s) does not match enumerated cell (%s, %s)",
				i+1, row.Solver, row.Position, cell.Solver.Name, cell.Position)
		}
		table.Add(row.Solver, cell.Threads, row.Metrics())
	}

	return table.Rows(), nil
}

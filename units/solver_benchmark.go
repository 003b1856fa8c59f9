// Package units holds the amboy job wrapping one measurement, used when the
// driver routes execution through its serialization queue.
package units

import (
	"context"
	"fmt"

	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/othello-hpc/endbench/matrix"
	"github.com/othello-hpc/endbench/parselog"
	"github.com/othello-hpc/endbench/solver"
	"github.com/othello-hpc/endbench/store"
	"github.com/pkg/errors"
)

const solverBenchmarkJobName = "solver-benchmark"

func init() {
	registry.AddJobType(solverBenchmarkJobName, func() amboy.Job {
		return makeSolverBenchmarkJob()
	})
}

// SolverBenchmarkJob executes one measurement: run the solver, parse its
// output, and build the persisted row. A crashed or timed-out solver is a
// normal completion for this job; only harness-level failures (an unwritable
// log file) surface through the job's error.
type SolverBenchmarkJob struct {
	job.Base `bson:"metadata" json:"metadata"`

	runner *solver.Runner
	cell   matrix.Cell
	desc   solver.JobDescriptor

	row    store.ResultRow
	hasRow bool
}

func makeSolverBenchmarkJob() *SolverBenchmarkJob {
	j := &SolverBenchmarkJob{
		Base: job.Base{
			JobType: amboy.JobType{
				Name:    solverBenchmarkJobName,
				Version: 0,
			},
		},
	}
	j.SetDependency(dependency.NewAlways())
	return j
}

// NewSolverBenchmarkJob builds the job for one enumerated cell. The driver
// either submits it to its queue or runs it directly; the semantics are
// identical.
func NewSolverBenchmarkJob(runner *solver.Runner, cell matrix.Cell, desc solver.JobDescriptor) *SolverBenchmarkJob {
	j := makeSolverBenchmarkJob()
	j.runner = runner
	j.cell = cell
	j.desc = desc
	j.SetID(fmt.Sprintf("%s.%s.r%02d", solverBenchmarkJobName, desc.ID(), cell.Trial))
	return j
}

func (j *SolverBenchmarkJob) Run(ctx context.Context) {
	defer j.MarkComplete()

	if j.runner == nil {
		j.AddError(errors.New("benchmark job has no runner"))
		return
	}

	outcome, err := j.runner.Run(ctx, j.desc)
	if err != nil {
		j.AddError(errors.Wrapf(err, "executing job '%s'", j.ID()))
		return
	}

	metrics := parselog.Parse(outcome.Log).Resolve(outcome.Class)
	j.row = store.NewResultRow(j.cell, metrics, outcome.Class)
	j.hasRow = true
}

// Row returns the persisted record produced by Run, and whether one exists.
// No row means the job itself failed, which is fatal to the run.
func (j *SolverBenchmarkJob) Row() (store.ResultRow, bool) {
	return j.row, j.hasRow
}

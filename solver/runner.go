package solver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/mongodb/jasper"
	"github.com/othello-hpc/endbench/capability"
	"github.com/pkg/errors"
)

const (
	// defaultGrace is added on top of the solver's own time limit before
	// the harness kills the process. The solver is expected to stop
	// itself at the limit; the hard deadline is the backstop for hung
	// runs.
	defaultGrace = 15 * time.Second

	// maxCapturedBytes caps the in-memory copy of the child's output.
	// The on-disk log always gets the full text.
	maxCapturedBytes = 4 << 20
)

// Runner executes measurement jobs one at a time. The capability set is
// fixed at construction; toggling a capability changes only the command
// prefix of subsequent runs, never the shape of the outcome.
type Runner struct {
	caps  capability.Set
	grace time.Duration
}

// NewRunner returns a Runner that wraps solver invocations according to the
// given capability set.
func NewRunner(caps capability.Set) *Runner {
	return &Runner{caps: caps, grace: defaultGrace}
}

// SetGrace overrides the kill deadline slack. Zero or negative values are
// ignored.
func (r *Runner) SetGrace(d time.Duration) *Runner {
	if d > 0 {
		r.grace = d
	}
	return r
}

// commandArgs builds the final argv: placement prefix only when the tool was
// detected and the job asks for a policy, then the solver's own arguments.
func (r *Runner) commandArgs(j JobDescriptor) []string {
	if r.caps.HasPlacement && len(j.Placement) > 0 {
		return append(append([]string{}, j.Placement...), j.Args()...)
	}
	return j.Args()
}

// Run executes one job and blocks until the child exits or the wall clock
// budget elapses. Crashes and timeouts are reported in the outcome, not as
// errors; the returned error is reserved for harness-level failures such as
// being unable to open the job's log file, which are fatal to the run.
//
// The child's stdin is never connected: the solver must run without prompts.
func (r *Runner) Run(ctx context.Context, j JobDescriptor) (JobOutcome, error) {
	capture := &logCapture{max: maxCapturedBytes}
	sink := newLogSink(capture)
	if j.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(j.LogPath), 0o755); err != nil {
			return JobOutcome{}, errors.Wrapf(err, "creating log directory for '%s'", j.LogPath)
		}
		f, err := os.Create(j.LogPath)
		if err != nil {
			return JobOutcome{}, errors.Wrapf(err, "creating job log '%s'", j.LogPath)
		}
		sink.file = f
	}

	budget := time.Duration(j.TimeLimitSecs)*time.Second + r.grace
	tctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	args := r.commandArgs(j)
	grip.Info(message.Fields{
		"message": "starting measurement",
		"job":     j.ID(),
		"position": j.PositionFile,
		"threads": j.Threads,
		"argv":    args,
	})

	start := time.Now()
	runErr := jasper.NewCommand().
		ID(j.ID()).
		Add(args).
		SetCombinedWriter(sink).
		Run(tctx)
	elapsed := time.Since(start)

	grip.Error(message.WrapError(sink.Close(), message.Fields{
		"message": "closing job log",
		"job":     j.ID(),
		"path":    j.LogPath,
	}))

	outcome := JobOutcome{
		Class:   ExitCompleted,
		Elapsed: elapsed,
		Log:     capture.String(),
	}
	switch {
	case tctx.Err() == context.DeadlineExceeded:
		outcome.Class = ExitTimedOut
	case runErr != nil:
		outcome.Class = ExitCrashed
	}

	grip.Info(message.Fields{
		"message":    "measurement finished",
		"job":        j.ID(),
		"class":      outcome.Class.String(),
		"elapsed":    elapsed.Seconds(),
		"bytes_read": len(outcome.Log),
	})

	return outcome, nil
}

// logCapture keeps the leading maxCapturedBytes of whatever is written to
// it and silently drops the rest. It never returns an error so a chatty
// solver cannot abort its own capture.
type logCapture struct {
	buf bytes.Buffer
	max int
}

func (c *logCapture) Write(p []byte) (int, error) {
	if remaining := c.max - c.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			c.buf.Write(p[:remaining])
		} else {
			c.buf.Write(p)
		}
	}
	return len(p), nil
}

func (c *logCapture) String() string { return c.buf.String() }

// logSink tees child output into the in-memory capture and, when present,
// the verbatim on-disk log. Close is idempotent: jasper closes registered
// writers when the command finishes and the runner closes again after.
type logSink struct {
	capture *logCapture
	file    *os.File
	closed  bool
}

func newLogSink(capture *logCapture) *logSink {
	return &logSink{capture: capture}
}

func (s *logSink) Write(p []byte) (int, error) {
	_, _ = s.capture.Write(p)
	if s.file != nil {
		return s.file.Write(p)
	}
	return len(p), nil
}

func (s *logSink) Close() error {
	if s.closed || s.file == nil {
		return nil
	}
	s.closed = true
	return errors.WithStack(s.file.Close())
}

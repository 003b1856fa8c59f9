// Package capability probes the host for the optional acceleration tools the
// harness can take advantage of. Absence of a tool is an expected outcome, not
// an error: callers degrade to running the solver bare.
package capability

import (
	"os/exec"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
)

const (
	placementTool = "numactl"
	jobQueueTool  = "ts"
)

// Set records which optional tools were found on the host. It is built once
// at startup and passed by value into the components that need it; nothing
// mutates it afterward.
type Set struct {
	// HasPlacement reports whether a NUMA placement tool is installed.
	// When false, jobs run without a placement prefix.
	HasPlacement bool
	// PlacementPath is the resolved path of the placement tool, empty
	// when HasPlacement is false.
	PlacementPath string

	// HasJobQueue reports whether an external job spooler is installed.
	// The harness serializes jobs itself either way; the flag is
	// surfaced for operators comparing runs against spooler-driven
	// setups.
	HasJobQueue  bool
	JobQueuePath string
}

// Detect inspects the environment for the optional tools. It never fails: a
// missing tool simply leaves the corresponding flag false.
func Detect() Set {
	s := Set{}

	if path, err := exec.LookPath(placementTool); err == nil {
		s.HasPlacement = true
		s.PlacementPath = path
	}
	if path, err := exec.LookPath(jobQueueTool); err == nil {
		s.HasJobQueue = true
		s.JobQueuePath = path
	}

	grip.Debug(message.Fields{
		"message":       "probed host capabilities",
		"has_placement": s.HasPlacement,
		"has_job_queue": s.HasJobQueue,
	})

	return s
}

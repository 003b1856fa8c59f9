package capability

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectMatchesLookPath(t *testing.T) {
	s := Detect()

	_, err := exec.LookPath(placementTool)
	assert.Equal(t, err == nil, s.HasPlacement)
	_, err = exec.LookPath(jobQueueTool)
	assert.Equal(t, err == nil, s.HasJobQueue)
}

func TestDetectPathsAreConsistent(t *testing.T) {
	s := Detect()

	assert.Equal(t, s.HasPlacement, s.PlacementPath != "")
	assert.Equal(t, s.HasJobQueue, s.JobQueuePath != "")
}

func TestDetectIsStable(t *testing.T) {
	assert.Equal(t, Detect(), Detect())
}

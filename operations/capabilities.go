package operations

import (
	"github.com/cheynewallace/tabby"
	"github.com/othello-hpc/endbench/capability"
	"github.com/urfave/cli"
)

// Capabilities prints which optional acceleration tools were detected.
func Capabilities() cli.Command {
	return cli.Command{
		Name:  "capabilities",
		Usage: "show which optional host tools were detected",
		Action: func(c *cli.Context) error {
			caps := capability.Detect()

			t := tabby.New()
			t.AddHeader("Capability", "Available", "Path")
			t.AddLine("resource placement", yesNo(caps.HasPlacement), caps.PlacementPath)
			t.AddLine("job queue", yesNo(caps.HasJobQueue), caps.JobQueuePath)
			t.Print()

			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

package operations

import (
	"fmt"
	"strconv"

	"github.com/cheynewallace/tabby"
	"github.com/othello-hpc/endbench/matrix"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Enumerate prints the matrix a preset would execute, without running
// anything.
func Enumerate() cli.Command {
	return cli.Command{
		Name:   "enumerate",
		Usage:  "list the jobs a preset would run",
		Flags:  experimentFlags(),
		Before: mergeBeforeFuncs(requireConfFlag),
		Action: func(c *cli.Context) error {
			cfg, err := matrix.LoadConfig(c.String(confFlagName))
			if err != nil {
				return errors.WithStack(err)
			}

			cells, err := cfg.Enumerate(c.String(presetFlagName))
			if err != nil {
				return errors.WithStack(err)
			}

			t := tabby.New()
			t.AddHeader("Solver", "Position", "Empties", "Threads", "Trial")
			for _, cell := range cells {
				t.AddLine(
					cell.Solver.Name,
					cell.Position,
					strconv.Itoa(matrix.PositionEmpties(cell.Position)),
					strconv.Itoa(cell.Threads),
					strconv.Itoa(cell.Trial),
				)
			}
			t.Print()
			fmt.Printf("%d jobs\n", len(cells))

			return nil
		},
	}
}

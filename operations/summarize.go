package operations

import (
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/othello-hpc/endbench"
	"github.com/othello-hpc/endbench/driver"
	"github.com/othello-hpc/endbench/matrix"
	"github.com/othello-hpc/endbench/store"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Summarize rebuilds the scaling summary from an existing results table.
// Rows are written in matrix-enumeration order, so re-enumerating the same
// config and preset recovers each row's thread count; the command refuses a
// table that does not line up with the matrix.
func Summarize() cli.Command {
	return cli.Command{
		Name:  "summarize",
		Usage: "recompute the scaling summary from a results table",
		Flags: experimentFlags(
			cli.StringFlag{
				Name:  resultsFlagName,
				Usage: "run directory holding the results table",
				Value: endbench.DefaultOutputDir,
			},
		),
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

			runDir := c.String(resultsFlagName)
			rows, err := store.ReadResults(store.ResultsPathIn(runDir))
			if err != nil {
				return errors.WithStack(err)
			}

			summary, err := driver.Summarize(cfg, cells, rows)
			if err != nil {
				return errors.Wrap(err, "building scaling summary")
			}

			summaryPath := store.SummaryPathIn(runDir)
			if err := store.WriteSummaryFile(summaryPath, summary); err != nil {
				return errors.WithStack(err)
			}
			grip.Info(message.Fields{
				"message": "rewrote scaling summary",
				"path":    summaryPath,
				"rows":    len(summary),
			})

			store.PrintSummary(summary)
			return nil
		},
	}
}

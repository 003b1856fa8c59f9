package operations

import (
	"context"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/othello-hpc/endbench"
	"github.com/othello-hpc/endbench/capability"
	"github.com/othello-hpc/endbench/driver"
	"github.com/othello-hpc/endbench/matrix"
	"github.com/othello-hpc/endbench/store"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Run executes the full benchmark matrix for a preset and writes the
// results table, the per-job logs, and the scaling summary.
func Run() cli.Command {
	return cli.Command{
		Name:  "run",
		Usage: "execute the benchmark matrix and write results",
		Flags: experimentFlags(
			cli.StringFlag{
				Name:  joinFlagNames(outputFlagName, "o"),
				Usage: "run directory for results, summary, and logs",
			},
			cli.BoolFlag{
				Name:  queueFlagName,
				Usage: "route jobs through the serialization queue",
			},
		),
		Before: mergeBeforeFuncs(requireConfFlag),
		Action: func(c *cli.Context) error {
			ctx := context.Background()

			cfg, err := matrix.LoadConfig(c.String(confFlagName))
			if err != nil {
				return errors.WithStack(err)
			}

			caps := capability.Detect()
			if cfg.Placement != "" && !caps.HasPlacement {
				grip.Warning(message.Fields{
					"message":   "placement tool unavailable, running without memory placement",
					"placement": cfg.Placement,
				})
			}

			outDir := c.String(outputFlagName)
			if outDir == "" {
				outDir = cfg.OutputDir
			}
			if outDir == "" {
				outDir = endbench.DefaultOutputDir
			}

			st, err := store.Open(outDir)
			if err != nil {
				return errors.WithStack(err)
			}

			d, err := driver.New(driver.Options{
				Config:   cfg,
				Caps:     caps,
				Store:    st,
				UseQueue: c.Bool(queueFlagName),
			})
			if err != nil {
				_ = st.Close()
				return errors.WithStack(err)
			}

			cells, err := cfg.Enumerate(c.String(presetFlagName))
			if err != nil {
				_ = st.Close()
				return errors.WithStack(err)
			}
			grip.Info(message.Fields{
				"message": "starting benchmark run",
				"jobs":    len(cells),
				"preset":  c.String(presetFlagName),
				"output":  outDir,
			})

			rows, runErr := d.RunAll(ctx, cells)
			if err := st.Close(); err != nil {
				grip.Error(errors.Wrap(err, "closing result store"))
			}
			if runErr != nil {
				return errors.Wrap(runErr, "benchmark run failed")
			}

			summary, err := driver.Summarize(cfg, cells, rows)
			if err != nil {
				return errors.Wrap(err, "building scaling summary")
			}
			if err := store.WriteSummaryFile(st.SummaryPath(), summary); err != nil {
				return errors.WithStack(err)
			}

			store.PrintSummary(summary)
			return nil
		},
	}
}

package operations

import (
	"github.com/mongodb/grip"
	"github.com/othello-hpc/endbench"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

const (
	confFlagName    = "conf"
	presetFlagName  = "preset"
	outputFlagName  = "output"
	queueFlagName   = "queue"
	resultsFlagName = "results"
)

func mergeBeforeFuncs(ops ...cli.BeforeFunc) cli.BeforeFunc {
	return func(c *cli.Context) error {
		catcher := grip.NewBasicCatcher()

		for _, op := range ops {
			catcher.Add(op(c))
		}

		return catcher.Resolve()
	}
}

func requireConfFlag(c *cli.Context) error {
	if c.String(confFlagName) == "" {
		return errors.New("no experiment config specified")
	}
	return nil
}

// experimentFlags are the flags shared by every subcommand that reads the
// experiment definition.
func experimentFlags(flags ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		cli.StringFlag{
			Name:  joinFlagNames(confFlagName, "c"),
			Usage: "path to the experiment config",
			Value: endbench.DefaultConfigFile,
		},
		cli.StringFlag{
			Name:  joinFlagNames(presetFlagName, "p"),
			Usage: "named preset selecting a subset of the experiment matrix",
		},
	}, flags...)
}

func joinFlagNames(names ...string) string {
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}

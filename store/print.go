package store

import (
	"strconv"

	"github.com/cheynewallace/tabby"
	"github.com/othello-hpc/endbench/aggregate"
)

// PrintSummary renders the scaling summary as a table on stdout.
func PrintSummary(rows []aggregate.Row) {
	t := tabby.New()
	t.AddHeader("Threads", "Solver", "Avg_Time", "Avg_Speedup", "Avg_Efficiency",
		"Ideal_Speedup", "Amdahl_Speedup", "Valid_Trials")
	for _, row := range rows {
		t.AddLine(
			strconv.Itoa(row.Threads),
			row.Solver,
			row.AvgTime.Format(3),
			row.Speedup.Format(2),
			row.Efficiency.Format(1),
			strconv.FormatFloat(row.IdealSpeedup, 'f', 2, 64),
			strconv.FormatFloat(row.AmdahlSpeedup, 'f', 2, 64),
			strconv.Itoa(row.ValidTrials),
		)
	}
	t.Print()
}

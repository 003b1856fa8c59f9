package store

import (
	"os"
	"strings"
	"testing"

	"github.com/othello-hpc/endbench/aggregate"
	"github.com/othello-hpc/endbench/matrix"
	"github.com/othello-hpc/endbench/parselog"
	"github.com/othello-hpc/endbench/solver"
	"github.com/stretchr/testify/suite"
)

type StoreSuite struct {
	suite.Suite
	dir   string
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.dir = s.T().TempDir()
	var err error
	s.store, err = Open(s.dir)
	s.Require().NoError(err)
}

func (s *StoreSuite) TearDownTest() {
	_ = s.store.Close()
}

func (s *StoreSuite) row(result, status string) ResultRow {
	return ResultRow{
		Solver:     "ws",
		Position:   "empties_14_id_001",
		Empties:    14,
		Result:     result,
		TimeSec:    0.065,
		TotalNodes: 4336,
		NPS:        66855,
		Status:     status,
	}
}

func (s *StoreSuite) TestAppendAndReadBack() {
	solved := s.row("WIN", "COMPLETED")
	failed := ResultRow{
		Solver:   "seq",
		Position: "empties_20_id_002",
		Empties:  20,
		Result:   "UNKNOWN",
		Status:   "CRASHED",
	}

	s.Require().NoError(s.store.Append(solved))
	s.Require().NoError(s.store.Append(failed))
	s.Require().NoError(s.store.Close())

	rows, err := ReadResults(s.store.ResultsPath())
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal(solved, rows[0])
	s.Equal(failed, rows[1])
}

func (s *StoreSuite) TestRepeatedJobsStayIndependent() {
	row := s.row("WIN", "COMPLETED")
	s.Require().NoError(s.store.Append(row))
	s.Require().NoError(s.store.Append(row))
	s.Require().NoError(s.store.Close())

	rows, err := ReadResults(s.store.ResultsPath())
	s.Require().NoError(err)
	s.Len(rows, 2)
}

func (s *StoreSuite) TestHeaderMatchesSchema() {
	s.Require().NoError(s.store.Close())

	data, err := os.ReadFile(s.store.ResultsPath())
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	s.Require().Len(lines, 1)
	s.Equal("Solver,Position,Empties,Result,Time_Sec,Total_Nodes,NPS,Worker_Util,Subtasks,Status", lines[0])
}

func (s *StoreSuite) TestSummaryRewrittenWholesale() {
	two := []aggregate.Row{
		{Solver: "ws", Threads: 1, IdealSpeedup: 1, AmdahlSpeedup: 1},
		{Solver: "ws", Threads: 2, IdealSpeedup: 2, AmdahlSpeedup: 1.9},
	}
	s.Require().NoError(s.store.WriteSummary(two))

	one := two[:1]
	s.Require().NoError(s.store.WriteSummary(one))

	data, err := os.ReadFile(s.store.SummaryPath())
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	s.Require().Len(lines, 2, "summary must be replaced, not appended to")
	s.Equal("Threads,Solver,Avg_Time,Avg_Speedup,Avg_Efficiency,Ideal_Speedup,Amdahl_Speedup", lines[0])
	s.Contains(lines[1], "NA", "not-computable statistics persist as NA")
}

func (s *StoreSuite) TestLogPathsAreDistinctPerTrial() {
	cell := matrix.Cell{
		Solver:   matrix.SolverSpec{Name: "ws", Path: "/opt/ws"},
		Position: "empties_14_id_001",
		Threads:  4,
		Trial:    1,
	}
	first := s.store.LogPath(cell)
	cell.Trial = 2
	second := s.store.LogPath(cell)

	s.NotEqual(first, second)
	s.Contains(first, s.dir)
}

func (s *StoreSuite) TestNewResultRowCarriesSentinels() {
	cell := matrix.Cell{
		Solver:   matrix.SolverSpec{Name: "seq", Path: "/opt/seq"},
		Position: "positions/empties_18_id_003",
		Threads:  1,
		Trial:    1,
	}
	m := parselog.Metrics{Status: parselog.StatusTimeout}

	row := NewResultRow(cell, m, solver.ExitTimedOut)
	s.Equal("seq", row.Solver)
	s.Equal(18, row.Empties)
	s.Equal("TIMEOUT", row.Result)
	s.Equal("TIMEOUT", row.Status)
	s.Zero(row.TotalNodes)
	s.Zero(row.TimeSec)
}

func (s *StoreSuite) TestRowMetricsRoundTrip() {
	row := s.row("WIN", "COMPLETED")
	m := row.Metrics()
	s.Equal(parselog.StatusWin, m.Status)
	s.Equal(row.TimeSec, m.TimeSec)
	s.Equal(row.TotalNodes, m.TotalNodes)
}

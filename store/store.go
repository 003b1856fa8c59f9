// Package store persists benchmark results: an append-only per-job results
// table, a per-job verbatim log directory, and a scaling summary that is
// regenerated wholesale at the end of a run. The driver's sequential
// dispatch makes the store single-writer by construction.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/othello-hpc/endbench/aggregate"
	"github.com/othello-hpc/endbench/matrix"
	"github.com/othello-hpc/endbench/parselog"
	"github.com/othello-hpc/endbench/solver"
	"github.com/pkg/errors"
)

const (
	resultsFileName = "results.csv"
	summaryFileName = "scaling_summary.csv"
	logsDirName     = "logs"
)

var resultsHeader = []string{
	"Solver", "Position", "Empties", "Result", "Time_Sec",
	"Total_Nodes", "NPS", "Worker_Util", "Subtasks", "Status",
}

var summaryHeader = []string{
	"Threads", "Solver", "Avg_Time", "Avg_Speedup", "Avg_Efficiency",
	"Ideal_Speedup", "Amdahl_Speedup",
}

// ResultRow is one persisted record per executed job. Rows are written once
// and never mutated; a failed job is still a row, with sentinel values,
// never a gap.
type ResultRow struct {
	Solver     string
	Position   string
	Empties    int
	Result     string
	TimeSec    float64
	TotalNodes int64
	NPS        int64
	WorkerUtil float64
	Subtasks   int64
	Status     string
}

// NewResultRow builds the persisted record for one executed cell from its
// resolved metrics and the process exit class.
func NewResultRow(cell matrix.Cell, m parselog.Metrics, class solver.ExitClass) ResultRow {
	return ResultRow{
		Solver:     cell.Solver.Name,
		Position:   cell.Position,
		Empties:    matrix.PositionEmpties(cell.Position),
		Result:     string(m.Status),
		TimeSec:    m.TimeSec,
		TotalNodes: m.TotalNodes,
		NPS:        m.NPS,
		WorkerUtil: m.WorkerUtil,
		Subtasks:   m.Subtasks,
		Status:     class.String(),
	}
}

func (r ResultRow) record() []string {
	return []string{
		r.Solver,
		r.Position,
		strconv.Itoa(r.Empties),
		r.Result,
		strconv.FormatFloat(r.TimeSec, 'f', 3, 64),
		strconv.FormatInt(r.TotalNodes, 10),
		strconv.FormatInt(r.NPS, 10),
		strconv.FormatFloat(r.WorkerUtil, 'f', 1, 64),
		strconv.FormatInt(r.Subtasks, 10),
		r.Status,
	}
}

// Store owns the on-disk layout of one run. Append is the only mutation of
// the results table; summary files are rewritten whole.
type Store struct {
	dir  string
	file *os.File
	w    *csv.Writer
}

// Open creates the run directory, the logs subdirectory, and a fresh
// results table with its header row.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, logsDirName), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating run directory '%s'", dir)
	}

	path := filepath.Join(dir, resultsFileName)
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating results table '%s'", path)
	}

	s := &Store{dir: dir, file: f, w: csv.NewWriter(f)}
	if err := s.w.Write(resultsHeader); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "writing results header")
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "flushing results header")
	}

	return s, nil
}

// Dir returns the run directory.
func (s *Store) Dir() string { return s.dir }

// ResultsPath returns the path of the results table.
func (s *Store) ResultsPath() string { return ResultsPathIn(s.dir) }

// SummaryPath returns the path of the scaling summary.
func (s *Store) SummaryPath() string { return SummaryPathIn(s.dir) }

// ResultsPathIn names the results table inside a run directory.
func ResultsPathIn(dir string) string { return filepath.Join(dir, resultsFileName) }

// SummaryPathIn names the scaling summary inside a run directory.
func SummaryPathIn(dir string) string { return filepath.Join(dir, summaryFileName) }

// LogPath names the verbatim log file for one cell. Each executed job gets
// its own file; running the same cell in two runs never shares a log.
func (s *Store) LogPath(cell matrix.Cell) string {
	name := fmt.Sprintf("%s_%s_t%02d_r%02d.log",
		cell.Solver.Name, filepath.Base(cell.Position), cell.Threads, cell.Trial)
	return filepath.Join(s.dir, logsDirName, name)
}

// Append writes one row and flushes it to disk before returning, so the row
// is durable before the next job starts. A write failure here is fatal to
// the run.
func (s *Store) Append(row ResultRow) error {
	if err := s.w.Write(row.record()); err != nil {
		return errors.Wrap(err, "appending result row")
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return errors.Wrap(err, "flushing result row")
	}
	return errors.Wrap(s.file.Sync(), "syncing results table")
}

// Close releases the results table.
func (s *Store) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.file.Close()
		return errors.Wrap(err, "flushing results table")
	}
	return errors.Wrap(s.file.Close(), "closing results table")
}

// WriteSummary replaces the scaling summary with the given rows. The file
// is truncated and rewritten whole, never patched incrementally.
func (s *Store) WriteSummary(rows []aggregate.Row) error {
	return WriteSummaryFile(filepath.Join(s.dir, summaryFileName), rows)
}

// WriteSummaryFile writes a scaling summary table to an arbitrary path.
func WriteSummaryFile(path string, rows []aggregate.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating summary '%s'", path)
	}

	w := csv.NewWriter(f)
	if err := w.Write(summaryHeader); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "writing summary header")
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Threads),
			row.Solver,
			row.AvgTime.Format(3),
			row.Speedup.Format(2),
			row.Efficiency.Format(1),
			strconv.FormatFloat(row.IdealSpeedup, 'f', 2, 64),
			strconv.FormatFloat(row.AmdahlSpeedup, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			_ = f.Close()
			return errors.Wrap(err, "writing summary row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "flushing summary")
	}
	return errors.Wrapf(f.Close(), "closing summary '%s'", path)
}

// ReadResults loads a previously written results table.
func ReadResults(path string) ([]ResultRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening results table '%s'", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading results table '%s'", path)
	}
	if len(records) == 0 {
		return nil, errors.Errorf("results table '%s' is empty", path)
	}

	rows := make([]ResultRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(resultsHeader) {
			return nil, errors.Errorf("row %d has %d fields, want %d", i+1, len(rec), len(resultsHeader))
		}
		row := ResultRow{
			Solver:   rec[0],
			Position: rec[1],
			Result:   rec[3],
			Status:   rec[9],
		}
		row.Empties, _ = strconv.Atoi(rec[2])
		row.TimeSec, _ = strconv.ParseFloat(rec[4], 64)
		row.TotalNodes, _ = strconv.ParseInt(rec[5], 10, 64)
		row.NPS, _ = strconv.ParseInt(rec[6], 10, 64)
		row.WorkerUtil, _ = strconv.ParseFloat(rec[7], 64)
		row.Subtasks, _ = strconv.ParseInt(rec[8], 10, 64)
		rows = append(rows, row)
	}

	return rows, nil
}

// Metrics converts a persisted row back into the trial record shape the
// aggregator consumes.
func (r ResultRow) Metrics() parselog.Metrics {
	return parselog.Metrics{
		Status:     parselog.Status(r.Result),
		TimeSec:    r.TimeSec,
		TotalNodes: r.TotalNodes,
		NPS:        r.NPS,
		WorkerUtil: r.WorkerUtil,
		Subtasks:   r.Subtasks,
	}
}

// Package stats writes and reads the per-task statistics file referenced in
// spec.md §6: one row per simulation step, one column per health category.
// No Arrow implementation exists in the example corpus, so the on-disk
// format here is a small custom columnar binary layout rather than a
// genuine Arrow file; WriteCSV still produces the exact CSV export shape
// spec.md's scenario tests expect.
package stats

import (
	"bufio"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"

	"github.com/kentwait/epidemicsim/internal/world"
)

// magic identifies the columnar stat file format.
var magic = [4]byte{'E', 'S', 'T', '1'}

// ErrBadMagic is returned by Read when the file doesn't start with the
// expected magic bytes.
var ErrBadMagic = errors.New("stats: not a statistics file")

// Columns matches world.HealthTypeNames, fixed at build time so the header
// below and the wire order never drift apart.
var Columns = [...]string{"Susceptible", "Asymptomatic", "Symptomatic", "Recovered", "Died", "Vaccinated"}

// Row holds one step's population counts in Columns order, matching
// world.Row's column layout exactly.
type Row [len(Columns)]int64

// Write serializes rows to w: magic, column count, row count, then each row
// as little-endian int64s.
func Write(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(magic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(Columns))); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(rows))); err != nil {
		return err
	}
	for _, row := range rows {
		if err := binary.Write(bw, binary.LittleEndian, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile creates (or truncates) path and writes rows to it.
func WriteFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, rows)
}

// Read deserializes rows previously written by Write.
func Read(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	var got [4]byte
	if _, err := io.ReadFull(br, got[:]); err != nil {
		return nil, err
	}
	if got != magic {
		return nil, ErrBadMagic
	}
	var numCols uint32
	if err := binary.Read(br, binary.LittleEndian, &numCols); err != nil {
		return nil, err
	}
	if numCols != uint32(len(Columns)) {
		return nil, errors.New("stats: column count mismatch")
	}
	var numRows uint64
	if err := binary.Read(br, binary.LittleEndian, &numRows); err != nil {
		return nil, err
	}
	rows := make([]Row, numRows)
	for i := range rows {
		if err := binary.Read(br, binary.LittleEndian, &rows[i]); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// ReadFile opens path and reads the rows written there.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// WriteCSV renders rows as a CSV with the exact header order spec.md's
// concrete scenarios assert on: "Susceptible,Asymptomatic,Symptomatic,
// Recovered,Died,Vaccinated".
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns[:]); err != nil {
		return err
	}
	record := make([]string, len(Columns))
	for _, row := range rows {
		for i, v := range row {
			record[i] = strconv.FormatInt(v, 10)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FromStepLog converts a world.StepLog's rows into the columnar Row
// representation persisted to a stat file. world.Row and stats.Row share
// the same six-column layout, so this is a direct element copy.
func FromStepLog(log *world.StepLog) []Row {
	out := make([]Row, len(log.Rows))
	for i, r := range log.Rows {
		out[i] = Row(r)
	}
	return out
}

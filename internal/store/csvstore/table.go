package csvstore

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Table is an in-memory CSV file: a header and rows of the same width. Lines that could
// not be parsed are kept verbatim in Malformed so a rewrite never loses them.
type Table struct {
	Header    []string
	Rows      [][]string
	Malformed []RawLine
}

// RawLine is an unparseable line and the number of rows that preceded it.
type RawLine struct {
	Before int
	Text   string
}

// ReadStats describes a table read. Skipped counts malformed lines.
type ReadStats struct {
	Rows    int
	Skipped int
}

// ColumnIndex returns the position of a header column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Header {
		if col == name {
			return i
		}
	}
	return -1
}

// EnsureColumn appends the column with a default value on every row if it is missing and
// returns its index.
func (t *Table) EnsureColumn(name, def string) int {
	if idx := t.ColumnIndex(name); idx >= 0 {
		return idx
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], def)
	}
	return len(t.Header) - 1
}

// MoveColumnToEnd reorders the named column to be last.
func (t *Table) MoveColumnToEnd(name string) {
	idx := t.ColumnIndex(name)
	if idx < 0 || idx == len(t.Header)-1 {
		return
	}
	t.Header = moveToEnd(t.Header, idx)
	for i, row := range t.Rows {
		t.Rows[i] = moveToEnd(row, idx)
	}
}

func moveToEnd(values []string, idx int) []string {
	out := make([]string, 0, len(values))
	out = append(out, values[:idx]...)
	out = append(out, values[idx+1:]...)
	return append(out, values[idx])
}

// Values returns every row's value in a column.
func (t *Table) Values(name string) []string {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		values = append(values, row[idx])
	}
	return values
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := &Table{
		Header:    append([]string(nil), t.Header...),
		Malformed: append([]RawLine(nil), t.Malformed...),
	}
	c.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = append([]string(nil), row...)
	}
	return c
}

// Equal reports whether two tables have identical headers and rows.
func (t *Table) Equal(o *Table) bool {
	if len(t.Header) != len(o.Header) || len(t.Rows) != len(o.Rows) || len(t.Malformed) != len(o.Malformed) {
		return false
	}
	for i := range t.Malformed {
		if t.Malformed[i] != o.Malformed[i] {
			return false
		}
	}
	for i := range t.Header {
		if t.Header[i] != o.Header[i] {
			return false
		}
	}
	for i := range t.Rows {
		if len(t.Rows[i]) != len(o.Rows[i]) {
			return false
		}
		for j := range t.Rows[i] {
			if t.Rows[i][j] != o.Rows[i][j] {
				return false
			}
		}
	}
	return true
}

// ReadTable loads a CSV file one line at a time, so a broken line (an unterminated quote,
// a wrong field count) only affects itself. Such lines are kept in Table.Malformed and
// counted in ReadStats.Skipped; an unreadable header fails the whole file. Blank lines are
// ignored and an empty file yields an empty table.
//
// Records never span lines: every value written by this package is whitespace-normalized.
func ReadTable(path string) (*Table, ReadStats, error) {
	var stats ReadStats

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, err
	}
	defer f.Close()

	table := &Table{}
	br := bufio.NewReader(f)
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, stats, fmt.Errorf("reading %s: %w", path, readErr)
		}
		text := strings.TrimRight(line, "\r\n")

		if strings.TrimSpace(text) != "" {
			record, err := parseLine(text)
			switch {
			case table.Header == nil && err != nil:
				return nil, stats, fmt.Errorf("reading header of %s: %w", path, err)
			case table.Header == nil:
				table.Header = record
			case err != nil || len(record) != len(table.Header):
				table.Malformed = append(table.Malformed, RawLine{Before: len(table.Rows), Text: text})
				stats.Skipped++
			default:
				table.Rows = append(table.Rows, record)
			}
		}

		if readErr != nil {
			break
		}
	}

	stats.Rows = len(table.Rows)
	return table, stats, nil
}

func parseLine(text string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err != nil {
		return nil, err
	}
	if _, err := r.Read(); !errors.Is(err, io.EOF) {
		return nil, errors.New("line holds more than one record")
	}
	return record, nil
}

// WriteTable replaces the file at path with the table. Malformed lines are written back
// unchanged at their original positions. The content is written to a sibling temp file
// and renamed into place.
func WriteTable(path string, t *Table) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // nolint:errcheck

	w := csv.NewWriter(tmp)
	if len(t.Header) > 0 {
		if err := w.Write(t.Header); err != nil {
			tmp.Close() // nolint:errcheck
			return fmt.Errorf("writing header to %s: %w", path, err)
		}
	}
	if err := writeRows(tmp, w, t); err != nil {
		tmp.Close() // nolint:errcheck
		return fmt.Errorf("writing rows to %s: %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close() // nolint:errcheck
		return fmt.Errorf("setting mode of %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func writeRows(f *os.File, w *csv.Writer, t *Table) error {
	raw := t.Malformed
	flushRaw := func(before int) error {
		for len(raw) > 0 && raw[0].Before <= before {
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}
			if _, err := io.WriteString(f, raw[0].Text+"\n"); err != nil {
				return err
			}
			raw = raw[1:]
		}
		return nil
	}

	for i, row := range t.Rows {
		if err := flushRaw(i); err != nil {
			return err
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	if err := flushRaw(len(t.Rows)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

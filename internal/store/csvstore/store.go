// Package csvstore persists scraped games as one CSV file per date, gender and division:
//
//	<root>/<YYYY>/<MM>/<gender>/<division>/basketball_<gender>_<division>_<YYYY>_<MM>_<DD>.csv
package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fortuna/ncaa-boxscores/internal/ncaa"
	"go.uber.org/zap"
)

// Store handles the on-disk layout of division files.
type Store struct {
	root   string
	logger *zap.Logger
}

// DivisionFile is one division's CSV for a date and gender.
type DivisionFile struct {
	Division ncaa.Division
	Path     string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{root: dir, logger: logger.Named("csvstore")}, nil
}

// Root returns the output directory.
func (s *Store) Root() string {
	return s.root
}

// GenderDir is the directory holding one subdirectory per division.
func (s *Store) GenderDir(date ncaa.Date, gender ncaa.Gender) string {
	return filepath.Join(s.root, date.YYYY(), date.MM(), string(gender))
}

// FileName returns the CSV file name for a target.
func FileName(date ncaa.Date, gender ncaa.Gender, division ncaa.Division) string {
	return fmt.Sprintf("basketball_%s_%s_%s_%s_%s.csv", gender, division, date.YYYY(), date.MM(), date.DD())
}

// Path returns the CSV path for a target without touching the filesystem.
func (s *Store) Path(t ncaa.Target) string {
	return filepath.Join(s.GenderDir(t.Date, t.Gender), string(t.Division), FileName(t.Date, t.Gender, t.Division))
}

// EnsurePath creates the target's directory and returns its CSV path.
func (s *Store) EnsurePath(t ncaa.Target) (string, error) {
	path := s.Path(t)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", t, err)
	}
	return path, nil
}

// HasContent reports whether the file exists and is non-empty.
func HasContent(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// Remove deletes a division file so a fresh scrape starts from nothing.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// GameIDs returns the set of GAMEID values already in a file. A missing file is empty.
func (s *Store) GameIDs(path string) (map[string]bool, error) {
	ids := make(map[string]bool)
	if !HasContent(path) {
		return ids, nil
	}

	table, stats, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if stats.Skipped > 0 {
		s.logger.Warn("Skipped malformed lines", zap.String("path", path), zap.Int("skipped", stats.Skipped))
	}
	for _, id := range table.Values(ncaa.ColumnGameID) {
		ids[id] = true
	}
	return ids, nil
}

// HasGame reports whether a game id is present in a file.
func (s *Store) HasGame(path, gameID string) (bool, error) {
	ids, err := s.GameIDs(path)
	if err != nil {
		return false, err
	}
	return ids[gameID], nil
}

// AppendRecord writes a game's rows to a division file and returns the number of rows
// written. A new or empty file gets a header first. Rows are aligned to an existing header
// by column name; if the game brings columns the file lacks, the file is rewritten with the
// new columns placed before the duplicate flag.
func (s *Store) AppendRecord(path string, rec *ncaa.GameRecord) (int, error) {
	header, rows := rec.Flatten()
	if len(rows) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("creating directory for %s: %w", path, err)
	}

	if !HasContent(path) {
		if err := WriteTable(path, &Table{Header: header, Rows: rows}); err != nil {
			return 0, err
		}
		return len(rows), nil
	}

	existing, err := readHeader(path)
	if err != nil {
		return 0, err
	}

	if missing := missingColumns(existing, header); len(missing) > 0 {
		return s.rewriteWithColumns(path, missing, header, rows)
	}

	aligned := alignRows(existing, header, rows)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(aligned); err != nil {
		f.Close() // nolint:errcheck
		return 0, fmt.Errorf("appending to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing %s: %w", path, err)
	}

	s.logger.Debug("Appended rows", zap.String("path", path), zap.Int("rows", len(aligned)))
	return len(aligned), nil
}

func (s *Store) rewriteWithColumns(path string, missing, header []string, rows [][]string) (int, error) {
	table, stats, err := ReadTable(path)
	if err != nil {
		return 0, err
	}
	if stats.Skipped > 0 {
		s.logger.Warn("Carrying malformed lines over unchanged while extending header",
			zap.String("path", path), zap.Int("skipped", stats.Skipped))
	}

	insertAt := len(table.Header)
	if idx := table.ColumnIndex(ncaa.ColumnDuplicate); idx >= 0 {
		insertAt = idx
	}

	newHeader := make([]string, 0, len(table.Header)+len(missing))
	newHeader = append(newHeader, table.Header[:insertAt]...)
	newHeader = append(newHeader, missing...)
	newHeader = append(newHeader, table.Header[insertAt:]...)

	extended := &Table{Header: newHeader, Malformed: table.Malformed}
	for _, row := range table.Rows {
		out := make([]string, 0, len(newHeader))
		out = append(out, row[:insertAt]...)
		out = append(out, make([]string, len(missing))...)
		out = append(out, row[insertAt:]...)
		extended.Rows = append(extended.Rows, out)
	}
	aligned := alignRows(newHeader, header, rows)
	extended.Rows = append(extended.Rows, aligned...)

	if err := WriteTable(path, extended); err != nil {
		return 0, err
	}
	s.logger.Info("Extended CSV header", zap.String("path", path), zap.Strings("columns", missing))
	return len(aligned), nil
}

// DivisionFiles lists the division CSVs that exist for a date and gender, one per division
// subdirectory, sorted by division.
func (s *Store) DivisionFiles(date ncaa.Date, gender ncaa.Gender) ([]DivisionFile, error) {
	dir := s.GenderDir(date, gender)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var files []DivisionFile
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		division := ncaa.Division(entry.Name())
		path := filepath.Join(dir, entry.Name(), FileName(date, gender, division))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		files = append(files, DivisionFile{Division: division, Path: path})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Division < files[j].Division })
	return files, nil
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	return header, nil
}

func missingColumns(existing, incoming []string) []string {
	have := make(map[string]bool, len(existing))
	for _, col := range existing {
		have[col] = true
	}
	var missing []string
	for _, col := range incoming {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

func alignRows(target, source []string, rows [][]string) [][]string {
	pos := make(map[string]int, len(source))
	for i, col := range source {
		pos[col] = i
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		aligned := make([]string, len(target))
		for i, col := range target {
			if j, ok := pos[col]; ok && j < len(row) {
				aligned[i] = row[j]
			}
		}
		out = append(out, aligned)
	}
	return out
}

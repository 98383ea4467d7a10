package reconciliation

import (
	"sort"

	"github.com/fortuna/ncaa-boxscores/internal/ncaa"
	"github.com/fortuna/ncaa-boxscores/internal/store/csvstore"
)

// Index maps each GAMEID to the set of division files it appears in.
type Index map[string]map[string]bool

// buildIndex indexes the GAMEID column of every loaded file. Rows with an empty id are
// ignored.
func buildIndex(files []*loadedFile) Index {
	idx := make(Index)
	for _, f := range files {
		for _, id := range f.table.Values(ncaa.ColumnGameID) {
			if id == "" {
				continue
			}
			paths, ok := idx[id]
			if !ok {
				paths = make(map[string]bool)
				idx[id] = paths
			}
			paths[f.Path] = true
		}
	}
	return idx
}

// Duplicates returns the ids present in more than one file.
func (ix Index) Duplicates() map[string]bool {
	dups := make(map[string]bool)
	for id, paths := range ix {
		if len(paths) > 1 {
			dups[id] = true
		}
	}
	return dups
}

// Paths returns the files containing id, sorted.
func (ix Index) Paths(id string) []string {
	paths := make([]string, 0, len(ix[id]))
	for p := range ix[id] {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// applyFlags returns a copy of t with the duplicate column recomputed for every row and
// moved to the end.
func applyFlags(t *csvstore.Table, dups map[string]bool) *csvstore.Table {
	out := t.Clone()
	flagIdx := out.EnsureColumn(ncaa.ColumnDuplicate, "")
	idIdx := out.ColumnIndex(ncaa.ColumnGameID)
	for _, row := range out.Rows {
		if dups[row[idIdx]] {
			row[flagIdx] = ncaa.DuplicateFlag
		} else {
			row[flagIdx] = ""
		}
	}
	out.MoveColumnToEnd(ncaa.ColumnDuplicate)
	return out
}

// hasFlaggedRows reports whether any row carries the duplicate flag.
func hasFlaggedRows(t *csvstore.Table) bool {
	for _, v := range t.Values(ncaa.ColumnDuplicate) {
		if v == ncaa.DuplicateFlag {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package reconciliation flags games that were scraped into more than one division file for
// the same date and gender.
package reconciliation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fortuna/ncaa-boxscores/internal/ncaa"
	"github.com/fortuna/ncaa-boxscores/internal/store/csvstore"
	"github.com/fortuna/ncaa-boxscores/internal/upload"
	"go.uber.org/zap"
)

// KindReadFailure marks a division file that could not be read and was left untouched.
const KindReadFailure = "reconcile_read_failure"

// ReadFailure is a division file skipped during a pass.
type ReadFailure struct {
	Path string
	Err  error
}

func (f *ReadFailure) Error() string {
	return fmt.Sprintf("%s: %s: %v", KindReadFailure, f.Path, f.Err)
}

func (f *ReadFailure) Unwrap() error { return f.Err }

// Scheduler receives rewritten files for upload.
type Scheduler interface {
	Schedule(e upload.Entry)
}

// Result describes one reconciliation pass.
type Result struct {
	Date   ncaa.Date
	Gender ncaa.Gender

	// Files is the number of division files read successfully.
	Files int
	// Duplicates lists the game ids found in more than one file, sorted.
	Duplicates []string
	// Rewritten lists the files whose flags changed.
	Rewritten []string
	// Skipped lists files that could not be read or written.
	Skipped []*ReadFailure
	// MalformedLines counts unparseable lines carried over unchanged into rewritten files.
	MalformedLines int
}

// Metrics tracks reconciliation statistics
type Metrics struct {
	Passes             int
	FilesRewritten     int
	DuplicatesFlagged  int
	ReadFailures       int
	LastReconciliation time.Time
}

// Reconciler runs the cross-division duplicate pass over a store.
type Reconciler struct {
	store     *csvstore.Store
	scheduler Scheduler
	logger    *zap.Logger

	mu      sync.Mutex
	metrics Metrics
}

// NewReconciler creates a reconciler. scheduler may be nil when mirroring is disabled.
func NewReconciler(store *csvstore.Store, scheduler Scheduler, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:     store,
		scheduler: scheduler,
		logger:    logger.Named("reconcile"),
	}
}

type loadedFile struct {
	csvstore.DivisionFile
	table *csvstore.Table
	stats csvstore.ReadStats
}

// Reconcile recomputes the duplicate flag in every division file for the session's date and
// gender. It must only run once every division for that date and gender has been scraped.
//
// A row is flagged "TRUE" when its GAMEID appears in two or more division files and "" in
// every other case, so flags from earlier passes never go stale. Files whose content would
// not change are left alone, which makes repeated passes no-ops.
func (r *Reconciler) Reconcile(ctx context.Context, sess *ncaa.Session) (*Result, error) {
	log := r.logger.With(zap.String("date", sess.Date.String()), zap.String("gender", string(sess.Gender)))
	result := &Result{Date: sess.Date, Gender: sess.Gender}

	divisionFiles, err := r.store.DivisionFiles(sess.Date, sess.Gender)
	if err != nil {
		return nil, fmt.Errorf("listing division files: %w", err)
	}

	var files []*loadedFile
	for _, df := range divisionFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := r.load(df)
		if err != nil {
			log.Warn("skipping unreadable division file", zap.String("path", df.Path), zap.Error(err))
			result.Skipped = append(result.Skipped, &ReadFailure{Path: df.Path, Err: err})
			continue
		}
		if f != nil {
			files = append(files, f)
		}
	}
	result.Files = len(files)

	index := buildIndex(files)
	dups := index.Duplicates()
	result.Duplicates = sortedKeys(dups)
	for _, id := range result.Duplicates {
		log.Info("game listed in multiple divisions", zap.String("game_id", id), zap.Strings("files", index.Paths(id)))
	}
	if crossListed := sess.CrossListed(); len(crossListed) > 0 {
		log.Debug("session wrote cross-listed games", zap.Strings("game_ids", crossListed))
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(dups) == 0 && !hasFlaggedRows(f.table) {
			continue
		}

		updated := applyFlags(f.table, dups)
		if updated.Equal(f.table) {
			continue
		}
		if err := csvstore.WriteTable(f.Path, updated); err != nil {
			log.Error("failed to rewrite division file", zap.String("path", f.Path), zap.Error(err))
			result.Skipped = append(result.Skipped, &ReadFailure{Path: f.Path, Err: err})
			continue
		}
		if f.stats.Skipped > 0 {
			log.Warn("kept malformed lines while rewriting", zap.String("path", f.Path), zap.Int("lines", f.stats.Skipped))
			result.MalformedLines += f.stats.Skipped
		}
		result.Rewritten = append(result.Rewritten, f.Path)

		if r.scheduler != nil {
			r.scheduler.Schedule(upload.NewEntry(f.Path, ncaa.Target{Date: sess.Date, Gender: sess.Gender, Division: f.Division}))
		}
	}

	r.record(result)
	log.Info("reconciliation complete",
		zap.Int("files", result.Files),
		zap.Int("duplicates", len(result.Duplicates)),
		zap.Int("rewritten", len(result.Rewritten)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// load reads one division file. An empty file returns nil, nil.
func (r *Reconciler) load(df csvstore.DivisionFile) (*loadedFile, error) {
	table, stats, err := csvstore.ReadTable(df.Path)
	if err != nil {
		return nil, err
	}
	if len(table.Header) == 0 {
		return nil, nil
	}
	if table.ColumnIndex(ncaa.ColumnGameID) < 0 {
		return nil, fmt.Errorf("no %s column", ncaa.ColumnGameID)
	}
	if stats.Skipped > 0 {
		r.logger.Warn("skipped malformed lines", zap.String("path", df.Path), zap.Int("lines", stats.Skipped))
	}
	return &loadedFile{DivisionFile: df, table: table, stats: stats}, nil
}

func (r *Reconciler) record(res *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics.Passes++
	r.metrics.FilesRewritten += len(res.Rewritten)
	r.metrics.DuplicatesFlagged += len(res.Duplicates)
	r.metrics.ReadFailures += len(res.Skipped)
	r.metrics.LastReconciliation = time.Now()
}

// Metrics returns a snapshot of reconciliation statistics.
func (r *Reconciler) Metrics() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics
}

// Package session drives a scraping run: every division for a date and gender is scraped,
// the division files are reconciled, and scheduled uploads are flushed once at the end.
package session

import (
	"context"

	"github.com/fortuna/ncaa-boxscores/internal/ingest/ncaacom"
	"github.com/fortuna/ncaa-boxscores/internal/ncaa"
	"github.com/fortuna/ncaa-boxscores/internal/reconciliation"
	"github.com/fortuna/ncaa-boxscores/internal/upload"
)

// Spec describes the work for one run.
type Spec struct {
	Dates     []ncaa.Date
	Divisions []ncaa.Division
	Genders   []ncaa.Gender

	// Force removes each division file before it is scraped.
	Force bool
	// Upload flushes scheduled files to remote storage at the end of the run.
	Upload bool
	// Precheck reports which target files already exist remotely before scraping.
	Precheck bool
}

// Targets returns the number of (date, gender, division) combinations in the spec.
func (s Spec) Targets() int {
	return len(s.Dates) * len(s.Genders) * len(s.Divisions)
}

// Summary totals a completed run.
type Summary struct {
	Targets           int
	TargetsFailed     int
	GamesWritten      int
	GamesFailed       int
	Duplicates        int
	FilesRewritten    int
	ReconcileFailures int
	Uploaded          int
	UploadsFailed     int
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnRunStart(spec Spec)
	OnDateStart(date ncaa.Date, index int, total int)
	OnDivisionComplete(res *ncaacom.DivisionResult, err error)
	OnReconciled(res *reconciliation.Result)
	OnFlushed(res *upload.FlushResult)
	OnRunComplete(summary Summary)
	OnRunError(err error)
}

// DivisionScraper scrapes one scoreboard into its division file.
type DivisionScraper interface {
	ScrapeDivision(ctx context.Context, sess *ncaa.Session, t ncaa.Target) (*ncaacom.DivisionResult, error)
}

// Reconciler flags cross-division duplicates for a session's date and gender.
type Reconciler interface {
	Reconcile(ctx context.Context, sess *ncaa.Session) (*reconciliation.Result, error)
}

// Flusher uploads everything scheduled during the run.
type Flusher interface {
	Flush(ctx context.Context) (*upload.FlushResult, error)
}

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/fortuna/ncaa-boxscores/internal/ingest/ncaacom"
	"github.com/fortuna/ncaa-boxscores/internal/ncaa"
	"github.com/fortuna/ncaa-boxscores/internal/reconciliation"
	"github.com/fortuna/ncaa-boxscores/internal/store"
	"github.com/fortuna/ncaa-boxscores/internal/upload"
	"go.uber.org/zap"
)

// LedgerWriter is the subset of store.Ledger the reporter needs.
type LedgerWriter interface {
	CreateSession(ctx context.Context, dates, divisions, genders []string) (*store.SessionRecord, error)
	UpdateStatus(ctx context.Context, sessionID int64, status store.SessionStatus, message string, lastErr error) error
	AppendEvent(ctx context.Context, sessionID int64, eventType, message string) error
}

// LedgerReporter records a run in the Postgres ledger. Ledger failures are logged and never
// interrupt the run.
type LedgerReporter struct {
	ctx       context.Context
	ledger    LedgerWriter
	logger    *zap.Logger
	sessionID int64
}

// NewLedgerReporter creates a reporter writing through ledger. ctx bounds every write.
func NewLedgerReporter(ctx context.Context, ledger LedgerWriter, logger *zap.Logger) *LedgerReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerReporter{ctx: ctx, ledger: ledger, logger: logger.Named("ledger")}
}

// SessionID returns the ledger row for the current run, or 0 before OnRunStart succeeds.
func (r *LedgerReporter) SessionID() int64 {
	return r.sessionID
}

func (r *LedgerReporter) OnRunStart(spec Spec) {
	dates := make([]string, len(spec.Dates))
	for i, d := range spec.Dates {
		dates[i] = d.String()
	}
	divisions := make([]string, len(spec.Divisions))
	for i, d := range spec.Divisions {
		divisions[i] = string(d)
	}
	genders := make([]string, len(spec.Genders))
	for i, g := range spec.Genders {
		genders[i] = string(g)
	}

	rec, err := r.ledger.CreateSession(r.ctx, dates, divisions, genders)
	if err != nil {
		r.logger.Warn("failed to create ledger session", zap.Error(err))
		return
	}
	r.sessionID = rec.SessionID
}

func (r *LedgerReporter) OnDateStart(date ncaa.Date, index int, total int) {
	r.event("date", fmt.Sprintf("Processing %s (%d/%d)", date, index+1, total))
}

func (r *LedgerReporter) OnDivisionComplete(res *ncaacom.DivisionResult, err error) {
	if res == nil {
		return
	}
	if err != nil {
		r.event("error", fmt.Sprintf("%s: %v", res.Target, err))
		return
	}
	r.event("division", fmt.Sprintf("%s: %d written, %d skipped, %d failed",
		res.Target, res.Written, res.Skipped, res.Failed))
}

func (r *LedgerReporter) OnReconciled(res *reconciliation.Result) {
	r.event("reconcile", fmt.Sprintf("%s %s: %d duplicates, %d files rewritten",
		res.Date, res.Gender, len(res.Duplicates), len(res.Rewritten)))
}

func (r *LedgerReporter) OnFlushed(res *upload.FlushResult) {
	r.event("upload", fmt.Sprintf("%d uploaded, %d failed", len(res.Uploaded), len(res.Failed)))
}

func (r *LedgerReporter) OnRunComplete(s Summary) {
	if r.sessionID == 0 {
		return
	}
	msg := fmt.Sprintf("%d games written, %d duplicates flagged", s.GamesWritten, s.Duplicates)
	if s.ReconcileFailures > 0 {
		msg += fmt.Sprintf(", %d reconciliation passes failed", s.ReconcileFailures)
	}
	if err := r.ledger.UpdateStatus(r.ctx, r.sessionID, store.SessionCompleted, msg, nil); err != nil {
		r.logger.Warn("failed to update ledger session", zap.Error(err))
	}
}

func (r *LedgerReporter) OnRunError(err error) {
	if r.sessionID == 0 {
		return
	}
	status := store.SessionFailed
	if errors.Is(err, context.Canceled) {
		status = store.SessionCancelled
	}
	// The run context may already be cancelled; the final status must still land.
	ctx := context.WithoutCancel(r.ctx)
	if uerr := r.ledger.UpdateStatus(ctx, r.sessionID, status, "Session "+string(status), err); uerr != nil {
		r.logger.Warn("failed to update ledger session", zap.Error(uerr))
	}
}

func (r *LedgerReporter) event(eventType, message string) {
	if r.sessionID == 0 {
		return
	}
	if err := r.ledger.AppendEvent(r.ctx, r.sessionID, eventType, message); err != nil {
		r.logger.Warn("failed to append ledger event", zap.String("type", eventType), zap.Error(err))
	}
}

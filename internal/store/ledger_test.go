package store

import (
	"context"
	"errors"
	"os"
	"testing"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	dsn := os.Getenv("LEDGER_DSN")
	if dsn == "" {
		t.Skip("LEDGER_DSN not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := NewDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	// Idempotent.
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema second call: %v", err)
	}
	return NewLedger(db)
}

func TestLedgerSessionLifecycle(t *testing.T) {
	ledger := openLedger(t)
	ctx := context.Background()

	rec, err := ledger.CreateSession(ctx, []string{"2025/01/12"}, []string{"d1", "d2"}, []string{"men"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if rec.Status != SessionRunning {
		t.Errorf("status = %q, want running", rec.Status)
	}
	if len(rec.Divisions) != 2 || rec.Divisions[1] != "d2" {
		t.Errorf("divisions = %v", rec.Divisions)
	}

	if err := ledger.AppendEvent(ctx, rec.SessionID, "division", "d1 complete"); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := ledger.AppendEvent(ctx, rec.SessionID, "error", "d2 failed"); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := ledger.UpdateStatus(ctx, rec.SessionID, SessionFailed, "Session failed", errors.New("boom")); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	got, err := ledger.GetSession(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Status != SessionFailed || got.LastError.String != "boom" || !got.CompletedAt.Valid {
		t.Errorf("session after failure = %+v", got)
	}

	events, err := ledger.Events(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 || events[0].Type != "division" || events[1].Message != "d2 failed" {
		t.Errorf("events = %+v", events)
	}
}

func TestLedgerGetMissingSession(t *testing.T) {
	ledger := openLedger(t)
	got, err := ledger.GetSession(context.Background(), -1)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing session, got %+v", got)
	}
}

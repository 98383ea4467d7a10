package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// SessionStatus is the lifecycle state of a recorded run.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionCancelled SessionStatus = "cancelled"
)

// SessionRecord is one row of scrape_sessions.
type SessionRecord struct {
	SessionID     int64
	Status        SessionStatus
	Dates         pq.StringArray
	Divisions     pq.StringArray
	Genders       pq.StringArray
	StatusMessage sql.NullString
	LastError     sql.NullString
	StartedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   sql.NullTime
}

// Event is one row of scrape_session_events.
type Event struct {
	Type      string
	Message   string
	CreatedAt time.Time
}

// Ledger persists run sessions and their events.
type Ledger struct {
	db *Database
}

// NewLedger constructs a Ledger.
func NewLedger(db *Database) *Ledger {
	return &Ledger{db: db}
}

// CreateSession inserts a running session and returns the stored record.
func (l *Ledger) CreateSession(ctx context.Context, dates, divisions, genders []string) (*SessionRecord, error) {
	query := `
		INSERT INTO scrape_sessions (status, dates, divisions, genders, status_message)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING session_id, status, dates, divisions, genders, status_message,
			last_error, started_at, updated_at, completed_at
	`

	row := l.db.DB().QueryRowContext(ctx, query,
		string(SessionRunning), pq.StringArray(dates), pq.StringArray(divisions), pq.StringArray(genders), "Session starting",
	)
	rec, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return rec, nil
}

// UpdateStatus updates status, message and optional error.
func (l *Ledger) UpdateStatus(ctx context.Context, sessionID int64, status SessionStatus, message string, lastErr error) error {
	query := `
		UPDATE scrape_sessions
		SET status = $2::varchar,
			status_message = $3,
			last_error = $4,
			updated_at = NOW(),
			completed_at = CASE WHEN $2::varchar IN ('completed','failed','cancelled') THEN NOW() ELSE completed_at END
		WHERE session_id = $1
	`

	var errText sql.NullString
	if lastErr != nil {
		errText = sql.NullString{String: lastErr.Error(), Valid: true}
	}

	if _, err := l.db.DB().ExecContext(ctx, query, sessionID, string(status), message, errText); err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}

// AppendEvent stores a log entry for a session.
func (l *Ledger) AppendEvent(ctx context.Context, sessionID int64, eventType, message string) error {
	query := `
		INSERT INTO scrape_session_events (session_id, event_type, message)
		VALUES ($1,$2,$3)
	`
	if _, err := l.db.DB().ExecContext(ctx, query, sessionID, eventType, message); err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}

// GetSession returns a session by id, or nil if it does not exist.
func (l *Ledger) GetSession(ctx context.Context, sessionID int64) (*SessionRecord, error) {
	query := `
		SELECT session_id, status, dates, divisions, genders, status_message,
			last_error, started_at, updated_at, completed_at
		FROM scrape_sessions
		WHERE session_id = $1
	`
	rec, err := scanSession(l.db.DB().QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return rec, nil
}

// Events returns a session's events oldest first.
func (l *Ledger) Events(ctx context.Context, sessionID int64) ([]Event, error) {
	rows, err := l.db.DB().QueryContext(ctx, `
		SELECT event_type, message, created_at
		FROM scrape_session_events
		WHERE session_id = $1
		ORDER BY created_at, event_id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Type, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanSession(scanner interface {
	Scan(dest ...interface{}) error
}) (*SessionRecord, error) {
	rec := &SessionRecord{}
	err := scanner.Scan(
		&rec.SessionID,
		&rec.Status,
		&rec.Dates,
		&rec.Divisions,
		&rec.Genders,
		&rec.StatusMessage,
		&rec.LastError,
		&rec.StartedAt,
		&rec.UpdatedAt,
		&rec.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

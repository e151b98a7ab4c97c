// Package runlog records queue-server host supervision events in the
// supervision_events table for querying lifecycle history.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actions recorded for a supervised instance.
const (
	ActionStarted   = "started"
	ActionStopped   = "stopped"
	ActionRestarted = "restarted"
	ActionFailed    = "failed"
	ActionCheckup   = "checkup"
)

// Event is a single supervision event for a host instance.
type Event struct {
	ID        string    `json:"id"`
	Instance  string    `json:"instance"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	PID       int       `json:"pid,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter controls which events to return.
type Filter struct {
	Instance string // optional: filter by instance name
	Action   string // optional: filter by action (started, stopped, restarted, failed, checkup)
	Limit    int    // default 50, max 200
	Offset   int    // pagination offset
}

// ListResult contains the paginated event results.
type ListResult struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Repository defines the interface for supervision event operations.
type Repository interface {
	Record(ctx context.Context, ev *Event) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores supervision events in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new supervision event repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts a supervision event. The ID and CreatedAt are generated
// if empty.
func (r *SQLiteRepository) Record(ctx context.Context, ev *Event) error {
	if ev.ID == "" {
		ev.ID = "evt-" + uuid.NewString()[:8]
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	var pid any
	if ev.PID != 0 {
		pid = ev.PID
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO supervision_events (id, instance, action, detail, pid, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Instance, ev.Action,
		nullableString(ev.Detail), pid,
		ev.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting supervision event: %w", err)
	}

	return nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns supervision events matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	// Clamp limit.
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	// Build WHERE clause dynamically.
	var conditions []string
	var args []any

	if filter.Instance != "" {
		conditions = append(conditions, "instance = ?")
		args = append(args, filter.Instance)
	}
	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM supervision_events %s", where)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting supervision events: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT id, instance, action, detail, pid, created_at FROM supervision_events %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying supervision events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var detail sql.NullString
		var pid sql.NullInt64
		var createdAt string

		if err := rows.Scan(&ev.ID, &ev.Instance, &ev.Action,
			&detail, &pid, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning supervision event: %w", err)
		}

		if detail.Valid {
			ev.Detail = detail.String
		}
		if pid.Valid {
			ev.PID = int(pid.Int64)
		}

		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing supervision event timestamp %q: %w", createdAt, err)
		}
		ev.CreatedAt = t

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating supervision events: %w", err)
	}

	if events == nil {
		events = []Event{}
	}

	return &ListResult{
		Events: events,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

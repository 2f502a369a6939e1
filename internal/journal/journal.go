// Package journal keeps an append-only record of handled webhook
// deliveries in SQLite. It is observability only: the request path
// never reads from it, and journal failures never affect a response.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Delivery is one recorded webhook delivery and its terminal state.
type Delivery struct {
	// ID is GitHub's X-GitHub-Delivery value, or a generated UUID when
	// the header was absent.
	ID          string
	Event       string
	Action      string
	Sender      string
	IssueNumber int
	State       string
	CreatedAt   time.Time
}

// Terminal states for a delivery.
const (
	StateRejectedSignature = "rejected-signature"
	StateRejectedParse     = "rejected-parse"
	StateIgnored           = "ignored"
	StateProcessed         = "processed"
)

// Journal is a SQLite-backed delivery log.
type Journal struct {
	db *sql.DB
}

// Open opens (and creates if needed) the journal database at path and
// ensures the schema exists.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS delivery_log (
  id           TEXT PRIMARY KEY,
  event        TEXT NOT NULL,
  action       TEXT NOT NULL DEFAULT '',
  sender       TEXT NOT NULL DEFAULT '',
  issue_number INTEGER NOT NULL DEFAULT 0,
  state        TEXT NOT NULL,
  created_at   TEXT NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap journal: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS delivery_log_created_at_idx ON delivery_log(created_at);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap journal: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends a delivery. A missing ID gets a generated UUID, a
// missing CreatedAt the current time. Re-delivery of an already
// recorded ID is not an error; the original row wins.
func (j *Journal) Record(ctx context.Context, d Delivery) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.State == "" {
		return fmt.Errorf("delivery state is empty")
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx, `
INSERT INTO delivery_log(id, event, action, sender, issue_number, state, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING;
`, d.ID, d.Event, d.Action, d.Sender, d.IssueNumber, d.State, d.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

// Recent returns the most recent deliveries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx, `
SELECT id, event, action, sender, issue_number, state, created_at
FROM delivery_log
ORDER BY created_at DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		var createdAt string
		if err := rows.Scan(&d.ID, &d.Event, &d.Action, &d.Sender, &d.IssueNumber, &d.State, &createdAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			d.CreatedAt = t
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return out, nil
}

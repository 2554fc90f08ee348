package store

import (
	"fmt"
	"time"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) Placeholder(index int) string {
	return fmt.Sprintf("?%d", index)
}

func (d *SQLiteDialect) SubmissionTableSQL() string {
	return `
CREATE TABLE IF NOT EXISTS _submission (
    id        TEXT PRIMARY KEY,
    document  TEXT NOT NULL,
    saved_at  TEXT NOT NULL DEFAULT (datetime('now'))
);`
}

func (d *SQLiteDialect) TimeParam(t time.Time) any {
	return t.UTC().Format(time.RFC3339Nano)
}

func (d *SQLiteDialect) JSONParam(doc []byte) any { return string(doc) }

var _ Dialect = (*SQLiteDialect)(nil)

package store

import (
	"fmt"
	"time"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgresDialect) SubmissionTableSQL() string {
	return `
CREATE TABLE IF NOT EXISTS _submission (
    id        UUID PRIMARY KEY,
    document  JSON NOT NULL,
    saved_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
}

func (d *PostgresDialect) TimeParam(t time.Time) any { return t }
func (d *PostgresDialect) JSONParam(doc []byte) any  { return doc }

var _ Dialect = (*PostgresDialect)(nil)

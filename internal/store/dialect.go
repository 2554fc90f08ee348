package store

import "time"

// Dialect abstracts database-specific SQL for the submission table.
type Dialect interface {
	// Name returns "postgres" or "sqlite".
	Name() string

	// DriverName returns the database/sql driver name ("pgx" or "sqlite").
	DriverName() string

	// Placeholder returns the parameter placeholder for the given 1-based index.
	Placeholder(index int) string

	// SubmissionTableSQL returns the DDL for the submission table.
	SubmissionTableSQL() string

	// TimeParam encodes a timestamp for storage.
	TimeParam(t time.Time) any

	// JSONParam encodes a JSON document for storage.
	// PostgreSQL: raw bytes for the JSON column, stored verbatim so key order survives.
	// SQLite: the document as TEXT.
	JSONParam(doc []byte) any
}

// NewDialect creates a Dialect for the given driver name ("postgres" or "sqlite").
func NewDialect(driver string) Dialect {
	switch driver {
	case "sqlite":
		return &SQLiteDialect{}
	default:
		return &PostgresDialect{}
	}
}

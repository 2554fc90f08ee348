package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	_ "modernc.org/sqlite"             // Register sqlite as database/sql driver
)

// SQLSink keeps the latest submission in a single-row _submission table.
type SQLSink struct {
	DB      *sql.DB
	Dialect Dialect
}

// OpenSQLSink connects to the database and creates the submission table.
func OpenSQLSink(ctx context.Context, driver, dsn string) (*SQLSink, error) {
	dialect := NewDialect(driver)

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialect.Name() == "sqlite" {
		// SQLite: single writer, WAL mode for concurrent reads
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &SQLSink{DB: db, Dialect: dialect}
	if err := s.bootstrap(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLSink) bootstrap(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, s.Dialect.SubmissionTableSQL()); err != nil {
		return fmt.Errorf("create submission table: %w", err)
	}
	return nil
}

// Save replaces the stored submission inside one transaction.
func (s *SQLSink) Save(ctx context.Context, sub Submission) error {
	doc, err := json.Marshal(sub.Document())
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM _submission"); err != nil {
		return fmt.Errorf("clear submission: %w", err)
	}

	d := s.Dialect
	insert := fmt.Sprintf("INSERT INTO _submission (id, document, saved_at) VALUES (%s, %s, %s)",
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3))
	if _, err := tx.ExecContext(ctx, insert, sub.ID, d.JSONParam(doc), d.TimeParam(sub.SavedAt)); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLSink) Latest(ctx context.Context) (Submission, error) {
	var (
		id      string
		doc     []byte
		savedAt any
	)
	err := s.DB.QueryRowContext(ctx,
		"SELECT id, document, saved_at FROM _submission ORDER BY saved_at DESC LIMIT 1",
	).Scan(&id, &doc, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrNotFound
	}
	if err != nil {
		return Submission{}, fmt.Errorf("query submission: %w", err)
	}

	var d Document
	if err := json.Unmarshal(doc, &d); err != nil {
		return Submission{}, fmt.Errorf("decode submission: %w", err)
	}
	return Submission{
		ID:       id,
		Data:     d.Data,
		Schema:   d.Schema,
		UISchema: d.UISchema,
		SavedAt:  parseTime(savedAt),
	}, nil
}

func (s *SQLSink) Close() error {
	return s.DB.Close()
}

// parseTime converts a driver timestamp (time.Time, or TEXT for SQLite) to time.Time.
func parseTime(v any) time.Time {
	var s string
	switch val := v.(type) {
	case time.Time:
		return val.UTC()
	case []byte:
		s = string(val)
	case string:
		s = val
	default:
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

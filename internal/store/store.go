package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"formbuilder/internal/config"
	"formbuilder/internal/formschema"
)

var ErrNotFound = errors.New("not found")

// Submission is one accepted form submission together with the form
// definition it was validated against.
type Submission struct {
	ID       string
	Data     map[string]any
	Schema   formschema.DataSchema
	UISchema formschema.UiSchema
	SavedAt  time.Time
}

// NewSubmission stamps data with a fresh id and the current time.
func NewSubmission(data map[string]any, form formschema.Form) Submission {
	return Submission{
		ID:       uuid.New().String(),
		Data:     data,
		Schema:   form.Schema,
		UISchema: form.UISchema,
		SavedAt:  time.Now().UTC(),
	}
}

// Document is the persisted shape of a submission.
type Document struct {
	Data     map[string]any        `json:"data"`
	Schema   formschema.DataSchema `json:"schema"`
	UISchema formschema.UiSchema   `json:"uischema"`
}

func (s Submission) Document() Document {
	return Document{Data: s.Data, Schema: s.Schema, UISchema: s.UISchema}
}

// Sink persists the latest submission. Every Save replaces what was
// stored before.
type Sink interface {
	Save(ctx context.Context, sub Submission) error
	Latest(ctx context.Context) (Submission, error)
	Close() error
}

// New creates the sink selected by cfg.Driver. fs is only used by the file
// driver; nil means the OS filesystem.
func New(ctx context.Context, cfg config.SubmissionConfig, fs afero.Fs) (Sink, error) {
	switch cfg.Driver {
	case "", "file":
		if fs == nil {
			fs = afero.NewOsFs()
		}
		return NewFileSink(fs, cfg.Path), nil
	case "sqlite", "postgres":
		return OpenSQLSink(ctx, cfg.Driver, cfg.DataSource())
	default:
		return nil, fmt.Errorf("unknown submission driver %q", cfg.Driver)
	}
}

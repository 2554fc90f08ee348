package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
)

// FileSink writes the latest submission as pretty-printed JSON to a single
// file, overwriting prior content.
type FileSink struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

func NewFileSink(fs afero.Fs, path string) *FileSink {
	return &FileSink{fs: fs, path: path}
}

func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Save(_ context.Context, sub Submission) error {
	data, err := json.MarshalIndent(sub.Document(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *FileSink) Latest(_ context.Context) (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Submission{}, ErrNotFound
	}
	if err != nil {
		return Submission{}, fmt.Errorf("read file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Submission{}, fmt.Errorf("decode submission: %w", err)
	}
	sub := Submission{Data: doc.Data, Schema: doc.Schema, UISchema: doc.UISchema}
	if info, err := s.fs.Stat(s.path); err == nil {
		sub.SavedAt = info.ModTime().UTC()
	}
	return sub, nil
}

func (s *FileSink) Close() error { return nil }

// Package file provides a record source backed by a YAML or JSON document on disk.
package file

import (
	"context"
	"os"
	"sync"

	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/records"
	"github.com/FursAndrey/staffsync/pkg/sources"
)

// Source reads its document on first use and serves every later read from
// that snapshot, so one run sees one consistent version of the file.
type Source struct {
	path     string
	readFile func(string) ([]byte, error)

	mu       sync.Mutex
	snapshot *sources.Snapshot
}

// Option configures a file source.
type Option func(*Source)

// WithReadFile replaces os.ReadFile.
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(s *Source) {
		s.readFile = fn
	}
}

// New returns a source for the document at path. Nothing is read until the
// first collection is requested.
func New(path string, opts ...Option) *Source {
	s := &Source{path: path, readFile: os.ReadFile}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the document path.
func (s *Source) Name() string {
	return s.path
}

// Path returns the document path.
func (s *Source) Path() string {
	return s.path
}

// Snapshot loads the document if needed and returns it.
func (s *Source) Snapshot(ctx context.Context) (*sources.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil {
		return s.snapshot, nil
	}

	data, err := s.readFile(s.path)
	if err != nil {
		return nil, errors.WrapIO("read", s.path, err)
	}
	snap, err := sources.Decode(s.path, data)
	if err != nil {
		return nil, err
	}
	s.snapshot = snap
	return snap, nil
}

// Reset drops the cached snapshot so the next read goes back to disk.
func (s *Source) Reset() {
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()
}

func (s *Source) collection(ctx context.Context, c sources.Collection) ([]records.Record, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Records(c), nil
}

// Employees implements sources.RecordSource.
func (s *Source) Employees(ctx context.Context) ([]records.Record, error) {
	return s.collection(ctx, sources.Employees)
}

// Family implements sources.RecordSource.
func (s *Source) Family(ctx context.Context) ([]records.Record, error) {
	return s.collection(ctx, sources.Family)
}

// Education implements sources.RecordSource.
func (s *Source) Education(ctx context.Context) ([]records.Record, error) {
	return s.collection(ctx, sources.Education)
}

// Medical implements sources.RecordSource.
func (s *Source) Medical(ctx context.Context) ([]records.Record, error) {
	return s.collection(ctx, sources.Medical)
}

// Violations implements sources.RecordSource.
func (s *Source) Violations(ctx context.Context) ([]records.Record, error) {
	return s.collection(ctx, sources.Violations)
}

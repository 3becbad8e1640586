// Package sync provides the options and the result of a staffsync run.
package sync

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/profiles"
)

// Options controls a single sync run.
type Options struct {
	DryRun   bool          // Resolve and build profiles without persisting anything
	FailFast bool          // Stop after the first employee that fails
	Timeout  time.Duration // Deadline for the whole run, 0 means none

	// Categories restricts which profiles are written. Empty means all.
	// Owner resolution and the personal profile, which carries the owner's
	// key, run regardless.
	Categories []profiles.Category

	// RunID generates the run identifier.
	RunID func() string
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		DryRun:     false,
		FailFast:   false,
		Timeout:    0,
		Categories: nil,
		RunID:      NewRunID,
	}
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks if the sync options are valid.
func (s *Options) Validate() error {
	if s.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   s.Timeout,
			Message: "timeout must be non-negative",
		}
	}

	for _, c := range s.Categories {
		if !c.Valid() {
			return &errors.ValidationError{
				Field:   "Categories",
				Value:   int(c),
				Message: fmt.Sprintf("unknown category %s", c),
			}
		}
	}

	if s.RunID == nil {
		return &errors.ValidationError{
			Field:   "RunID",
			Message: "run id generator must not be nil",
		}
	}

	return nil
}

// Includes reports whether profiles of c are written by this run. Personal
// is always included.
func (s *Options) Includes(c profiles.Category) bool {
	if len(s.Categories) == 0 || c == profiles.Personal {
		return true
	}
	for _, want := range s.Categories {
		if want == c {
			return true
		}
	}
	return false
}

// NewRunID returns a time-ordered UUIDv7, falling back to a random UUID.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithFailFast configures fail-fast behavior.
func WithFailFast(failFast bool) Option {
	return func(opts *Options) {
		opts.FailFast = failFast
	}
}

// WithTimeout configures the sync timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithCategories restricts the run to the given categories. The personal
// profile is written either way.
func WithCategories(categories ...profiles.Category) Option {
	return func(opts *Options) {
		opts.Categories = categories
	}
}

// WithRunIDGenerator replaces the run id generator.
func WithRunIDGenerator(gen func() string) Option {
	return func(opts *Options) {
		opts.RunID = gen
	}
}

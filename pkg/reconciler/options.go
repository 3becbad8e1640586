package reconciler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/FursAndrey/staffsync/pkg/errors"
	pkgsync "github.com/FursAndrey/staffsync/pkg/sync"
)

// options configures a reconciler.
type options struct {
	logger   *zerolog.Logger
	observer Observer
	now      func() time.Time
	defaults []pkgsync.Option // Applied before the per-run options
}

func defaultOptions() *options {
	return &options{
		observer: nopObserver{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithLogger sets the logger used when the run context carries none.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{
				Field:   "logger",
				Message: "cannot be nil",
			}
		}
		o.logger = logger
		return nil
	}
}

// WithObserver registers an observer for per-employee outcomes.
func WithObserver(observer Observer) Option {
	return func(o *options) error {
		if observer == nil {
			return &errors.ValidationError{
				Field:   "observer",
				Message: "cannot be nil",
			}
		}
		o.observer = observer
		return nil
	}
}

// WithClock replaces the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{
				Field:   "clock",
				Message: "cannot be nil",
			}
		}
		o.now = now
		return nil
	}
}

// WithSyncDefaults sets run options applied to every Run before its own.
func WithSyncDefaults(opts ...pkgsync.Option) Option {
	return func(o *options) error {
		o.defaults = append(o.defaults, opts...)
		return nil
	}
}

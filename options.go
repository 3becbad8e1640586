package staffsync

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/logging"
	"github.com/FursAndrey/staffsync/pkg/sources"
	"github.com/FursAndrey/staffsync/pkg/sources/file"
	"github.com/FursAndrey/staffsync/pkg/sources/fixture"
	"github.com/FursAndrey/staffsync/pkg/sources/remote"
	"github.com/FursAndrey/staffsync/pkg/store"
	"github.com/FursAndrey/staffsync/pkg/store/memory"
	"github.com/FursAndrey/staffsync/pkg/store/sqlite"
	pkgsync "github.com/FursAndrey/staffsync/pkg/sync"
)

// Option is a function that configures a Client.
type Option func(*options) error

// options holds the client configuration.
type options struct {
	store      store.Store
	sqlitePath string

	source     sources.RecordSource
	sourceFile string
	sourceURL  string
	remoteOpts []remote.Option

	logger       *zerolog.Logger
	now          func() time.Time
	syncDefaults []pkgsync.Option
}

func defaults() *options {
	return &options{}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithStore uses s as the entity store. The client does not close it.
func WithStore(s store.Store) Option {
	return func(o *options) error {
		if s == nil {
			return &errors.ValidationError{Field: "store", Message: "cannot be nil"}
		}
		o.store = s
		o.sqlitePath = ""
		return nil
	}
}

// WithSQLite opens the SQLite database at path as the entity store.
func WithSQLite(path string) Option {
	return func(o *options) error {
		if path == "" {
			return &errors.ValidationError{Field: "sqlite_path", Message: "cannot be empty"}
		}
		o.sqlitePath = path
		o.store = nil
		return nil
	}
}

// WithSource reads employee records from src.
func WithSource(src sources.RecordSource) Option {
	return func(o *options) error {
		if src == nil {
			return &errors.ValidationError{Field: "source", Message: "cannot be nil"}
		}
		o.source = src
		o.sourceFile = ""
		o.sourceURL = ""
		return nil
	}
}

// WithSourceFile reads employee records from a YAML or JSON document.
func WithSourceFile(path string) Option {
	return func(o *options) error {
		if path == "" {
			return &errors.ValidationError{Field: "source_file", Message: "cannot be empty"}
		}
		o.sourceFile = path
		o.source = nil
		o.sourceURL = ""
		return nil
	}
}

// WithSourceURL reads employee records from a YAML or JSON document served
// over HTTP. opts configure authentication and timeouts.
func WithSourceURL(url string, opts ...remote.Option) Option {
	return func(o *options) error {
		if url == "" {
			return &errors.ValidationError{Field: "source_url", Message: "cannot be empty"}
		}
		o.sourceURL = url
		o.remoteOpts = opts
		o.source = nil
		o.sourceFile = ""
		return nil
	}
}

// WithLogger sets the logger used by syncs and read views.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		o.logger = logger
		return nil
	}
}

// WithClock sets the clock stamped on sync results.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.now = now
		return nil
	}
}

// WithSyncDefaults sets sync options applied to every Sync before its own.
func WithSyncDefaults(opts ...pkgsync.Option) Option {
	return func(o *options) error {
		o.syncDefaults = append(o.syncDefaults, opts...)
		return nil
	}
}

// openStore returns the configured store and whether the client owns it.
func (o *options) openStore() (store.Store, bool, error) {
	switch {
	case o.store != nil:
		return o.store, false, nil
	case o.sqlitePath != "":
		s, err := sqlite.Open(o.sqlitePath)
		if err != nil {
			return nil, false, errors.WrapResource("open", "store", o.sqlitePath, err)
		}
		return s, true, nil
	default:
		return memory.New(), true, nil
	}
}

func (o *options) openSource() (sources.RecordSource, error) {
	switch {
	case o.source != nil:
		return o.source, nil
	case o.sourceFile != "":
		return file.New(o.sourceFile), nil
	case o.sourceURL != "":
		return remote.New(o.sourceURL, o.remoteOpts...)
	default:
		snapshot, err := fixture.Load()
		if err != nil {
			return nil, errors.WrapResource("load", "source", fixture.Name, err)
		}
		return snapshot, nil
	}
}

func (o *options) context(ctx context.Context) context.Context {
	if o.logger != nil && !logging.HasLogger(ctx) {
		return logging.WithLogger(ctx, o.logger)
	}
	return ctx
}

// Package app provides the application context and dependency management
// for the staffsync CLI. It centralizes configuration, logging and the
// lifecycle of the staffsync client the commands share.
package app

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/FursAndrey/staffsync"
	"github.com/FursAndrey/staffsync/internal/appcontext"
	"github.com/FursAndrey/staffsync/pkg/errors"
)

// Compile-time interface check.
var _ appcontext.Interface = (*App)(nil)

// App represents the staffsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger; fixedLogger keeps a logger set with WithLogger across flag parsing
	logger      *zerolog.Logger
	fixedLogger bool

	// out receives command output; nil means stdout
	out io.Writer

	// Client instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	client staffsync.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	// Load configuration
	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	// Initialize logger
	logger := NewLogger(config)
	app.logger = &logger

	// Apply any custom options
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Client returns the staffsync client, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) Client() (staffsync.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	opts, err := a.config.ClientOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, staffsync.WithLogger(a.logger))

	c, err := staffsync.New(opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}

	a.logger.Debug().
		Str("store", a.config.Store).
		Str("source", a.config.Source).
		Msg("Client ready")

	a.client = c
	return c, nil
}

// Shutdown releases the client's store. It is safe to call when no client
// was created.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	c := a.client
	a.client = nil
	a.mu.Unlock()

	if c == nil {
		return nil
	}
	if err := c.Close(); err != nil {
		return errors.WrapResource("close", "client", "", err)
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		a.fixedLogger = true
		return nil
	}
}

// WithClient sets a custom client instance (useful for testing).
func WithClient(c staffsync.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}

// WithOutput sends command output to w.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}

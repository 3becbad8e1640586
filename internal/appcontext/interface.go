// Package appcontext provides the shared application context interface
// used by all commands. Commands depend on this interface instead of the
// concrete App so they can be tested against a Mock.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/FursAndrey/staffsync"
)

// Interface defines the application context that commands need.
// The App struct from cmd/staffsync/app implements it.
type Interface interface {
	// Client returns the staffsync client, creating it lazily if needed.
	// Repeated calls return the same instance.
	Client() (staffsync.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	// An empty string means auto-detect.
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}

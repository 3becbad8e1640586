// Package constants provides shared constants used throughout staffsync.
// This includes the grouping key, owner naming, date layouts, timeouts and
// file permissions that must agree across the reconciler, stores and CLI.
package constants

import "time"

// Reconciliation keys
const (
	// KeyField is the record attribute that identifies an employee in every source collection
	KeyField = "fiz_code"

	// OwnerKeyField is the personal-information profile field holding the employee key
	OwnerKeyField = "field_personal_fiz_code"

	// OwnerNamePrefix is prepended to the key when naming a newly created owner
	OwnerNamePrefix = "fiz_"
)

// Date layouts
const (
	// DateLayout is the calendar-date storage layout (YYYY-MM-DD)
	DateLayout = "2006-01-02"

	// TimestampLayout is used when rendering run timestamps for humans
	TimestampLayout = "2006-01-02 15:04:05"
)

// Timeout constants
const (
	// SyncTimeout bounds a single CLI sync run
	SyncTimeout = 30 * time.Minute

	// CommandTimeout is the default timeout for short CLI commands
	CommandTimeout = 2 * time.Minute

	// DefaultHTTPTimeout bounds a single request to a remote record source
	DefaultHTTPTimeout = 30 * time.Second

	// SQLiteBusyTimeout is how long SQLite waits on a locked database, in milliseconds
	SQLiteBusyTimeout = 5000
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Defaults for the CLI and client
const (
	// DefaultDatabaseFile is the SQLite file used when no path is configured
	DefaultDatabaseFile = "staffsync.db"

	// DefaultConfigFile is the config file name looked up in $HOME
	DefaultConfigFile = ".staffsync"

	// EnvPrefix is the prefix for environment-variable configuration
	EnvPrefix = "STAFFSYNC"
)

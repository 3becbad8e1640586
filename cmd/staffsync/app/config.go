package app

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/FursAndrey/staffsync"
	"github.com/FursAndrey/staffsync/internal/cmd/output"
	"github.com/FursAndrey/staffsync/internal/config"
	"github.com/FursAndrey/staffsync/internal/transport"
	"github.com/FursAndrey/staffsync/pkg/constants"
	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/sources/remote"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Source kinds.
const (
	SourceFixture = "fixture"
	SourceFile    = "file"
	SourceHTTP    = "http"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Backends
	Store      string
	Database   string
	Source     string
	SourceFile string

	// Remote source; the token is only read from the environment or the
	// config file
	SourceURL      string
	SourceToken    string
	SourceAuth     string
	SourceAuthName string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (STAFFSYNC_*)
// 3. .env files
// 4. Config file (~/.staffsync.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	// Set up Viper for environment variables
	viper.SetEnvPrefix(constants.EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	viper.SetDefault("store", StoreSQLite)
	viper.SetDefault("source", SourceFixture)
	viper.SetDefault("database", defaultDatabasePath())

	// Try to read config file if it exists
	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Search for config in standard locations
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(constants.DefaultConfigFile)
		}
	}

	// A missing config is fine unless it was named explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !stderrors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "cannot read config file", err)
		}
	}

	cfg := &Config{
		// Global flags (may be overridden by cobra flags later)
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),
		Format:  viper.GetString("format"),

		ConfigFile: viper.ConfigFileUsed(),

		Store:      strings.ToLower(viper.GetString("store")),
		Database:   viper.GetString("database"),
		Source:     strings.ToLower(viper.GetString("source")),
		SourceFile: config.GetString("source_file"),

		SourceURL:      config.GetString("source_url"),
		SourceToken:    config.GetString("source_token"),
		SourceAuth:     config.GetStringDefault("source_auth", transport.SchemeBearer),
		SourceAuthName: config.GetString("source_auth_name"),

		// Logging configuration
		LogLevel:  config.GetString("log_level"),
		LogFormat: config.GetStringDefault("log_format", "auto"),
		LogOutput: config.GetStringDefault("log_output", "stderr"),
	}

	return cfg, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// UpdateBackendsFromFlags overrides the backend selection with non-empty
// flag values.
func (c *Config) UpdateBackendsFromFlags(store, database, source, sourceFile, sourceURL string) {
	if store != "" {
		c.Store = strings.ToLower(store)
	}
	if database != "" {
		c.Database = database
	}
	if sourceFile != "" {
		c.SourceFile = sourceFile
		// A file implies the file source unless one was named explicitly
		if source == "" {
			source = SourceFile
		}
	}
	if sourceURL != "" {
		c.SourceURL = sourceURL
		if source == "" {
			source = SourceHTTP
		}
	}
	if source != "" {
		c.Source = strings.ToLower(source)
	}
}

// Validate checks the backend selection.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.Database == "" {
			return errors.NewConfigError("store", "sqlite store requires a database path", nil)
		}
	default:
		return errors.NewConfigError("store", fmt.Sprintf("unknown store %q: must be memory or sqlite", c.Store), nil)
	}

	switch c.Source {
	case SourceFixture:
	case SourceFile:
		if c.SourceFile == "" {
			return errors.NewConfigError("source", "file source requires source_file", nil)
		}
	case SourceHTTP:
		if c.SourceURL == "" {
			return errors.NewConfigError("source", "http source requires source_url", nil)
		}
		if _, err := transport.NewAuthenticator(c.SourceAuth, c.SourceAuthName); err != nil {
			return errors.NewConfigError("source", err.Error(), err)
		}
	default:
		return errors.NewConfigError("source", fmt.Sprintf("unknown source %q: must be fixture, file or http", c.Source), nil)
	}

	if _, err := output.ParseFormat(c.Format); err != nil {
		return errors.NewConfigError("format", err.Error(), nil)
	}
	return nil
}

// ClientOptions translates the configuration into staffsync client options.
func (c *Config) ClientOptions() ([]staffsync.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var opts []staffsync.Option
	if c.Store == StoreSQLite {
		if err := os.MkdirAll(filepath.Dir(c.Database), constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("mkdir", filepath.Dir(c.Database), err)
		}
		opts = append(opts, staffsync.WithSQLite(c.Database))
	}
	switch c.Source {
	case SourceFile:
		opts = append(opts, staffsync.WithSourceFile(c.SourceFile))
	case SourceHTTP:
		auth, err := transport.NewAuthenticator(c.SourceAuth, c.SourceAuthName)
		if err != nil {
			return nil, errors.NewConfigError("source", err.Error(), err)
		}
		opts = append(opts, staffsync.WithSourceURL(c.SourceURL, remote.WithAuth(auth, c.SourceToken)))
	}
	return opts, nil
}

// loadEnvFiles loads environment variables from .env files. Variables that
// are already set are never overwritten.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return constants.DefaultDatabaseFile
	}
	return filepath.Join(home, ".staffsync", constants.DefaultDatabaseFile)
}

package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FursAndrey/staffsync/pkg/errors"
)

// Execute runs the staffsync CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "staffsync",
		Short:   "Employee profile synchronization CLI",
		Version: a.version,
		Long: `Staffsync reconciles employee records from a record source into
per-category profiles stored against one owner per employee.

Each sync reads the employees together with their family, education,
medical and violation rows, resolves or creates the owner for every
fiz_code and creates or replaces its seven profiles. Failures are
isolated per employee and reported in the run summary.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.staffsync.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("format", "o", "", "output format: table, json, yaml, wide")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	// Backend flags
	flags.String("store", "", "entity store: memory, sqlite")
	flags.String("database", "", "SQLite database path (default is $HOME/.staffsync/staffsync.db)")
	flags.String("source", "", "record source: fixture, file, http")
	flags.String("source-file", "", "YAML or JSON document with the record collections (implies --source=file)")
	flags.String("source-url", "", "URL of a YAML or JSON export (implies --source=http; token from STAFFSYNC_SOURCE_TOKEN)")

	rootCmd.SetVersionTemplate("staffsync {{.Version}}\n")
	if a.out != nil {
		rootCmd.SetOut(a.out)
	}

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	// Reload configuration when a config file was named on the command line
	if configFile := mustGetString(cmd, "config"); configFile != "" {
		viper.Set("config", configFile)
		config, err := LoadConfig()
		if err != nil {
			return errors.WrapResource("load", "config", configFile, err)
		}
		a.config = config
	}

	// These flags are defined as persistent flags in createRootCommand, so errors indicate programming errors
	a.config.UpdateFromFlags(
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetBool(cmd, "no-color"),
		mustGetString(cmd, "format"),
		mustGetString(cmd, "log-level"),
	)
	a.config.UpdateBackendsFromFlags(
		mustGetString(cmd, "store"),
		mustGetString(cmd, "database"),
		mustGetString(cmd, "source"),
		mustGetString(cmd, "source-file"),
		mustGetString(cmd, "source-url"),
	)

	// Reinitialize logger with updated config
	if !a.fixedLogger {
		logger := NewLogger(a.config)
		a.logger = &logger
	}

	return a.config.Validate()
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

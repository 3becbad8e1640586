package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/FursAndrey/staffsync/cmd/staffsync/cmd/profiles"
	"github.com/FursAndrey/staffsync/cmd/staffsync/cmd/purge"
	"github.com/FursAndrey/staffsync/cmd/staffsync/cmd/source"
	synccmd "github.com/FursAndrey/staffsync/cmd/staffsync/cmd/sync"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(synccmd.NewCommand(a))
	rootCmd.AddCommand(profiles.NewCommand(a))
	rootCmd.AddCommand(source.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(purge.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.NewVersionCommand())
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show version information for the staffsync CLI.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "staffsync version %s\n", a.Version())
			fmt.Fprintf(out, "commit: %s\n", a.Commit())
			fmt.Fprintf(out, "built: %s\n", a.Date())
			fmt.Fprintf(out, "built by: %s\n", a.BuiltBy())
			fmt.Fprintf(out, "go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

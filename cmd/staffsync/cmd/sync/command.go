// Package sync provides the sync command.
package sync

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/FursAndrey/staffsync"
	"github.com/FursAndrey/staffsync/internal/appcontext"
	"github.com/FursAndrey/staffsync/internal/cmd/output"
	"github.com/FursAndrey/staffsync/internal/cmd/table"
	"github.com/FursAndrey/staffsync/pkg/constants"
	"github.com/FursAndrey/staffsync/pkg/profiles"
	pkgsync "github.com/FursAndrey/staffsync/pkg/sync"
)

// Flags holds the sync command flags.
type Flags struct {
	DryRun     bool
	FailFast   bool
	Progress   bool
	Categories []string
	Timeout    time.Duration
}

// NewCommand creates the sync command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Synchronize employee records into profiles",
		Args:    cobra.NoArgs,
		Long: `Sync reads every employee from the configured source and writes the
personal, contact, work, family, education, medical and violation
profiles of the matching owner, creating owners as needed.

Failures are isolated per employee: the run records them and moves on.
Multi-valued categories replace their stored rows completely; an employee
without rows for such a category keeps what is stored.

--category restricts the written categories. The personal profile is
always written because it identifies the owner on later runs.`,
		Example: `  staffsync sync                               # Sync the configured source
  staffsync sync --dry-run                     # Resolve and build without persisting
  staffsync sync --category family,education   # Restrict the written categories
  staffsync sync --source-file export.yaml -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := BuildSyncOptions(flags)
			if err != nil {
				return err
			}

			client, err := app.Client()
			if err != nil {
				return err
			}
			if flags.Progress {
				registerProgress(client, cmd.ErrOrStderr())
			}

			result, err := client.Sync(cmd.Context(), opts...)
			if err != nil {
				return err
			}

			return Print(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), result)
		},
	}

	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "resolve owners and build profiles without persisting anything")
	cmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "stop after the first failed employee")
	cmd.Flags().BoolVar(&flags.Progress, "progress", false, "print one line per employee to stderr")
	cmd.Flags().StringSliceVarP(&flags.Categories, "category", "c", nil, "restrict writes to these categories (repeatable or comma separated)")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", constants.SyncTimeout, "abort the run after this long (0 disables)")

	return cmd
}

// BuildSyncOptions converts the flags into sync options.
func BuildSyncOptions(flags *Flags) ([]pkgsync.Option, error) {
	var opts []pkgsync.Option

	if flags.DryRun {
		opts = append(opts, pkgsync.WithDryRun(true))
	}
	if flags.FailFast {
		opts = append(opts, pkgsync.WithFailFast(true))
	}
	if flags.Timeout > 0 {
		opts = append(opts, pkgsync.WithTimeout(flags.Timeout))
	}
	if len(flags.Categories) > 0 {
		categories, err := profiles.ParseList(flags.Categories)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pkgsync.WithCategories(categories...))
	}

	return opts, nil
}

// Print writes result in format. Table formats print the summary line, the
// per-category counts and any failures.
func Print(w io.Writer, format output.Format, result *staffsync.Result) error {
	if !format.IsTable() {
		return output.NewFormatter(format).Format(w, result)
	}

	if _, err := fmt.Fprintln(w, result.Summary()); err != nil {
		return err
	}
	formatter := output.NewFormatter(format)
	if err := formatter.Format(w, table.ResultToTableData(result)); err != nil {
		return err
	}
	if len(result.Failures) > 0 {
		if _, err := fmt.Fprintln(w, "\nFailures:"); err != nil {
			return err
		}
		return formatter.Format(w, table.FailuresToTableData(result.Failures))
	}
	return nil
}

func registerProgress(client staffsync.Client, w io.Writer) {
	client.OnEmployeeSynced(func(o staffsync.EmployeeOutcome) {
		fmt.Fprintf(w, "✓ %s (owner %d): %d created, %d updated\n",
			o.FizCode, o.Owner.ID, len(o.Created), len(o.Updated))
	})
	client.OnEmployeeFailed(func(f staffsync.Failure) {
		fmt.Fprintf(w, "✗ %s: %s\n", f.FizCode, f.Message)
	})
}

// Package source provides the source command.
package source

import (
	"github.com/spf13/cobra"

	"github.com/FursAndrey/staffsync/internal/appcontext"
	"github.com/FursAndrey/staffsync/internal/cmd/output"
	"github.com/FursAndrey/staffsync/internal/cmd/table"
	"github.com/FursAndrey/staffsync/pkg/sources"
)

// NewCommand creates the source command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "source [collection]",
		GroupID: "core",
		Short:   "Show the records of the configured source",
		Args:    cobra.MaximumNArgs(1),
		Long: `Source reads the configured record source without syncing it.

Without arguments it prints the record count of each collection, or the
whole document with -o json or -o yaml. With a collection name
(employees, family, education, medical, violations) it prints that
collection's records.`,
		Example: `  staffsync source                          # Record counts
  staffsync source family                   # Family rows
  staffsync source -o yaml > dataset.yaml   # Export the built-in dataset`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			format := output.DetectFormat(app.OutputFormat())

			client, err := app.Client()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				collection, err := sources.ParseCollection(args[0])
				if err != nil {
					return err
				}
				recs, err := sources.Read(ctx, client.Source(), collection)
				if err != nil {
					return err
				}
				return output.Render(cmd.OutOrStdout(), format, recs, func() table.Data {
					return table.RecordsToTableData(recs)
				})
			}

			snapshot, err := sources.Load(ctx, client.Source())
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), format, snapshot.Document(), func() table.Data {
				return table.CountsToTableData(snapshot.Counts())
			})
		},
	}
}

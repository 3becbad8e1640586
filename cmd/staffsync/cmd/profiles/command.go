// Package profiles provides the profiles command.
package profiles

import (
	"github.com/spf13/cobra"

	"github.com/FursAndrey/staffsync/internal/appcontext"
	"github.com/FursAndrey/staffsync/internal/cmd/output"
	"github.com/FursAndrey/staffsync/internal/cmd/table"
)

// NewCommand creates the profiles command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "profiles [fiz_code]",
		GroupID: "core",
		Aliases: []string{"profile", "owners"},
		Short:   "Show stored owners and profiles",
		Args:    cobra.MaximumNArgs(1),
		Long: `Without arguments, profiles lists every owner in the store.

With a fiz_code, it shows every stored field of the owner resolved for
that code. The lookup is read-only: no owner is created.`,
		Example: `  staffsync profiles              # List owners
  staffsync profiles AdVUAlmVdy   # Show one employee's profiles
  staffsync profiles AdVUAlmVdy -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			format := output.DetectFormat(app.OutputFormat())

			client, err := app.Client()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				owners, err := client.Owners(ctx)
				if err != nil {
					return err
				}
				return output.Render(cmd.OutOrStdout(), format, owners, func() table.Data {
					return table.OwnersToTableData(owners)
				})
			}

			view, err := client.Profiles(ctx, args[0])
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), format, view, func() table.Data {
				return table.ProfilesToTableData(view)
			})
		},
	}
}

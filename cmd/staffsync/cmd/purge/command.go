// Package purge provides the purge command.
package purge

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FursAndrey/staffsync/internal/appcontext"
	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/profiles"
)

// NewCommand creates the purge command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:       "purge <category>",
		GroupID:   "management",
		Short:     "Delete every stored profile of one category",
		Args:      cobra.ExactArgs(1),
		ValidArgs: categoryNames(),
		Long: `Purge deletes every profile of the given category from the store.
Owners and the profiles of other categories are kept; the next sync
recreates the purged profiles from the source.`,
		Example: `  staffsync purge medical --yes
  staffsync purge violation_information -y`,
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := profiles.Parse(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return &errors.ValidationError{
					Field:   "yes",
					Message: fmt.Sprintf("refusing to delete all %s profiles without --yes", category.Bundle()),
				}
			}

			client, err := app.Client()
			if err != nil {
				return err
			}

			deleted, err := client.Purge(cmd.Context(), category)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d %s profiles\n", deleted, category.Bundle())
			return err
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")

	return cmd
}

func categoryNames() []string {
	names := make([]string, 0, len(profiles.All()))
	for _, c := range profiles.All() {
		names = append(names, c.String())
	}
	return names
}

package commands

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := open(cmd.Context(), load)
			if err != nil {
				return err
			}
			defer rt.Close()
			return migrate(cmd.Context(), rt.service, rt.log.Logger)
		},
	}
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/nuforge/ttg-clca-bridge/internal/app"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Run database migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) > 0 {
				command = args[0]
			}
			return app.RunMigrations(command)
		},
	}

	return cmd
}

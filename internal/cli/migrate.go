package cli

import (
	"fmt"
	"strings"

	"github.com/phrazzld/spellbook-variants/internal/platform/postgres"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate <" + strings.Join(postgres.MigrationCommands, "|") + ">",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: postgres.MigrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd, rootOpts)
			if err != nil {
				return err
			}
			ctx := env.context(cmd.Context())

			db, err := env.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := postgres.Migrate(ctx, db, args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", args[0])
			return err
		},
	}
	return cmd
}

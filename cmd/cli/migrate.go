package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axellelanca/linkshorter/cmd"
)

// MigrateCmd creates or updates the shorters and tokens tables.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Executes database migrations to create or update tables.",
	Long: `This command opens the configured SQLite database and runs GORM automatic
migrations for the 'shorters' and 'tokens' tables. Databases created by older
versions gain the missing columns.`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		st, err := cmd.OpenStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(); err != nil {
			return err
		}
		fmt.Fprintln(c.OutOrStdout(), "Database migrations executed successfully.")
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	migrateFlags runFlags
	migratePlain bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <backup>...",
	Short: "Migrate one or more backups",
	Long: `Rewrites the MangaDex entries of each backup to the new ids and writes
<name>_modified.<ext> next to it (or into --out).

Entries whose manga or any chapter has no new id are left unchanged and listed
in the summary. Nothing is written for a backup that fails to migrate.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMigrate,
}

func init() {
	addRunFlags(migrateCmd, &migrateFlags)
	migrateCmd.Flags().BoolVar(&migratePlain, "plain", false, "print progress as lines instead of the interactive view")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	r, err := newRunner(&migrateFlags)
	if err != nil {
		return err
	}
	defer r.close()

	interactive := !migratePlain && isTerminal(cmd.OutOrStdout())

	var errs []error
	for _, path := range args {
		if err := r.migrateFile(cmd.Context(), cmd, path, interactive); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("migration failed: %w", errors.Join(errs...))
	}
	return nil
}

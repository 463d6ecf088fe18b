// Package cli implements the dexmigrate command line.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driving"
	"github.com/custodia-labs/dexmigrate/internal/logger"
)

// MigratorFactory opens a migrator backed by the given resolver. The closer
// releases the resolver once the command is done.
type MigratorFactory func(settings domain.ResolverSettings) (driving.Migrator, io.Closer, error)

// MappingFactory opens the mapping service for the given resolver settings.
type MappingFactory func(settings domain.ResolverSettings) (driving.MappingService, io.Closer, error)

// Services holds what the commands need from the core.
type Services struct {
	Settings  driving.SettingsService
	Migrators MigratorFactory
	Mappings  MappingFactory
}

var (
	version = "dev"
	verbose bool

	settingsService driving.SettingsService
	newMigrator     MigratorFactory
	newMapping      MappingFactory
)

var rootCmd = &cobra.Command{
	Use:   "dexmigrate",
	Short: "Migrate Tachiyomi backups to the new MangaDex ids",
	Long: `dexmigrate rewrites MangaDex entries in Tachiyomi backups (.proto.gz or
legacy .json) from legacy numeric ids to the new UUID ids. Every other part
of the backup is written back unchanged.

The rewritten backup is saved next to the original as <name>_modified.<ext>.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log per-entry decisions to stderr")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetServices wires the core services into the commands.
func SetServices(s Services) {
	settingsService = s.Settings
	newMigrator = s.Migrators
	newMapping = s.Mappings
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

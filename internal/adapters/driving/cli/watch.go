package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/dexmigrate/internal/adapters/driving/watch"
	"github.com/custodia-labs/dexmigrate/internal/logger"
)

var (
	watchFlags    runFlags
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Migrate backups as they are written into a directory",
	Long: `Watches a directory and migrates every .proto.gz or .json backup written
into it until interrupted. Migration outputs (*_modified.*) are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	addRunFlags(watchCmd, &watchFlags)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a new file is migrated")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	r, err := newRunner(&watchFlags)
	if err != nil {
		return err
	}
	defer r.close()

	ctx := cmd.Context()
	w := watch.New(args[0], watchDebounce)
	paths, err := w.Watch(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s for backups (Ctrl+C to stop)\n", w.Dir())
	for path := range paths {
		if err := r.migrateFile(ctx, cmd, path, false); err != nil {
			logger.Error("%s: %v", path, err)
		}
	}
	return nil
}

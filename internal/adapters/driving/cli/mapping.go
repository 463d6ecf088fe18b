package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driving"
	"github.com/custodia-labs/dexmigrate/internal/logger"
)

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Manage the local id mapping database",
	Long: `Import and query the legacy-to-new id mappings used by the sqlite resolver.

Mapping files are CSV with one "legacy_id,new_id" pair per line. A header
line is allowed.`,
}

var mappingImportCmd = &cobra.Command{
	Use:   "import <manga|chapter> <file.csv>",
	Short: "Import id mappings from a CSV file",
	Args:  cobra.ExactArgs(2),
	RunE:  runMappingImport,
}

var mappingLookupCmd = &cobra.Command{
	Use:   "lookup <manga|chapter> <legacy-id>",
	Short: "Look up the new id for a legacy id",
	Long:  `Resolves a legacy id with the configured resolver.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runMappingLookup,
}

var mappingCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show how many mappings are stored",
	Args:  cobra.NoArgs,
	RunE:  runMappingCounts,
}

func init() {
	mappingCmd.AddCommand(mappingImportCmd)
	mappingCmd.AddCommand(mappingLookupCmd)
	mappingCmd.AddCommand(mappingCountsCmd)
	rootCmd.AddCommand(mappingCmd)
}

// openMapping opens the mapping service for the configured resolver. The
// returned func releases it.
func openMapping() (driving.MappingService, func(), error) {
	if settingsService == nil {
		return nil, nil, errors.New("settings service not configured")
	}
	if newMapping == nil {
		return nil, nil, errors.New("mapping service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get settings: %w", err)
	}

	svc, closer, err := newMapping(settings.Resolver)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open mapping database: %w", err)
	}
	return svc, func() {
		if closer == nil {
			return
		}
		if err := closer.Close(); err != nil {
			logger.Warn("Closing mapping database: %v", err)
		}
	}, nil
}

func parseKind(arg string) (domain.IDKind, error) {
	kind := domain.IDKind(arg)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid id kind %q: must be manga or chapter", arg)
	}
	return kind, nil
}

func runMappingImport(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}

	svc, done, err := openMapping()
	if err != nil {
		return err
	}
	defer done()

	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := svc.Import(cmd.Context(), kind, f)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.Printf("Imported %s %s mappings from %s\n", humanize.Comma(int64(n)), kind, args[1])
	return nil
}

func runMappingLookup(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}

	svc, done, err := openMapping()
	if err != nil {
		return err
	}
	defer done()

	newID, ok, err := svc.Lookup(cmd.Context(), kind, args[1])
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s %s: %w", kind, args[1], domain.ErrNotFound)
	}

	cmd.Println(newID)
	return nil
}

func runMappingCounts(cmd *cobra.Command, _ []string) error {
	svc, done, err := openMapping()
	if err != nil {
		return err
	}
	defer done()

	counts, err := svc.Counts(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count mappings: %w", err)
	}

	cmd.Printf("Manga:    %s\n", humanize.Comma(int64(counts[domain.IDKindManga])))
	cmd.Printf("Chapters: %s\n", humanize.Comma(int64(counts[domain.IDKindChapter])))
	return nil
}

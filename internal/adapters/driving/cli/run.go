package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/dexmigrate/internal/adapters/driving/tui"
	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driving"
	"github.com/custodia-labs/dexmigrate/internal/logger"
)

// runFlags are the per-run overrides shared by migrate and watch.
type runFlags struct {
	counting string
	resolver string
	out      string
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVar(&f.counting, "counting", "", "entries to tally: favorites or all (default from settings)")
	cmd.Flags().StringVar(&f.resolver, "resolver", "", "id lookup backend: sqlite, table or remote (default from settings)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "directory for migrated backups (default: next to the input)")
}

// runner migrates backup files with one opened resolver.
type runner struct {
	migrator driving.Migrator
	closer   io.Closer
	counting domain.CountingMode
	outDir   string
}

func newRunner(f *runFlags) (*runner, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	if newMigrator == nil {
		return nil, errors.New("migration service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	resolverSettings := settings.Resolver
	if f.resolver != "" {
		kind := domain.ResolverKind(f.resolver)
		if !kind.IsValid() {
			return nil, fmt.Errorf("invalid resolver %q: must be one of sqlite, table, remote", f.resolver)
		}
		resolverSettings.Kind = kind
	}

	counting := domain.CountingMode(f.counting)
	if f.counting != "" && !counting.IsValid() {
		return nil, fmt.Errorf("invalid counting mode %q: must be favorites or all", f.counting)
	}

	outDir := settings.OutputDir
	if f.out != "" {
		outDir = f.out
	}

	migrator, closer, err := newMigrator(resolverSettings)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s resolver: %w", resolverSettings.Kind, err)
	}

	return &runner{migrator: migrator, closer: closer, counting: counting, outDir: outDir}, nil
}

func (r *runner) close() {
	if r.closer == nil {
		return
	}
	if err := r.closer.Close(); err != nil {
		logger.Warn("Closing resolver: %v", err)
	}
}

// migrateFile migrates the backup at path and writes the result. When
// interactive is set, progress is rendered by the terminal UI.
func (r *runner) migrateFile(ctx context.Context, cmd *cobra.Command, path string, interactive bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	req := domain.MigrationRequest{
		FileName: filepath.Base(path),
		Input:    f,
		Counting: r.counting,
	}

	var result *domain.MigrationResult
	if interactive {
		result, err = tui.Run(ctx, req.FileName, func(ctx context.Context, progress driving.ProgressReporter) (*domain.MigrationResult, error) {
			return r.migrator.Migrate(ctx, req, progress)
		})
	} else {
		cmd.Printf("Migrating %s...\n", path)
		result, err = r.migrator.Migrate(ctx, req, newPlainProgress(cmd.OutOrStdout()))
	}
	if err != nil {
		return err
	}

	dir := r.outDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	outPath, err := writeOutput(dir, result)
	if err != nil {
		return err
	}

	printReport(cmd, result, outPath)
	return nil
}

// writeOutput writes the result into dir through a temporary file so an
// interrupted write never leaves a truncated backup behind.
func writeOutput(dir string, result *domain.MigrationResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dexmigrate-*")
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(result.Output); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}

	outPath := filepath.Join(dir, result.FileName)
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	return outPath, nil
}

func printReport(cmd *cobra.Command, result *domain.MigrationResult, outPath string) {
	r := result.Report

	cmd.Printf("Wrote %s (%s)\n", outPath, humanize.Bytes(uint64(len(result.Output))))
	cmd.Printf("Migrated %s of %s entries (counting %s)\n",
		humanize.Comma(int64(r.TotalMigrated())), humanize.Comma(int64(r.TotalFiltered)), r.Counting)
	cmd.Printf("  Already migrated:   %s\n", humanize.Comma(int64(len(r.AlreadyMigrated))))
	cmd.Printf("  Missing manga id:   %s\n", humanize.Comma(int64(len(r.MissingMangaID))))
	cmd.Printf("  Missing chapter id: %s\n", humanize.Comma(int64(len(r.MissingChapterID))))

	printTitles(cmd, "Entries already migrated:", r.AlreadyMigrated)
	printTitles(cmd, "Entries without a new manga id:", r.MissingMangaID)
	printTitles(cmd, "Entries with a chapter that has no new id:", r.MissingChapterID)
}

func printTitles(cmd *cobra.Command, header string, titles []string) {
	if len(titles) == 0 {
		return
	}
	cmd.Println(header)
	for _, t := range titles {
		cmd.Printf("  - %s\n", t)
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// plainProgress prints phase changes and status messages as lines.
type plainProgress struct {
	w       io.Writer
	phase   domain.Phase
	message string
}

func newPlainProgress(w io.Writer) *plainProgress {
	return &plainProgress{w: w, phase: domain.PhaseIdle}
}

func (p *plainProgress) Report(e domain.ProgressEvent) {
	if e.Phase == domain.PhaseIdle {
		return
	}
	if e.Phase != p.phase {
		p.phase = e.Phase
		if e.Phase == domain.PhaseProcessing {
			fmt.Fprintf(p.w, "Processing %s entries\n", humanize.Comma(int64(e.Total)))
		}
	}
	if e.Message != "" && e.Message != p.message {
		p.message = e.Message
		fmt.Fprintln(p.w, e.Message)
	}
}

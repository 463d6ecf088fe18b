package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driving"
	"github.com/custodia-labs/dexmigrate/internal/logger"
)

// MigrationEngine rewrites the legacy URLs of migratable entries in a document.
//
// Entries are processed sequentially in document order. Each entry is migrated
// atomically: its URL and every chapter URL are rewritten together or not at
// all. History rewrites are best-effort and never abort an entry.
type MigrationEngine struct {
	counting domain.CountingMode
}

// NewMigrationEngine creates an engine tallying entries with the given mode.
// An invalid mode falls back to domain.CountFavorites.
func NewMigrationEngine(counting domain.CountingMode) *MigrationEngine {
	if !counting.IsValid() {
		counting = domain.CountFavorites
	}
	return &MigrationEngine{counting: counting}
}

// Counting returns the engine's counting mode.
func (e *MigrationEngine) Counting() domain.CountingMode {
	return e.counting
}

// Total returns how many entries of doc will be counted under filter.
func (e *MigrationEngine) Total(doc *domain.Document, filter domain.SourceFilter) int {
	total := 0
	for i := range doc.Entries {
		entry := &doc.Entries[i]
		if filter.Contains(entry.SourceID) && e.counting.Counts(entry.Favorite) {
			total++
		}
	}
	return total
}

// Migrate returns a rewritten copy of doc and the run report. doc itself is not
// modified. Entries outside filter are passed through untouched.
//
// Resolver failures and cancellation abort the run; no document is returned.
func (e *MigrationEngine) Migrate(
	ctx context.Context,
	doc *domain.Document,
	resolver driven.IdentifierResolver,
	filter domain.SourceFilter,
	progress driving.ProgressReporter,
) (*domain.Document, *domain.MigrationReport, error) {
	if doc == nil {
		return nil, nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}
	if resolver == nil {
		return nil, nil, fmt.Errorf("%w: nil resolver", domain.ErrInvalidInput)
	}
	if progress == nil {
		progress = driving.NopProgress
	}

	report := &domain.MigrationReport{
		Counting:      e.counting,
		TotalFiltered: e.Total(doc, filter),
	}

	out := *doc
	out.Entries = slices.Clone(doc.Entries)

	processed := 0
	for i := range doc.Entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		entry := doc.Entries[i]
		if !filter.Contains(entry.SourceID) {
			continue
		}

		res, err := e.migrateEntry(ctx, entry, resolver)
		if err != nil {
			return nil, nil, fmt.Errorf("migrate %q: %w", entry.Title, err)
		}
		if res.outcome == domain.OutcomeMigrated {
			out.Entries[i] = res.entry
		}

		// Uncounted entries are still migrated, just not reported.
		if !e.counting.Counts(entry.Favorite) {
			continue
		}

		report.Record(res.outcome, res.label)
		processed++

		switch res.outcome {
		case domain.OutcomeMissingMangaID:
			logger.Warn("No new manga id for %q (%s)", entry.Title, entry.URL)
		case domain.OutcomeMissingChapterID:
			logger.Warn("No new chapter id for %s", res.label)
		case domain.OutcomeAlreadyMigrated:
			logger.Debug("Already migrated: %q", entry.Title)
		}

		progress.Report(domain.ProgressEvent{
			Phase:     domain.PhaseProcessing,
			Title:     entry.Title,
			Outcome:   res.outcome,
			Processed: processed,
			Total:     report.TotalFiltered,
		})
	}

	return &out, report, nil
}

// entryResult is the classification of one entry.
type entryResult struct {
	entry   domain.Entry
	outcome domain.Outcome
	label   string
}

// migrateEntry classifies one filtered entry and, when it migrates, returns the
// rewritten copy. The input entry is never modified.
func (e *MigrationEngine) migrateEntry(
	ctx context.Context,
	entry domain.Entry,
	resolver driven.IdentifierResolver,
) (entryResult, error) {
	unchanged := func(outcome domain.Outcome, label string) (entryResult, error) {
		return entryResult{entry: entry, outcome: outcome, label: label}, nil
	}

	legacyID, ok := mangaIDSegment(entry.URL)
	if ok && isUUID(legacyID) {
		return unchanged(domain.OutcomeAlreadyMigrated, entry.Title)
	}
	if !ok {
		return unchanged(domain.OutcomeMissingMangaID, entry.Title)
	}

	newMangaID, found, err := resolver.ResolveMangaID(ctx, legacyID)
	if err != nil {
		return entryResult{}, resolveErr(domain.IDKindManga, legacyID, err)
	}
	if !found {
		return unchanged(domain.OutcomeMissingMangaID, entry.Title)
	}

	migrated := entry.Clone()
	migrated.URL = newMangaURL(newMangaID)

	for j := range migrated.Chapters {
		chapter := &migrated.Chapters[j]
		if isMigratedChapterURL(chapter.URL) {
			continue
		}

		newChapterURL, found, err := resolveChapterURL(ctx, resolver, chapter.URL)
		if err != nil {
			return entryResult{}, err
		}
		if !found {
			// One unresolved chapter invalidates every rewrite computed for the entry.
			return unchanged(domain.OutcomeMissingChapterID, fmt.Sprintf("%s (%s)", entry.Title, chapterLabel(*chapter)))
		}
		chapter.URL = newChapterURL
	}

	for j := range migrated.History {
		history := &migrated.History[j]
		if isMigratedChapterURL(history.URL) {
			continue
		}

		newChapterURL, found, err := resolveChapterURL(ctx, resolver, history.URL)
		if err != nil {
			return entryResult{}, err
		}
		if found {
			history.URL = newChapterURL
		}
	}

	return entryResult{entry: migrated, outcome: domain.OutcomeMigrated, label: entry.Title}, nil
}

// resolveChapterURL maps a legacy chapter URL to its new form. URLs that are not
// in the legacy API shape are reported as not found.
func resolveChapterURL(ctx context.Context, resolver driven.IdentifierResolver, url string) (string, bool, error) {
	legacyID, ok := legacyChapterID(url)
	if !ok {
		return "", false, nil
	}

	newID, found, err := resolver.ResolveChapterID(ctx, legacyID)
	if err != nil {
		return "", false, resolveErr(domain.IDKindChapter, legacyID, err)
	}
	if !found {
		return "", false, nil
	}
	return newChapterURL(newID), true, nil
}

// resolveErr wraps a lookup failure, keeping an existing ResolutionError intact
// and classifying anything else as one.
func resolveErr(kind domain.IDKind, legacyID string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if !domain.IsResolutionError(err) {
		err = domain.NewResolutionError(kind, err)
	}
	return fmt.Errorf("resolve %s %s: %w", kind, legacyID, err)
}

func chapterLabel(c domain.Chapter) string {
	if c.Name != "" {
		return c.Name
	}
	return c.URL
}

package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driving"
	"github.com/custodia-labs/dexmigrate/internal/logger"
)

// Ensure resolvedIDs implements the interface.
var _ driven.IdentifierResolver = (*resolvedIDs)(nil)

// legacyIDs holds the distinct legacy ids a document needs, in first-seen order.
type legacyIDs struct {
	manga   []string
	chapter []string
}

// collectLegacyIDs walks the filtered entries and gathers every numeric legacy
// id the rewrite pass may look up. Entries already on the new scheme are skipped.
func collectLegacyIDs(doc *domain.Document, filter domain.SourceFilter) legacyIDs {
	var ids legacyIDs
	seenManga := make(map[string]struct{})
	seenChapter := make(map[string]struct{})

	addChapter := func(url string) {
		if isMigratedChapterURL(url) {
			return
		}
		id, ok := legacyChapterID(url)
		if !ok || !isNumericID(id) {
			return
		}
		if _, dup := seenChapter[id]; !dup {
			seenChapter[id] = struct{}{}
			ids.chapter = append(ids.chapter, id)
		}
	}

	for i := range doc.Entries {
		entry := &doc.Entries[i]
		if !filter.Contains(entry.SourceID) {
			continue
		}

		mangaID, ok := mangaIDSegment(entry.URL)
		if !ok || isUUID(mangaID) {
			continue
		}
		if isNumericID(mangaID) {
			if _, dup := seenManga[mangaID]; !dup {
				seenManga[mangaID] = struct{}{}
				ids.manga = append(ids.manga, mangaID)
			}
		}

		for _, c := range entry.Chapters {
			addChapter(c.URL)
		}
		for _, h := range entry.History {
			addChapter(h.URL)
		}
	}

	return ids
}

// resolvedIDs answers lookups from maps filled by a batch pre-pass.
type resolvedIDs struct {
	manga   map[string]string
	chapter map[string]string
}

// ResolveMangaID returns the prefetched new id for a legacy manga id.
func (r *resolvedIDs) ResolveMangaID(_ context.Context, legacyID string) (string, bool, error) {
	id, ok := r.manga[legacyID]
	return id, ok, nil
}

// ResolveChapterID returns the prefetched new id for a legacy chapter id.
func (r *resolvedIDs) ResolveChapterID(_ context.Context, legacyID string) (string, bool, error) {
	id, ok := r.chapter[legacyID]
	return id, ok, nil
}

// prefetch resolves every legacy id of doc through batch and returns a
// resolver serving the results. A failed batch aborts the whole prefetch.
func prefetch(
	ctx context.Context,
	batch driven.BatchResolver,
	doc *domain.Document,
	filter domain.SourceFilter,
	progress driving.ProgressReporter,
) (*resolvedIDs, error) {
	ids := collectLegacyIDs(doc, filter)
	logger.Info("Prefetching %d manga ids and %d chapter ids", len(ids.manga), len(ids.chapter))

	resolved := &resolvedIDs{}
	var err error

	resolved.manga, err = prefetchKind(ctx, batch, domain.IDKindManga, ids.manga, progress)
	if err != nil {
		return nil, err
	}
	resolved.chapter, err = prefetchKind(ctx, batch, domain.IDKindChapter, ids.chapter, progress)
	if err != nil {
		return nil, err
	}

	logger.Info("Prefetch resolved %d/%d manga ids, %d/%d chapter ids",
		len(resolved.manga), len(ids.manga), len(resolved.chapter), len(ids.chapter))
	return resolved, nil
}

func prefetchKind(
	ctx context.Context,
	batch driven.BatchResolver,
	kind domain.IDKind,
	ids []string,
	progress driving.ProgressReporter,
) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	onProgress := func(done float64) {
		progress.Report(domain.ProgressEvent{
			Phase:   domain.PhasePreparing,
			Message: fmt.Sprintf("Retrieving new %s ids %.0f%%", kind, done*100),
		})
	}

	mapped, err := batch.ResolveBatch(ctx, kind, ids, onProgress)
	if err != nil {
		return nil, resolveErr(kind, "batch", err)
	}
	if mapped == nil {
		mapped = map[string]string{}
	}
	return mapped, nil
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dexmigrate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driving"
)

const (
	testSource  int64 = 2499283573021220255
	otherSource int64 = 1

	mangaUUID    = "3fa85f64-5717-4562-b3fc-2c963f66afa6"
	chapterUUID1 = "9c1d6f0e-1e3b-4a52-8c57-1f4c9a2e7b10"
	chapterUUID2 = "0b7e6d43-7a0a-4bb1-9a3e-2f7d8c5e4a21"
)

func testFilter() domain.SourceFilter {
	return domain.NewSourceFilter(testSource)
}

func legacyEntry(title string, favorite bool) domain.Entry {
	return domain.Entry{
		SourceID: testSource,
		Favorite: favorite,
		Title:    title,
		URL:      "/manga/12345/slug",
		Chapters: []domain.Chapter{
			{URL: "/api/v1/chapter/6789", Name: "Ch. 1"},
		},
	}
}

// recordingProgress collects progress events.
type recordingProgress struct {
	events []domain.ProgressEvent
}

func (r *recordingProgress) Report(e domain.ProgressEvent) {
	r.events = append(r.events, e)
}

func TestMigrationEngine_Migrate_Scenario(t *testing.T) {
	resolver := memory.NewMappingStore().
		Add(domain.IDKindManga, "12345", "aaaa-uuid").
		Add(domain.IDKindChapter, "6789", "bbbb-uuid")
	doc := &domain.Document{Entries: []domain.Entry{legacyEntry("Title", true)}}

	engine := NewMigrationEngine(domain.CountFavorites)
	out, report, err := engine.Migrate(context.Background(), doc, resolver, testFilter(), nil)
	require.NoError(t, err)

	require.Len(t, out.Entries, 1)
	assert.Equal(t, "/manga/aaaa-uuid", out.Entries[0].URL)
	assert.Equal(t, "/chapter/bbbb-uuid", out.Entries[0].Chapters[0].URL)
	assert.Equal(t, []string{"Title"}, report.Migrated)
	assert.Equal(t, 1, report.TotalFiltered)
	assert.Equal(t, 1, report.TotalMigrated())
}

func TestMigrationEngine_Migrate_MissingChapterReverts(t *testing.T) {
	resolver := memory.NewMappingStore().
		Add(domain.IDKindManga, "12345", "aaaa-uuid")
	entry := legacyEntry("Title", true)
	entry.Chapters = append([]domain.Chapter{{URL: "/api/chapter/1", Name: "Ch. 0"}}, entry.Chapters...)
	resolver.Add(domain.IDKindChapter, "1", "cccc-uuid")
	doc := &domain.Document{Entries: []domain.Entry{entry}}

	out, report, err := NewMigrationEngine(domain.CountFavorites).
		Migrate(context.Background(), doc, resolver, testFilter(), nil)
	require.NoError(t, err)

	assert.Equal(t, "/manga/12345/slug", out.Entries[0].URL)
	assert.Equal(t, "/api/chapter/1", out.Entries[0].Chapters[0].URL)
	assert.Equal(t, "/api/v1/chapter/6789", out.Entries[0].Chapters[1].URL)
	assert.Equal(t, []string{"Title (Ch. 1)"}, report.MissingChapterID)
	assert.Empty(t, report.Migrated)
	assert.Equal(t, 0, report.TotalMigrated())
}

func TestMigrationEngine_Migrate_NonAPIChapterIsMiss(t *testing.T) {
	resolver := memory.NewMappingStore().
		Add(domain.IDKindManga, "12345", "aaaa-uuid")
	entry := legacyEntry("Title", true)
	entry.Chapters = []domain.Chapter{{URL: "https://example.org/read/1"}}
	doc := &domain.Document{Entries: []domain.Entry{entry}}

	out, report, err := NewMigrationEngine(domain.CountFavorites).
		Migrate(context.Background(), doc, resolver, testFilter(), nil)
	require.NoError(t, err)

	assert.Equal(t, entry.URL, out.Entries[0].URL)
	assert.Equal(t, []string{"Title (https://example.org/read/1)"}, report.MissingChapterID)
	assert.Zero(t, resolver.Lookups(domain.IDKindChapter))
}

func TestMigrationEngine_Migrate_AlreadyMigrated(t *testing.T) {
	resolver := memory.NewMappingStore()
	entry := domain.Entry{
		SourceID: testSource,
		Favorite: true,
		Title:    "Done",
		URL:      "/manga/" + mangaUUID,
		Chapters: []domain.Chapter{{URL: "/api/chapter/1", Name: "stale"}},
	}
	doc := &domain.Document{Entries: []domain.Entry{entry}}

	out, report, err := NewMigrationEngine(domain.CountFavorites).
		Migrate(context.Background(), doc, resolver, testFilter(), nil)
	require.NoError(t, err)

	assert.Equal(t, entry, out.Entries[0])
	assert.Equal(t, []string{"Done"}, report.AlreadyMigrated)
	assert.Zero(t, resolver.Lookups(domain.IDKindManga))
}

func TestMigrationEngine_Migrate_MissingManga(t *testing.T) {
	resolver := memory.NewMappingStore()
	doc := &domain.Document{Entries: []domain.Entry{
		legacyEntry("Unknown", true),
		{SourceID: testSource, Favorite: true, Title: "Short", URL: "/manga"},
		{SourceID: testSource, Favorite: true, Title: "Slug", URL: "/manga/not-a-number/slug"},
	}}

	out, report, err := NewMigrationEngine(domain.CountFavorites).
		Migrate(context.Background(), doc, resolver, testFilter(), nil)
	require.NoError(t, err)

	assert.Equal(t, doc.Entries, out.Entries)
	assert.Equal(t, []string{"Unknown", "Short", "Slug"}, report.MissingMangaID)
	assert.Equal(t, 2, resolver.Lookups(domain.IDKindManga))
}

func TestMigrationEngine_Migrate_HistoryBestEffort(t *testing.T) {
	resolver := memory.NewMappingStore().
		Add(domain.IDKindManga, "12345", mangaUUID).
		Add(domain.IDKindChapter, "6789", chapterUUID1)
	entry := legacyEntry("Title", true)
	entry.History = []domain.History{
		{URL: "/api/chapter/6789", LastRead: 100},
		{URL: "/api/chapter/404", LastRead: 200},
		{URL: "/chapter/" + chapterUUID2, LastRead: 300},
	}
	doc := &domain.Document{Entries: []domain.Entry{entry}}

	out, report, err := NewMigrationEngine(domain.CountFavorites).
		Migrate(context.Background(), doc, resolver, testFilter(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Title"}, report.Migrated)
	assert.Equal(t, []domain.History{
		{URL: "/chapter/" + chapterUUID1, LastRead: 100},
		{URL: "/api/chapter/404", LastRead: 200},
		{URL: "/chapter/" + chapterUUID2, LastRead: 300},
	}, out.Entries[0].History)
}

func TestMigrationEngine_Migrate_SkipsMigratedChapters(t *testing.T) {
	resolver := memory.NewMappingStore().
		Add(domain.IDKindManga, "12345", mangaUUID)
	entry := legacyEntry("Title", true)
	entry.Chapters = []domain.Chapter{{URL: "/chapter/" + chapterUUID1, Name: "Ch. 1"}}
	doc := &domain.Document{Entries: []domain.Entry{entry}}

	out, report, err := NewMigrationEngine(domain.CountFavorites).
		Migrate(context.Background(), doc, resolver, testFilter(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Title"}, report.Migrated)
	assert.Equal(t, "/manga/"+mangaUUID, out.Entries[0].URL)
	assert.Equal(t, "/chapter/"+chapterUUID1, out.Entries[0].Chapters[0].URL)
	assert.Zero(t, resolver.Lookups(domain.IDKindChapter))
}

func TestMigrationEngine_Migrate_PassThroughOutsideFilter(t *testing.T) {
	resolver := memory.NewMappingStore().
		Add(domain.IDKindManga, "12345", mangaUUID).
		Add(domain.IDKindChapter, "6789", chapterUUID1)
	outside := legacyEntry("Other", true)
	outside.SourceID = otherSource
	outside.Raw = []byte{0x0a, 0x01}
	doc := &domain.Document{Entries: []domain.Entry{outside, legacyEntry("Inside", true)}}

	out, report, err := NewMigrationEngine(domain.CountAll).
		Migrate(context.Background(), doc, resolver, testFilter(), nil)
	require.NoError(t, err)

	assert.Equal(t, outside, out.Entries[0])
	assert.Equal(t, 1, report.TotalFiltered)
	assert.Equal(t, []string{"Inside"}, report.Migrated)
}

func TestMigrationEngine_Migrate_DoesNotMutateInput(t *testing.T) {
	resolver := memory.NewMappingStore().
		Add(domain.IDKindManga, "12345", mangaUUID).
		Add(domain.IDKindChapter, "6789", chapterUUID1)
	doc := &domain.Document{Entries: []domain.Entry{legacyEntry("Title", true)}}

	_, _, err := NewMigrationEngine(domain.CountFavorites).
		Migrate(context.Background(), doc, resolver, testFilter(), nil)
	require.NoError(t, err)

	assert.Equal(t, "/manga/12345/slug", doc.Entries[0].URL)
	assert.Equal(t, "/api/v1/chapter/6789", doc.Entries[0].Chapters[0].URL)
}

func TestMigrationEngine_CountingModes(t *testing.T) {
	resolver := memory.NewMappingStore().
		Add(domain.IDKindManga, "12345", mangaUUID).
		Add(domain.IDKindChapter, "6789", chapterUUID1)
	doc := &domain.Document{Entries: []domain.Entry{
		legacyEntry("Favorite", true),
		legacyEntry("Dropped", false),
	}}

	t.Run("favorites", func(t *testing.T) {
		progress := &recordingProgress{}
		out, report, err := NewMigrationEngine(domain.CountFavorites).
			Migrate(context.Background(), doc, resolver, testFilter(), progress)
		require.NoError(t, err)

		assert.Equal(t, 1, report.TotalFiltered)
		assert.Equal(t, []string{"Favorite"}, report.Migrated)
		require.Len(t, progress.events, 1)
		// Unfavorited entries are still rewritten.
		assert.Equal(t, "/manga/"+mangaUUID, out.Entries[1].URL)
	})

	t.Run("all", func(t *testing.T) {
		progress := &recordingProgress{}
		_, report, err := NewMigrationEngine(domain.CountAll).
			Migrate(context.Background(), doc, resolver, testFilter(), progress)
		require.NoError(t, err)

		assert.Equal(t, 2, report.TotalFiltered)
		assert.Equal(t, []string{"Favorite", "Dropped"}, report.Migrated)
		require.Len(t, progress.events, 2)
		assert.Equal(t, 2, progress.events[1].Processed)
		assert.Equal(t, 2, progress.events[1].Total)
		assert.Equal(t, "Dropped", progress.events[1].Title)
		assert.Equal(t, domain.PhaseProcessing, progress.events[1].Phase)
	})

	t.Run("invalid falls back to favorites", func(t *testing.T) {
		assert.Equal(t, domain.CountFavorites, NewMigrationEngine("bogus").Counting())
	})
}

func TestMigrationEngine_ReportTotalsInvariant(t *testing.T) {
	resolver := memory.NewMappingStore().
		Add(domain.IDKindManga, "12345", mangaUUID).
		Add(domain.IDKindManga, "777", chapterUUID2)
	partial := legacyEntry("Partial", true)
	partial.URL = "/manga/777/x"
	doc := &domain.Document{Entries: []domain.Entry{
		{SourceID: testSource, Favorite: true, Title: "Migrated", URL: "/manga/12345"},
		{SourceID: testSource, Favorite: true, Title: "Done", URL: "/manga/" + mangaUUID},
		{SourceID: testSource, Favorite: true, Title: "Missing", URL: "/manga/1"},
		partial,
	}}

	_, report, err := NewMigrationEngine(domain.CountAll).
		Migrate(context.Background(), doc, resolver, testFilter(), nil)
	require.NoError(t, err)

	assert.Equal(t, report.TotalFiltered,
		report.TotalMigrated()+len(report.AlreadyMigrated)+len(report.MissingMangaID)+len(report.MissingChapterID))
	assert.Equal(t, 1, report.TotalMigrated())
	assert.Len(t, report.Migrated, report.TotalMigrated())
}

func TestMigrationEngine_Idempotent(t *testing.T) {
	resolver := memory.NewMappingStore().
		Add(domain.IDKindManga, "12345", mangaUUID).
		Add(domain.IDKindChapter, "6789", chapterUUID1)
	doc := &domain.Document{Entries: []domain.Entry{
		legacyEntry("Title", true),
		{SourceID: testSource, Favorite: true, Title: "Missing", URL: "/manga/1"},
	}}
	engine := NewMigrationEngine(domain.CountFavorites)

	first, firstReport, err := engine.Migrate(context.Background(), doc, resolver, testFilter(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, firstReport.TotalMigrated())

	second, secondReport, err := engine.Migrate(context.Background(), first, resolver, testFilter(), nil)
	require.NoError(t, err)

	assert.Zero(t, secondReport.TotalMigrated())
	assert.Equal(t, []string{"Title"}, secondReport.AlreadyMigrated)
	assert.Equal(t, firstReport.MissingMangaID, secondReport.MissingMangaID)
	assert.Equal(t, first.Entries, second.Entries)
}

func TestMigrationEngine_ResolverErrorIsFatal(t *testing.T) {
	resolver := memory.NewMappingStore()
	resolver.FailWith(errors.New("connection refused"))
	doc := &domain.Document{Entries: []domain.Entry{legacyEntry("Title", true)}}

	out, report, err := NewMigrationEngine(domain.CountFavorites).
		Migrate(context.Background(), doc, resolver, testFilter(), nil)
	require.Error(t, err)

	assert.True(t, domain.IsResolutionError(err))
	assert.Nil(t, out)
	assert.Nil(t, report)
}

func TestMigrationEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := &domain.Document{Entries: []domain.Entry{legacyEntry("Title", true)}}

	out, _, err := NewMigrationEngine(domain.CountFavorites).
		Migrate(ctx, doc, memory.NewMappingStore(), testFilter(), driving.NopProgress)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
}

func TestMigrationEngine_InvalidInput(t *testing.T) {
	engine := NewMigrationEngine(domain.CountFavorites)

	_, _, err := engine.Migrate(context.Background(), nil, memory.NewMappingStore(), testFilter(), nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = engine.Migrate(context.Background(), &domain.Document{}, nil, testFilter(), nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

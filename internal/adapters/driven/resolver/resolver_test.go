package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
)

func TestOpen_SQLite(t *testing.T) {
	h, err := Open(domain.ResolverSettings{
		Kind:       domain.ResolverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "mapping.db"),
	})
	require.NoError(t, err)
	defer func() { assert.NoError(t, h.Close()) }()

	require.NotNil(t, h.Store)
	_, err = h.Store.Put(context.Background(), domain.IDKindManga, []domain.IDMapping{{LegacyID: 1, NewID: "a"}})
	require.NoError(t, err)

	newID, ok, err := h.Resolver.ResolveMangaID(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", newID)
}

func TestOpen_Table(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manga.csv"), []byte("1,a\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chapter.csv"), []byte("2,b\n"), 0600))

	h, err := Open(domain.ResolverSettings{Kind: domain.ResolverTable, TableDir: dir})
	require.NoError(t, err)
	defer h.Close()

	assert.Nil(t, h.Store)
	newID, ok, err := h.Resolver.ResolveChapterID(context.Background(), "2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", newID)
}

func TestOpen_Remote(t *testing.T) {
	h, err := Open(domain.ResolverSettings{
		Kind:      domain.ResolverRemote,
		RemoteURL: "http://127.0.0.1:1/mapping",
		BatchSize: 10,
	})
	require.NoError(t, err)
	defer h.Close()

	_, ok := h.Resolver.(driven.BatchResolver)
	assert.True(t, ok)
}

func TestOpen_NotConfigured(t *testing.T) {
	tests := []domain.ResolverSettings{
		{Kind: domain.ResolverSQLite},
		{Kind: domain.ResolverTable},
		{Kind: "ftp"},
	}
	for _, settings := range tests {
		_, err := Open(settings)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestOpen_TableMissing(t *testing.T) {
	_, err := Open(domain.ResolverSettings{Kind: domain.ResolverTable, TableDir: t.TempDir()})
	require.Error(t, err)
}

func TestOpenWithStore_AddsStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manga.csv"), []byte("1,a\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chapter.csv"), []byte("2,b\n"), 0600))

	h, err := OpenWithStore(domain.ResolverSettings{
		Kind:       domain.ResolverTable,
		TableDir:   dir,
		SQLitePath: filepath.Join(t.TempDir(), "mapping.db"),
	})
	require.NoError(t, err)
	defer func() { assert.NoError(t, h.Close()) }()

	require.NotNil(t, h.Store)
	assert.Len(t, h.closers, 1)

	newID, ok, err := h.Resolver.ResolveMangaID(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", newID)
}

func TestOpenWithStore_FallsBackToStore(t *testing.T) {
	h, err := OpenWithStore(domain.ResolverSettings{
		Kind:       domain.ResolverTable,
		TableDir:   t.TempDir(),
		SQLitePath: filepath.Join(t.TempDir(), "mapping.db"),
	})
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Store.Put(context.Background(), domain.IDKindChapter, []domain.IDMapping{{LegacyID: 7, NewID: "c"}})
	require.NoError(t, err)

	newID, ok, err := h.Resolver.ResolveChapterID(context.Background(), "7")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "c", newID)
}

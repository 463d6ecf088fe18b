package table

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
)

func TestReadTable(t *testing.T) {
	table, err := ReadTable(strings.NewReader("legacy_id,new_id\n1,a\n5, b\n900,c\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	for id, want := range map[int64]string{1: "a", 5: "b", 900: "c"} {
		got, ok := table.Lookup(id)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	for _, id := range []int64{0, 2, 901} {
		_, ok := table.Lookup(id)
		assert.False(t, ok)
	}
}

func TestReadTable_Unsorted(t *testing.T) {
	tests := []string{
		"5,a\n1,b\n",
		"1,a\n1,b\n",
	}
	for _, data := range tests {
		_, err := ReadTable(strings.NewReader(data))
		require.ErrorIs(t, err, domain.ErrUnsortedTable)
	}
}

func TestReadTable_Invalid(t *testing.T) {
	tests := []string{
		"1\n",
		"1,a\nx,b\n",
		"1,\"a\n",
	}
	for _, data := range tests {
		_, err := ReadTable(strings.NewReader(data))
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manga.csv"), []byte("12345,aaaa\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chapter.csv"), []byte("6789,bbbb\n6790,cccc\n"), 0600))

	r, err := Open(dir)
	require.NoError(t, err)
	ctx := context.Background()

	newID, ok, err := r.ResolveMangaID(ctx, "12345")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "aaaa", newID)

	newID, ok, err = r.ResolveChapterID(ctx, "6790")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cccc", newID)

	_, ok, err = r.ResolveChapterID(ctx, "not-a-number")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, map[domain.IDKind]int{domain.IDKindManga: 1, domain.IDKindChapter: 2}, r.Counts())
}

func TestOpen_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Open(t.TempDir())
		require.Error(t, err)
	})

	t.Run("unsorted chapter table", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "manga.csv"), []byte("1,a\n"), 0600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "chapter.csv"), []byte("2,b\n1,a\n"), 0600))

		_, err := Open(dir)
		require.ErrorIs(t, err, domain.ErrUnsortedTable)
		assert.Contains(t, err.Error(), "chapter.csv")
	})
}

func TestNewResolver_NilTables(t *testing.T) {
	r := NewResolver(nil, nil)

	_, ok, err := r.ResolveMangaID(context.Background(), "1")
	require.NoError(t, err)
	assert.False(t, ok)
}

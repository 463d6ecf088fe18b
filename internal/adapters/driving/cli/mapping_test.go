package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
)

func TestMappingCmd_Subcommands(t *testing.T) {
	names := make([]string, 0, len(mappingCmd.Commands()))
	for _, c := range mappingCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"import", "lookup", "counts"}, names)
}

func TestMappingImport(t *testing.T) {
	env := setupCLI(t)
	csv := filepath.Join(t.TempDir(), "manga.csv")
	require.NoError(t, os.WriteFile(csv, []byte("legacy_id,new_id\n1,aaa\n2,bbb\n"), 0644))

	out, err := execute("mapping", "import", "manga", csv)
	require.NoError(t, err)

	assert.Contains(t, out, "Imported 2 manga mappings")
	n, err := env.store.Count(context.Background(), domain.IDKindManga)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, env.closed)
}

func TestMappingImport_BadKind(t *testing.T) {
	env := setupCLI(t)

	_, err := execute("mapping", "import", "volume", "x.csv")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid id kind")
	assert.Empty(t, env.opened)
}

func TestMappingImport_BadRows(t *testing.T) {
	setupCLI(t)
	csv := filepath.Join(t.TempDir(), "chapter.csv")
	require.NoError(t, os.WriteFile(csv, []byte("1,aaa\nnot-a-number,bbb\n"), 0644))

	_, err := execute("mapping", "import", "chapter", csv)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMappingLookup(t *testing.T) {
	setupCLI(t)

	out, err := execute("mapping", "lookup", "manga", "12345")
	require.NoError(t, err)
	assert.Equal(t, mangaUUID+"\n", out)

	_, err = execute("mapping", "lookup", "chapter", "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMappingCounts(t *testing.T) {
	setupCLI(t)

	out, err := execute("mapping", "counts")
	require.NoError(t, err)

	assert.Contains(t, out, "Manga:    1")
	assert.Contains(t, out, "Chapters: 1")
}

func TestMappingCmd_NotConfigured(t *testing.T) {
	setupCLI(t)
	newMapping = nil

	_, err := execute("mapping", "counts")

	assert.EqualError(t, err, "mapping service not configured")
}

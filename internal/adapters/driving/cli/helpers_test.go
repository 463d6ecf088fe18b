package cli

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/dexmigrate/internal/adapters/driven/codec"
	"github.com/custodia-labs/dexmigrate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/dexmigrate/internal/adapters/driving/watch"
	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driving"
	"github.com/custodia-labs/dexmigrate/internal/core/services"
)

const (
	mangaUUID   = "a96676e5-8ae2-425e-b549-7f15dd34a6d8"
	chapterUUID = "3b8f3ae6-05f5-4a5c-8a43-2e4fbd3bf8a2"
)

// legacyBackup has one resolvable entry and one without a new manga id.
const legacyBackup = `{
  "version": 2,
  "mangas": [
    {
      "manga": ["/manga/12345/slug", "One Piece", 2499283573021220255, 0, 0],
      "chapters": [{"u": "/api/chapter/6789", "r": 1}],
      "history": [["/api/chapter/6789", 1600000000000]]
    },
    {"manga": ["/manga/999/lost", "Lost Title", 2499283573021220255, 0, 0]}
  ],
  "categories": [],
  "extensions": []
}
`

// testEnv wires the real services over in-memory adapters.
type testEnv struct {
	settings *services.SettingsService
	store    *memory.MappingStore
	opened   []domain.ResolverSettings
	closed   int
}

func (e *testEnv) Close() error {
	e.closed++
	return nil
}

func setupCLI(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		settings: services.NewSettingsService(memory.NewConfigStore()),
		store: memory.NewMappingStore().
			Add(domain.IDKindManga, "12345", mangaUUID).
			Add(domain.IDKindChapter, "6789", chapterUUID),
	}

	oldSettings, oldMigrator, oldMapping := settingsService, newMigrator, newMapping
	SetServices(Services{
		Settings: env.settings,
		Migrators: func(rs domain.ResolverSettings) (driving.Migrator, io.Closer, error) {
			env.opened = append(env.opened, rs)
			return services.NewMigrationService(codec.NewDefaultRegistry(), env.store, env.settings), env, nil
		},
		Mappings: func(rs domain.ResolverSettings) (driving.MappingService, io.Closer, error) {
			env.opened = append(env.opened, rs)
			return services.NewMappingService(env.store, nil), env, nil
		},
	})

	migrateFlags = runFlags{}
	migratePlain = false
	watchFlags = runFlags{}
	watchDebounce = watch.DefaultDebounce
	verbose = false

	resetContexts(rootCmd)
	t.Cleanup(func() {
		settingsService, newMigrator, newMapping = oldSettings, oldMigrator, oldMapping
		resetContexts(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})
	return env
}

// resetContexts drops contexts cobra kept from earlier executions.
func resetContexts(cmd *cobra.Command) {
	cmd.SetContext(context.Background())
	for _, sub := range cmd.Commands() {
		resetContexts(sub)
	}
}

// execute runs the root command with args and returns its combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// safeBuffer is a bytes.Buffer safe for use from the command goroutine.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

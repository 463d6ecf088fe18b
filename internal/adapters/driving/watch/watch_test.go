package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
)

func TestIsBackupFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/tmp/backup.json", true},
		{"/tmp/backup.proto.gz", true},
		{"/tmp/BACKUP.JSON", true},
		{"/tmp/backup_modified.json", false},
		{"/tmp/backup_modified.proto.gz", false},
		{"/tmp/.backup.json", false},
		{"/tmp/notes.txt", false},
		{"/tmp/backup.gz", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBackupFile(tt.path))
		})
	}
}

func TestWatcher_HandleEvent(t *testing.T) {
	dir := t.TempDir()
	backup := filepath.Join(dir, "backup.json")
	require.NoError(t, os.WriteFile(backup, []byte("{}"), 0644))
	output := filepath.Join(dir, "backup_modified.json")
	require.NoError(t, os.WriteFile(output, []byte("{}"), 0644))
	sub := filepath.Join(dir, "nested.json")
	require.NoError(t, os.Mkdir(sub, 0755))

	w := New(dir, 0)

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"create backup", fsnotify.Event{Name: backup, Op: fsnotify.Create}, true},
		{"write backup", fsnotify.Event{Name: backup, Op: fsnotify.Write}, true},
		{"write and chmod", fsnotify.Event{Name: backup, Op: fsnotify.Write | fsnotify.Chmod}, true},
		{"chmod only", fsnotify.Event{Name: backup, Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: backup, Op: fsnotify.Remove}, false},
		{"migration output", fsnotify.Event{Name: output, Op: fsnotify.Create}, false},
		{"directory", fsnotify.Event{Name: sub, Op: fsnotify.Create}, false},
		{"vanished file", fsnotify.Event{Name: filepath.Join(dir, "gone.json"), Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := w.handleEvent(tt.event)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, tt.event.Name, path)
			}
		})
	}
}

func TestNew_DefaultDebounce(t *testing.T) {
	w := New("/tmp", 0)

	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.Equal(t, "/tmp", w.Dir())
}

func TestWatcher_Watch_ReportsNewBackups(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths, err := New(dir, 200*time.Millisecond).Watch(ctx)
	require.NoError(t, err)

	backup := filepath.Join(dir, "backup.json")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "backup_modified.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(backup, []byte("{"), 0644))
	require.NoError(t, os.WriteFile(backup, []byte("{}"), 0644))

	select {
	case got := <-paths:
		assert.Equal(t, backup, got)
	case <-time.After(5 * time.Second):
		t.Fatal("backup was not reported")
	}

	select {
	case got := <-paths:
		t.Fatalf("unexpected second report: %s", got)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_Watch_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	paths, err := New(t.TempDir(), 0).Watch(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-paths:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("channel was not closed")
	}
}

func TestWatcher_Watch_Errors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "backup.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0644))

	_, err := New(filepath.Join(dir, "missing"), 0).Watch(context.Background())
	assert.Error(t, err)

	_, err = New(file, 0).Watch(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

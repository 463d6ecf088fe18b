package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/dexmigrate/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
)

// defaultFileName is the database file created under the data directory.
const defaultFileName = "mapping.db"

// Store is a SQLite database holding legacy id mappings.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database at dbPath.
// If dbPath is empty, defaults to ~/.dexmigrate/data/mapping.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".dexmigrate", "data", defaultFileName)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// MappingStore returns a MappingStore interface backed by this store.
func (s *Store) MappingStore() driven.MappingStore {
	return &mappingStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_mappings.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// apply executes one migration and records its version atomically.
func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Mapping Store ====================

// mappingStore implements driven.MappingStore.
type mappingStore struct {
	store *Store
}

var _ driven.MappingStore = (*mappingStore)(nil)

// tableFor returns the table holding mappings of kind.
func tableFor(kind domain.IDKind) (string, error) {
	switch kind {
	case domain.IDKindManga:
		return "manga_ids", nil
	case domain.IDKindChapter:
		return "chapter_ids", nil
	default:
		return "", fmt.Errorf("%w: id kind %q", domain.ErrInvalidInput, kind)
	}
}

// ResolveMangaID looks up a legacy manga id.
func (s *mappingStore) ResolveMangaID(ctx context.Context, legacyID string) (string, bool, error) {
	return s.resolve(ctx, domain.IDKindManga, legacyID)
}

// ResolveChapterID looks up a legacy chapter id.
func (s *mappingStore) ResolveChapterID(ctx context.Context, legacyID string) (string, bool, error) {
	return s.resolve(ctx, domain.IDKindChapter, legacyID)
}

func (s *mappingStore) resolve(ctx context.Context, kind domain.IDKind, legacyID string) (string, bool, error) {
	id, err := strconv.ParseInt(legacyID, 10, 64)
	if err != nil {
		// Legacy ids are integers; anything else cannot be mapped.
		return "", false, nil
	}

	table, err := tableFor(kind)
	if err != nil {
		return "", false, err
	}

	var newID string
	err = s.store.db.QueryRowContext(ctx,
		"SELECT new_id FROM "+table+" WHERE legacy_id = ?", id,
	).Scan(&newID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, domain.NewResolutionError(kind, err)
	}
	return newID, true, nil
}

// Put upserts mappings in a single transaction.
func (s *mappingStore) Put(ctx context.Context, kind domain.IDKind, mappings []domain.IDMapping) (int, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	if len(mappings) == 0 {
		return 0, nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO `+table+` (legacy_id, new_id) VALUES (?, ?)
		ON CONFLICT(legacy_id) DO UPDATE SET new_id = excluded.new_id
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range mappings {
		if _, err := stmt.ExecContext(ctx, m.LegacyID, m.NewID); err != nil {
			return 0, fmt.Errorf("inserting %s %d: %w", kind, m.LegacyID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing mappings: %w", err)
	}
	return len(mappings), nil
}

// Count returns the number of stored mappings of kind.
func (s *mappingStore) Count(ctx context.Context, kind domain.IDKind) (int, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s mappings: %w", kind, err)
	}
	return n, nil
}

package services

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySourceIDs     = "migrate.source_ids"
	keyCounting      = "migrate.counting"
	keyOutputDir     = "migrate.output_dir"
	keyResolverKind  = "resolver.kind"
	keySQLitePath    = "resolver.sqlite_path"
	keyTableDir      = "resolver.table_dir"
	keyRemoteURL     = "resolver.remote_url"
	keyToken         = "resolver.token"
	keyBatchSize     = "resolver.batch_size"
	keyBatchDelayMS  = "resolver.batch_delay_ms"
	defaultMappingDB = "mapping.db"
)

// SettingsService manages migration settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current settings, falling back to defaults for unset or
// invalid values.
func (s *SettingsService) Get() (*domain.MigrationSettings, error) {
	defaults := domain.DefaultMigrationSettings()

	sourceIDs := s.configStore.GetInt64Slice(keySourceIDs)
	if len(sourceIDs) == 0 {
		sourceIDs = defaults.SourceIDs
	}

	settings := &domain.MigrationSettings{
		SourceIDs: sourceIDs,
		Counting:  s.getCounting(defaults.Counting),
		OutputDir: s.configStore.GetString(keyOutputDir),
		Resolver: domain.ResolverSettings{
			Kind:       s.getResolverKind(defaults.Resolver.Kind),
			SQLitePath: s.getString(keySQLitePath, s.defaultSQLitePath()),
			TableDir:   s.configStore.GetString(keyTableDir),
			RemoteURL:  s.getString(keyRemoteURL, defaults.Resolver.RemoteURL),
			Token:      s.configStore.GetString(keyToken),
			BatchSize:  s.getInt(keyBatchSize, defaults.Resolver.BatchSize),
			BatchDelay: s.getDelay(defaults.Resolver.BatchDelay),
		},
	}

	return settings, nil
}

// Save persists settings.
func (s *SettingsService) Save(settings *domain.MigrationSettings) error {
	if err := s.configStore.Set(keySourceIDs, settings.SourceIDs); err != nil {
		return fmt.Errorf("save source ids: %w", err)
	}
	if err := s.configStore.Set(keyCounting, settings.Counting.String()); err != nil {
		return fmt.Errorf("save counting mode: %w", err)
	}
	if err := s.configStore.Set(keyOutputDir, settings.OutputDir); err != nil {
		return fmt.Errorf("save output dir: %w", err)
	}

	r := settings.Resolver
	if err := s.configStore.Set(keyResolverKind, r.Kind.String()); err != nil {
		return fmt.Errorf("save resolver kind: %w", err)
	}
	if err := s.configStore.Set(keySQLitePath, r.SQLitePath); err != nil {
		return fmt.Errorf("save sqlite path: %w", err)
	}
	if err := s.configStore.Set(keyTableDir, r.TableDir); err != nil {
		return fmt.Errorf("save table dir: %w", err)
	}
	if err := s.configStore.Set(keyRemoteURL, r.RemoteURL); err != nil {
		return fmt.Errorf("save remote url: %w", err)
	}
	if r.Token != "" {
		if err := s.configStore.Set(keyToken, r.Token); err != nil {
			return fmt.Errorf("save resolver token: %w", err)
		}
	}
	if err := s.configStore.Set(keyBatchSize, r.BatchSize); err != nil {
		return fmt.Errorf("save batch size: %w", err)
	}
	if err := s.configStore.Set(keyBatchDelayMS, int(r.BatchDelay/time.Millisecond)); err != nil {
		return fmt.Errorf("save batch delay: %w", err)
	}

	return nil
}

// Set parses value for a single key and persists it.
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)

	var parsed any
	switch key {
	case keySourceIDs:
		ids, err := parseSourceIDs(value)
		if err != nil {
			return err
		}
		parsed = ids
	case keyCounting:
		mode := domain.CountingMode(value)
		if !mode.IsValid() {
			return fmt.Errorf("%w: counting mode %q (want all or favorites)", domain.ErrInvalidInput, value)
		}
		parsed = value
	case keyResolverKind:
		kind := domain.ResolverKind(value)
		if !kind.IsValid() {
			return fmt.Errorf("%w: resolver kind %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	case keyBatchSize:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: batch size must be a positive integer", domain.ErrInvalidInput)
		}
		parsed = n
	case keyBatchDelayMS:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: batch delay must be a non-negative integer", domain.ErrInvalidInput)
		}
		parsed = n
	case keyOutputDir, keySQLitePath, keyTableDir, keyRemoteURL, keyToken:
		parsed = value
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns the settable configuration keys.
func (s *SettingsService) Keys() []string {
	return []string{
		keySourceIDs,
		keyCounting,
		keyOutputDir,
		keyResolverKind,
		keySQLitePath,
		keyTableDir,
		keyRemoteURL,
		keyToken,
		keyBatchSize,
		keyBatchDelayMS,
	}
}

// Validate checks that the configured resolver can be built.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if len(settings.SourceIDs) == 0 {
		return fmt.Errorf("%w: no source ids configured", domain.ErrInvalidInput)
	}
	if !settings.Counting.IsValid() {
		return fmt.Errorf("%w: counting mode %q", domain.ErrInvalidInput, settings.Counting)
	}
	if !settings.Resolver.IsConfigured() {
		return fmt.Errorf(
			"resolver %q is not configured: %w",
			settings.Resolver.Kind.Description(), domain.ErrInvalidInput,
		)
	}

	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDelay(defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(keyBatchDelayMS); !exists {
		return defaultVal
	}
	ms := s.configStore.GetInt(keyBatchDelayMS)
	if ms < 0 {
		return defaultVal
	}
	return time.Duration(ms) * time.Millisecond
}

func (s *SettingsService) getCounting(defaultVal domain.CountingMode) domain.CountingMode {
	mode := domain.CountingMode(s.configStore.GetString(keyCounting))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getResolverKind(defaultVal domain.ResolverKind) domain.ResolverKind {
	kind := domain.ResolverKind(s.configStore.GetString(keyResolverKind))
	if !kind.IsValid() {
		return defaultVal
	}
	return kind
}

// defaultSQLitePath places the mapping database next to the config file.
func (s *SettingsService) defaultSQLitePath() string {
	path := s.configStore.Path()
	if !filepath.IsAbs(path) {
		return ""
	}
	return filepath.Join(filepath.Dir(path), "data", defaultMappingDB)
}

func parseSourceIDs(value string) ([]int64, error) {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: at least one source id is required", domain.ErrInvalidInput)
	}

	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: source id %q is not an integer", domain.ErrInvalidInput, f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

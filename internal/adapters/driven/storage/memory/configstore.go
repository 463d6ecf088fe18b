package memory

import (
	"maps"
	"strconv"
	"sync"

	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a map. Nothing touches the disk, so Path
// reports ":memory:" and the settings service derives no default paths.
type ConfigStore struct {
	mu     sync.RWMutex
	seed   map[string]any
	values map[string]any
}

// NewConfigStore creates an empty in-memory config store.
func NewConfigStore() *ConfigStore {
	return NewConfigStoreWith(nil)
}

// NewConfigStoreWith creates a store pre-populated with values, as if they
// had been loaded from a file. Load restores them.
func NewConfigStoreWith(values map[string]any) *ConfigStore {
	s := &ConfigStore{seed: maps.Clone(values)}
	if s.seed == nil {
		s.seed = make(map[string]any)
	}
	s.values = maps.Clone(s.seed)
	return s
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	n, _ := asInt64(val)
	return int(n)
}

// GetInt64Slice retrieves an integer array configuration value. Elements
// that are neither integers nor numeric strings are skipped.
func (s *ConfigStore) GetInt64Slice(key string) []int64 {
	val, ok := s.Get(key)
	if !ok {
		return nil
	}
	switch v := val.(type) {
	case []int64:
		return append([]int64(nil), v...)
	case []any:
		result := make([]int64, 0, len(v))
		for _, item := range v {
			if n, ok := asInt64(item); ok {
				result = append(result, n)
			}
		}
		return result
	default:
		return nil
	}
}

func asInt64(val any) (int64, bool) {
	switch n := val.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

// Set stores a configuration value.
func (s *ConfigStore) Set(key string, value any) error {
	if ids, ok := value.([]int64); ok {
		value = append([]int64(nil), ids...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Save makes the current values the ones Load restores.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed = maps.Clone(s.values)
	return nil
}

// Load restores the values last saved or seeded.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = maps.Clone(s.seed)
	return nil
}

// Path returns ":memory:".
func (s *ConfigStore) Path() string {
	return ":memory:"
}

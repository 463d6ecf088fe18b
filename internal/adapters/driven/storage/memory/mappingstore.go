package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
)

// Ensure MappingStore implements the interface.
var _ driven.MappingStore = (*MappingStore)(nil)

// MappingStore is an in-memory implementation of driven.MappingStore for testing.
// Lookups can be counted and made to fail to exercise error paths.
type MappingStore struct {
	mu       sync.RWMutex
	mappings map[domain.IDKind]map[string]string
	lookups  map[domain.IDKind]int
	failWith error
}

// NewMappingStore creates a new in-memory mapping store.
func NewMappingStore() *MappingStore {
	return &MappingStore{
		mappings: map[domain.IDKind]map[string]string{
			domain.IDKindManga:   {},
			domain.IDKindChapter: {},
		},
		lookups: make(map[domain.IDKind]int),
	}
}

// Add stores a single mapping keyed by its textual legacy id.
func (s *MappingStore) Add(kind domain.IDKind, legacyID, newID string) *MappingStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[kind][legacyID] = newID
	return s
}

// FailWith makes every subsequent lookup return err.
func (s *MappingStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// Lookups returns how many lookups of a kind were made.
func (s *MappingStore) Lookups(kind domain.IDKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookups[kind]
}

// ResolveMangaID returns the new id for a legacy manga id.
func (s *MappingStore) ResolveMangaID(ctx context.Context, legacyID string) (string, bool, error) {
	return s.resolve(ctx, domain.IDKindManga, legacyID)
}

// ResolveChapterID returns the new id for a legacy chapter id.
func (s *MappingStore) ResolveChapterID(ctx context.Context, legacyID string) (string, bool, error) {
	return s.resolve(ctx, domain.IDKindChapter, legacyID)
}

func (s *MappingStore) resolve(_ context.Context, kind domain.IDKind, legacyID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lookups[kind]++
	if s.failWith != nil {
		return "", false, domain.NewResolutionError(kind, s.failWith)
	}
	newID, ok := s.mappings[kind][legacyID]
	return newID, ok, nil
}

// Put upserts mappings of one kind.
func (s *MappingStore) Put(_ context.Context, kind domain.IDKind, mappings []domain.IDMapping) (int, error) {
	if !kind.IsValid() {
		return 0, fmt.Errorf("%w: id kind %q", domain.ErrInvalidInput, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range mappings {
		s.mappings[kind][strconv.FormatInt(m.LegacyID, 10)] = m.NewID
	}
	return len(mappings), nil
}

// Count returns the number of mappings stored for a kind.
func (s *MappingStore) Count(_ context.Context, kind domain.IDKind) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mappings[kind]), nil
}

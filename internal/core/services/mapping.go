package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driving"
	"github.com/custodia-labs/dexmigrate/internal/logger"
)

// Ensure MappingService implements the interface.
var _ driving.MappingService = (*MappingService)(nil)

// importChunkSize bounds how many rows are written per store call.
const importChunkSize = 1000

// MappingService imports and queries legacy id mappings.
type MappingService struct {
	store    driven.MappingStore
	resolver driven.IdentifierResolver
}

// NewMappingService creates a mapping service. Lookups go through resolver
// when set, otherwise through store. store may be nil for lookup-only use.
func NewMappingService(store driven.MappingStore, resolver driven.IdentifierResolver) *MappingService {
	if resolver == nil && store != nil {
		resolver = store
	}
	return &MappingService{store: store, resolver: resolver}
}

// Import reads legacy_id,new_id rows from r and upserts them into the store.
// A header row is skipped when its first column is not numeric.
func (s *MappingService) Import(ctx context.Context, kind domain.IDKind, r io.Reader) (int, error) {
	if s.store == nil {
		return 0, errors.New("mapping store not configured")
	}
	if !kind.IsValid() {
		return 0, fmt.Errorf("%w: id kind %q", domain.ErrInvalidInput, kind)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	total := 0
	chunk := make([]domain.IDMapping, 0, importChunkSize)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		n, err := s.store.Put(ctx, kind, chunk)
		if err != nil {
			return fmt.Errorf("store %s mappings: %w", kind, err)
		}
		total += n
		chunk = chunk[:0]
		return nil
	}

	line := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, fmt.Errorf("%w: read csv: %v", domain.ErrInvalidInput, err)
		}
		line++

		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) < 2 {
			return total, fmt.Errorf("%w: line %d: want legacy_id,new_id", domain.ErrInvalidInput, line)
		}

		legacyID, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return total, fmt.Errorf("%w: line %d: legacy id %q is not an integer", domain.ErrInvalidInput, line, row[0])
		}
		newID := strings.TrimSpace(row[1])
		if newID == "" {
			return total, fmt.Errorf("%w: line %d: empty new id", domain.ErrInvalidInput, line)
		}

		chunk = append(chunk, domain.IDMapping{LegacyID: legacyID, NewID: newID})
		if len(chunk) == importChunkSize {
			if err := flush(); err != nil {
				return total, err
			}
			if err := ctx.Err(); err != nil {
				return total, err
			}
		}
	}

	if err := flush(); err != nil {
		return total, err
	}

	logger.Info("Imported %d %s mappings", total, kind)
	return total, nil
}

// Lookup resolves a single legacy id.
func (s *MappingService) Lookup(ctx context.Context, kind domain.IDKind, legacyID string) (string, bool, error) {
	if s.resolver == nil {
		return "", false, errors.New("identifier resolver not configured")
	}

	switch kind {
	case domain.IDKindManga:
		return s.resolver.ResolveMangaID(ctx, legacyID)
	case domain.IDKindChapter:
		return s.resolver.ResolveChapterID(ctx, legacyID)
	default:
		return "", false, fmt.Errorf("%w: id kind %q", domain.ErrInvalidInput, kind)
	}
}

// Counts returns the number of stored mappings per kind.
func (s *MappingService) Counts(ctx context.Context) (map[domain.IDKind]int, error) {
	if s.store == nil {
		return nil, errors.New("mapping store not configured")
	}

	counts := make(map[domain.IDKind]int, 2)
	for _, kind := range []domain.IDKind{domain.IDKindManga, domain.IDKindChapter} {
		n, err := s.store.Count(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("count %s mappings: %w", kind, err)
		}
		counts[kind] = n
	}
	return counts, nil
}

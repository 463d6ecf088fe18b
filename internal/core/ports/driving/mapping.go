package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
)

// MappingService manages the local identifier mapping tables.
type MappingService interface {
	// Import loads "legacy_id,new_id" CSV rows of one kind and returns how many were stored.
	Import(ctx context.Context, kind domain.IDKind, r io.Reader) (int, error)

	// Lookup resolves one legacy id with the configured resolver.
	Lookup(ctx context.Context, kind domain.IDKind, legacyID string) (string, bool, error)

	// Counts returns the number of stored mappings per kind.
	Counts(ctx context.Context) (map[domain.IDKind]int, error)
}

package driven

import (
	"context"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
)

// IdentifierResolver maps legacy numeric ids to new ids.
//
// A miss is not an error: ok is false and err is nil. A failure of the lookup
// itself (transport, storage) is returned as a *domain.ResolutionError and
// aborts the whole migration run.
type IdentifierResolver interface {
	// ResolveMangaID returns the new id for a legacy manga id.
	ResolveMangaID(ctx context.Context, legacyID string) (newID string, ok bool, err error)

	// ResolveChapterID returns the new id for a legacy chapter id.
	ResolveChapterID(ctx context.Context, legacyID string) (newID string, ok bool, err error)
}

// BatchProgressFunc receives the fraction of batches completed, in [0, 1].
type BatchProgressFunc func(done float64)

// BatchResolver is implemented by resolvers that must be queried in bulk.
// The migration service collects every legacy id up front and resolves them
// with ResolveBatch before the rewrite pass.
type BatchResolver interface {
	IdentifierResolver

	// ResolveBatch resolves ids of one kind. The result only contains hits.
	// Any failed batch fails the whole call.
	ResolveBatch(
		ctx context.Context, kind domain.IDKind, legacyIDs []string, onProgress BatchProgressFunc,
	) (map[string]string, error)
}

// MappingStore is writable mapping storage.
type MappingStore interface {
	IdentifierResolver

	// Put upserts mappings of one kind and returns how many rows were written.
	Put(ctx context.Context, kind domain.IDKind, mappings []domain.IDMapping) (int, error)

	// Count returns the number of mappings stored for a kind.
	Count(ctx context.Context, kind domain.IDKind) (int, error)
}

// Package resolver builds the configured identifier resolver.
package resolver

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/dexmigrate/internal/adapters/driven/resolver/remote"
	"github.com/custodia-labs/dexmigrate/internal/adapters/driven/resolver/table"
	"github.com/custodia-labs/dexmigrate/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
	"github.com/custodia-labs/dexmigrate/internal/logger"
)

// Handle owns an opened resolver and whatever backs it.
type Handle struct {
	// Resolver answers id lookups.
	Resolver driven.IdentifierResolver

	// Store is the writable mapping store, set only for the sqlite kind.
	Store driven.MappingStore

	closers []func() error
}

// Close releases the resources behind the resolver.
func (h *Handle) Close() error {
	var errs []error
	for _, c := range h.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Open builds the resolver described by settings.
func Open(settings domain.ResolverSettings) (*Handle, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: resolver %q is not configured", domain.ErrInvalidInput, settings.Kind)
	}

	switch settings.Kind {
	case domain.ResolverSQLite:
		store, err := sqlite.NewStore(settings.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open mapping database: %w", err)
		}
		ms := store.MappingStore()
		return &Handle{Resolver: ms, Store: ms, closers: []func() error{store.Close}}, nil

	case domain.ResolverTable:
		r, err := table.Open(settings.TableDir)
		if err != nil {
			return nil, fmt.Errorf("load lookup tables: %w", err)
		}
		return &Handle{Resolver: r}, nil

	case domain.ResolverRemote:
		r := remote.NewResolver(remote.Config{
			URL:        settings.RemoteURL,
			Token:      settings.Token,
			BatchSize:  settings.BatchSize,
			BatchDelay: settings.BatchDelay,
		})
		return &Handle{Resolver: r}, nil

	default:
		return nil, fmt.Errorf("%w: resolver kind %q", domain.ErrInvalidInput, settings.Kind)
	}
}

// OpenWithStore is like Open but always opens the sqlite mapping store,
// which mapping imports write to. If the configured resolver cannot be
// opened, lookups fall back to the store.
func OpenWithStore(settings domain.ResolverSettings) (*Handle, error) {
	if settings.Kind == domain.ResolverSQLite {
		return Open(settings)
	}

	store, err := sqlite.NewStore(settings.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open mapping database: %w", err)
	}
	ms := store.MappingStore()

	h, err := Open(settings)
	if err != nil {
		logger.Warn("Resolver %s unavailable, using the mapping database: %v", settings.Kind, err)
		return &Handle{Resolver: ms, Store: ms, closers: []func() error{store.Close}}, nil
	}
	h.Store = ms
	h.closers = append(h.closers, store.Close)
	return h, nil
}

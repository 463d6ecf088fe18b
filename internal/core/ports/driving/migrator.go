package driving

import (
	"context"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
)

// Migrator runs backup migrations.
type Migrator interface {
	// Migrate decodes the request input, rewrites migratable entries and
	// encodes the result. On any error no output is returned.
	Migrate(ctx context.Context, req domain.MigrationRequest, progress ProgressReporter) (*domain.MigrationResult, error)

	// Status returns the state of the current run.
	Status() MigrationStatus
}

// MigrationStatus is a snapshot of the current run.
type MigrationStatus struct {
	// Phase is the run phase; PhaseIdle when nothing is running.
	Phase domain.Phase

	// Current is the last entry title processed.
	Current string

	// Processed is the running count of counted entries.
	Processed int

	// Total is the number of entries that will be counted.
	Total int
}

// ProgressReporter receives phase transitions and per-entry progress.
// It is implemented by the host; core only consumes it.
type ProgressReporter interface {
	Report(event domain.ProgressEvent)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(event domain.ProgressEvent)

// Report calls f(event).
func (f ProgressFunc) Report(event domain.ProgressEvent) {
	f(event)
}

// NopProgress discards all events.
var NopProgress ProgressReporter = ProgressFunc(func(domain.ProgressEvent) {})

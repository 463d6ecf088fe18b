// Package messages defines Bubbletea message types for the progress view.
package messages

import (
	"github.com/custodia-labs/dexmigrate/internal/core/domain"
)

// Progress carries one progress event from the migration run.
type Progress struct {
	Event domain.ProgressEvent
}

// Finished is sent once when the migration run returns.
type Finished struct {
	Result *domain.MigrationResult
	Err    error
}

package driving

import "github.com/custodia-labs/dexmigrate/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current migration settings.
	Get() (*domain.MigrationSettings, error)

	// Save persists migration settings.
	Save(settings *domain.MigrationSettings) error

	// Set updates a single setting from its textual form, e.g. ("migrate.counting", "all").
	Set(key, value string) error

	// Keys lists the settable keys.
	Keys() []string

	// Validate checks if current settings are usable.
	Validate() error
}

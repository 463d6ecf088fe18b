package tui

import "errors"

// ErrNoMigration is returned when Run is called without a migration.
var ErrNoMigration = errors.New("tui: migration func is required")

// ErrViewClosed is returned when the view exits before the run finished.
var ErrViewClosed = errors.New("tui: progress view closed before the migration finished")

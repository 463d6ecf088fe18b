// Package domain defines the core business entities for dexmigrate.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A decoded library backup in its normalised shape
//   - Entry: One library item (manga) with its chapters and history
//   - MigrationReport: Per-class outcome of a migration run
//   - MigrationSettings: Host configuration for a run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

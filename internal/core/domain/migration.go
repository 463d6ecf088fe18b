package domain

import "io"

// IDKind distinguishes the two identifier namespaces the resolver translates.
type IDKind string

// Identifier kinds.
const (
	// IDKindManga is the primary-entity namespace.
	IDKindManga IDKind = "manga"

	// IDKindChapter is the child-entity namespace.
	IDKindChapter IDKind = "chapter"
)

// IsValid returns true if the kind is recognised.
func (k IDKind) IsValid() bool {
	return k == IDKindManga || k == IDKindChapter
}

// String returns the string representation.
func (k IDKind) String() string {
	return string(k)
}

// IDMapping is one legacy-to-new identifier pair.
type IDMapping struct {
	LegacyID int64
	NewID    string
}

// Outcome classifies a counted entry. Classes are mutually exclusive.
type Outcome string

// Migration outcomes.
const (
	OutcomeAlreadyMigrated  Outcome = "already-migrated"
	OutcomeMissingMangaID   Outcome = "missing-manga-id"
	OutcomeMissingChapterID Outcome = "missing-chapter-id"
	OutcomeMigrated         Outcome = "migrated"
)

// CountingMode selects which filtered entries are tallied in the report.
type CountingMode string

// Counting modes.
const (
	// CountAll tallies every filtered entry.
	CountAll CountingMode = "all"

	// CountFavorites tallies only favorited entries. Unfavorited entries are
	// still migrated, just not reported.
	CountFavorites CountingMode = "favorites"
)

// IsValid returns true if the counting mode is recognised.
func (m CountingMode) IsValid() bool {
	return m == CountAll || m == CountFavorites
}

// Counts reports whether an entry with the given favorite flag is tallied.
func (m CountingMode) Counts(favorite bool) bool {
	return m == CountAll || favorite
}

// String returns the string representation.
func (m CountingMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m CountingMode) Description() string {
	switch m {
	case CountAll:
		return "All filtered entries"
	case CountFavorites:
		return "Favorited entries only"
	default:
		return "Unknown"
	}
}

// Phase is a state of the migration run state machine:
// Idle -> Preparing -> Processing -> Finishing -> Idle.
type Phase string

// Run phases.
const (
	PhaseIdle       Phase = "idle"
	PhasePreparing  Phase = "preparing"
	PhaseProcessing Phase = "processing"
	PhaseFinishing  Phase = "finishing"
)

// String returns the string representation.
func (p Phase) String() string {
	return string(p)
}

// ProgressEvent is emitted to the host on phase transitions and after every
// counted entry.
type ProgressEvent struct {
	// Phase is the current run phase.
	Phase Phase

	// Title is the entry just classified (Processing only).
	Title string

	// Outcome is the classification of Title (Processing only).
	Outcome Outcome

	// Processed is the running count of counted entries.
	Processed int

	// Total is the number of entries that will be counted.
	Total int

	// Message is a free-form status line, e.g. batch resolution progress.
	Message string
}

// MigrationReport is the outcome of a migration run.
type MigrationReport struct {
	// Counting is the mode the totals were computed with.
	Counting CountingMode

	// TotalFiltered is the number of counted entries in the filter set.
	TotalFiltered int

	// AlreadyMigrated lists titles whose URL was already in the new form.
	AlreadyMigrated []string

	// MissingMangaID lists titles the resolver had no manga id for.
	MissingMangaID []string

	// MissingChapterID lists "title (chapter)" for entries aborted by a chapter miss.
	MissingChapterID []string

	// Migrated lists titles that were rewritten.
	Migrated []string
}

// TotalMigrated is TotalFiltered minus every non-migrated class.
func (r *MigrationReport) TotalMigrated() int {
	return r.TotalFiltered - len(r.AlreadyMigrated) - len(r.MissingMangaID) - len(r.MissingChapterID)
}

// Record appends a title to the list for its outcome.
func (r *MigrationReport) Record(outcome Outcome, title string) {
	switch outcome {
	case OutcomeAlreadyMigrated:
		r.AlreadyMigrated = append(r.AlreadyMigrated, title)
	case OutcomeMissingMangaID:
		r.MissingMangaID = append(r.MissingMangaID, title)
	case OutcomeMissingChapterID:
		r.MissingChapterID = append(r.MissingChapterID, title)
	case OutcomeMigrated:
		r.Migrated = append(r.Migrated, title)
	}
}

// MigrationRequest is one migration run requested by the host.
type MigrationRequest struct {
	// FileName is the original input file name; it selects the format and
	// derives the output name.
	FileName string

	// Input is the backup content.
	Input io.Reader

	// Filter overrides the configured source filter when non-nil.
	Filter SourceFilter

	// Counting overrides the configured counting mode when set.
	Counting CountingMode
}

// MigrationResult is the output of a successful migration run.
type MigrationResult struct {
	// FileName is the derived output file name.
	FileName string

	// Format is the wire format of Output (same as the input).
	Format Format

	// Output is the rewritten backup content.
	Output []byte

	// Report holds the outcome counts and title lists.
	Report MigrationReport
}

// MimeType returns the MIME type of the output.
func (r *MigrationResult) MimeType() string {
	return r.Format.MimeType()
}

package domain

import "time"

const unknownDescription = "Unknown"

// Default resolver batching values.
const (
	DefaultBatchSize  = 1000
	DefaultBatchDelay = 200 * time.Millisecond
	DefaultRemoteURL  = "https://api.mangadex.org/legacy/mapping"
)

// ResolverKind selects the identifier lookup backend.
type ResolverKind string

// Available resolver backends.
const (
	// ResolverSQLite looks ids up in a local SQLite mapping database.
	ResolverSQLite ResolverKind = "sqlite"

	// ResolverTable binary-searches sorted CSV tables on disk.
	ResolverTable ResolverKind = "table"

	// ResolverRemote queries the batched legacy mapping API.
	ResolverRemote ResolverKind = "remote"
)

// IsValid returns true if the resolver kind is recognised.
func (k ResolverKind) IsValid() bool {
	switch k {
	case ResolverSQLite, ResolverTable, ResolverRemote:
		return true
	default:
		return false
	}
}

// IsBatched returns true if the backend resolves ids in remote batches.
func (k ResolverKind) IsBatched() bool {
	return k == ResolverRemote
}

// String returns the string representation.
func (k ResolverKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the backend.
func (k ResolverKind) Description() string {
	switch k {
	case ResolverSQLite:
		return "SQLite mapping database (local)"
	case ResolverTable:
		return "Sorted CSV tables (local)"
	case ResolverRemote:
		return "Legacy mapping API (remote, batched)"
	default:
		return unknownDescription
	}
}

// AllResolverKinds returns every resolver backend.
func AllResolverKinds() []ResolverKind {
	return []ResolverKind{ResolverSQLite, ResolverTable, ResolverRemote}
}

// ResolverSettings configures the identifier lookup backend.
type ResolverSettings struct {
	// Kind is the backend.
	Kind ResolverKind

	// SQLitePath is the mapping database file (sqlite).
	SQLitePath string

	// TableDir holds manga.csv and chapter.csv (table).
	TableDir string

	// RemoteURL is the mapping endpoint (remote).
	RemoteURL string

	// Token is an optional bearer token for the mapping endpoint.
	Token string

	// BatchSize is the maximum number of ids per remote request.
	BatchSize int

	// BatchDelay is the pause between remote requests.
	BatchDelay time.Duration
}

// IsConfigured returns true if the selected backend has what it needs.
func (r ResolverSettings) IsConfigured() bool {
	switch r.Kind {
	case ResolverSQLite:
		return r.SQLitePath != ""
	case ResolverTable:
		return r.TableDir != ""
	case ResolverRemote:
		return r.RemoteURL != "" && r.BatchSize > 0
	default:
		return false
	}
}

// MigrationSettings holds the host configuration for migration runs.
type MigrationSettings struct {
	// SourceIDs is the filter set of migratable sources.
	SourceIDs []int64

	// Counting selects which entries are tallied.
	Counting CountingMode

	// OutputDir is where migrated backups are written. Empty means next to the input.
	OutputDir string

	// Resolver configures the identifier lookup.
	Resolver ResolverSettings
}

// Filter returns the source filter built from SourceIDs.
func (s MigrationSettings) Filter() SourceFilter {
	return NewSourceFilter(s.SourceIDs...)
}

// DefaultMigrationSettings returns settings with sensible defaults.
// Paths that depend on the user's home directory are filled in by the host.
func DefaultMigrationSettings() MigrationSettings {
	return MigrationSettings{
		SourceIDs: DefaultSourceIDs(),
		Counting:  CountFavorites,
		Resolver: ResolverSettings{
			Kind:       ResolverSQLite,
			RemoteURL:  DefaultRemoteURL,
			BatchSize:  DefaultBatchSize,
			BatchDelay: DefaultBatchDelay,
		},
	}
}

// DefaultSourceIDs returns the MangaDex source ids, one per language.
func DefaultSourceIDs() []int64 {
	return []int64{
		2499283573021220255, // en
		1145824452519314725, // sv
		1347402746269051958, // my
		1411768577036936240, // ja
		1424273154577029558, // he
		1471784905273036181, // ms
		1493666528525752601, // zh-Hant
		1713554459881080228, // th
		1952071260038453057, // it
		2098905203823335614, // ru
		2655149515337070132, // pt-BR
		3260701926561129943, // el
		3285208643537017688, // ko
		3339599426223341161, // ar
		3578612018159256808, // cs
		3781216447842245147, // fa
		3807502156582598786, // id
		3846770256925560569, // tr
		4150470519566206911, // bn
		425785191804166217,  // da
		4284949320785450865, // hu
		4505830566611664829, // fr
		4710920497926776490, // sh
		4774459486579224459, // ro
		4872213291993424667, // no
		4938773340256184018, // es-419
		5098537545549490547, // de
		5148895169070562838, // zh-Hans
		5189216366882819742, // pt
		5463447640980279236, // bg
		5779037855201976894, // uk
		5860541308324630662, // ca
		5967745367608513818, // mn
		6400665728063187402, // es
		6750440049024086587, // nl
		6840513937945146538, // hi
		737986167355114438,  // lt
		8033579885162383068, // pl
		8254121249433835847, // fi
		8578871918181236609, // fil
		9194073792736219759, // vi
	}
}

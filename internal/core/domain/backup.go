package domain

import "slices"

// Document is a decoded library backup.
//
// Codecs fold every legacy side-channel collection (broken sources, broken
// history) into the canonical lists at decode time, so services only ever
// see this one shape.
type Document struct {
	// Format is the wire format the document was decoded from.
	Format Format

	// Version is the declared schema version (JSON backups only).
	Version int

	// Sources is the source-name table, including folded broken sources.
	Sources []Source

	// Entries holds the library items in original order.
	Entries []Entry

	// Envelope is the undecoded top-level payload. Codecs use it to re-emit
	// fields the migrator does not model. Nil for documents built in memory.
	Envelope []byte
}

// Source maps a source identifier to its display name.
type Source struct {
	ID   int64
	Name string
}

// Entry is one library item ("manga record").
type Entry struct {
	// SourceID identifies the content provider the item came from.
	SourceID int64

	// Favorite reports whether the item is in the user's library.
	Favorite bool

	// Title is the display name, used only for reporting.
	Title string

	// URL is the slash-delimited item path.
	URL string

	// Chapters are the child records, in order.
	Chapters []Chapter

	// History holds last-read records, canonical first then folded broken ones.
	History []History

	// Raw is the entry as it appeared on the wire. Codecs re-emit it verbatim
	// for every slot the migrator did not change.
	Raw []byte
}

// Chapter is a child record of an Entry.
type Chapter struct {
	URL  string
	Name string
}

// History is a last-read record of an Entry. LastRead is never altered.
type History struct {
	URL      string
	LastRead int64
}

// Clone returns a copy of the entry whose chapter and history slices can be
// mutated without affecting the receiver. Raw is shared; it is never written.
func (e Entry) Clone() Entry {
	e.Chapters = slices.Clone(e.Chapters)
	e.History = slices.Clone(e.History)
	return e
}

// SourceName returns the display name for a source id, if the document knows it.
func (d *Document) SourceName(id int64) (string, bool) {
	for _, s := range d.Sources {
		if s.ID == id {
			return s.Name, true
		}
	}
	return "", false
}

// SourceFilter is the set of source identifiers eligible for migration.
type SourceFilter map[int64]struct{}

// NewSourceFilter builds a filter from a list of source ids.
func NewSourceFilter(ids ...int64) SourceFilter {
	f := make(SourceFilter, len(ids))
	for _, id := range ids {
		f[id] = struct{}{}
	}
	return f
}

// Contains reports whether id is in the filter set.
func (f SourceFilter) Contains(id int64) bool {
	_, ok := f[id]
	return ok
}

// IDs returns the filter members in ascending order.
func (f SourceFilter) IDs() []int64 {
	ids := make([]int64, 0, len(f))
	for id := range f {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

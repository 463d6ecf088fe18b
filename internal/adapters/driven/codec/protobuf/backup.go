package protobuf

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
)

// Backup message field numbers.
const (
	backupManga         protowire.Number = 1
	backupBrokenSources protowire.Number = 100
	backupSources       protowire.Number = 101
)

// BackupManga field numbers.
const (
	mangaSource        protowire.Number = 1
	mangaURL           protowire.Number = 2
	mangaTitle         protowire.Number = 3
	mangaChapters      protowire.Number = 16
	mangaFavorite      protowire.Number = 100
	mangaBrokenHistory protowire.Number = 102
	mangaHistory       protowire.Number = 104
)

// Child message field numbers.
const (
	chapterURL  protowire.Number = 1
	chapterName protowire.Number = 2

	historyURL      protowire.Number = 1
	historyLastRead protowire.Number = 2

	brokenHistoryURL      protowire.Number = 0
	brokenHistoryLastRead protowire.Number = 1

	sourceName protowire.Number = 1
	sourceID   protowire.Number = 2

	brokenSourceName protowire.Number = 0
	brokenSourceID   protowire.Number = 1
)

// decodedEntry is an entry plus the layout details needed to patch it.
type decodedEntry struct {
	domain.Entry
	canonicalHistory int
}

func decodeBackup(payload []byte) (*domain.Document, error) {
	fields, err := parseFields(payload)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{Format: domain.FormatProto, Envelope: payload}
	var broken []domain.Source
	for _, f := range fields {
		if f.typ != protowire.BytesType {
			continue
		}
		switch f.num {
		case backupManga:
			entry, err := decodeEntry(f.bytes)
			if err != nil {
				return nil, fmt.Errorf("manga %d: %w", len(doc.Entries), err)
			}
			doc.Entries = append(doc.Entries, entry.Entry)
		case backupSources:
			src, err := decodeSource(f.bytes, sourceName, sourceID)
			if err != nil {
				return nil, fmt.Errorf("source: %w", err)
			}
			doc.Sources = append(doc.Sources, src)
		case backupBrokenSources:
			src, err := decodeSource(f.bytes, brokenSourceName, brokenSourceID)
			if err != nil {
				return nil, fmt.Errorf("broken source: %w", err)
			}
			broken = append(broken, src)
		}
	}

	// Broken sources only fill gaps in the canonical table.
	for _, src := range broken {
		if _, known := doc.SourceName(src.ID); !known {
			doc.Sources = append(doc.Sources, src)
		}
	}
	return doc, nil
}

func decodeEntry(msg []byte) (decodedEntry, error) {
	fields, err := parseFields(msg)
	if err != nil {
		return decodedEntry{}, err
	}

	e := decodedEntry{Entry: domain.Entry{Favorite: true, Raw: msg}}
	var broken []domain.History
	for _, f := range fields {
		switch {
		case f.num == mangaSource && f.typ == protowire.VarintType:
			e.SourceID = int64(f.varint)
		case f.num == mangaURL && f.typ == protowire.BytesType:
			e.URL = string(f.bytes)
		case f.num == mangaTitle && f.typ == protowire.BytesType:
			e.Title = string(f.bytes)
		case f.num == mangaFavorite && f.typ == protowire.VarintType:
			e.Favorite = f.varint != 0
		case f.num == mangaChapters && f.typ == protowire.BytesType:
			c, err := decodeChapter(f.bytes)
			if err != nil {
				return decodedEntry{}, fmt.Errorf("chapter: %w", err)
			}
			e.Chapters = append(e.Chapters, c)
		case f.num == mangaHistory && f.typ == protowire.BytesType:
			h, err := decodeHistory(f.bytes, historyURL, historyLastRead)
			if err != nil {
				return decodedEntry{}, fmt.Errorf("history: %w", err)
			}
			e.History = append(e.History, h)
		case f.num == mangaBrokenHistory && f.typ == protowire.BytesType:
			h, err := decodeHistory(f.bytes, brokenHistoryURL, brokenHistoryLastRead)
			if err != nil {
				return decodedEntry{}, fmt.Errorf("broken history: %w", err)
			}
			broken = append(broken, h)
		}
	}

	e.canonicalHistory = len(e.History)
	e.History = append(e.History, broken...)
	return e, nil
}

func decodeChapter(msg []byte) (domain.Chapter, error) {
	fields, err := parseFields(msg)
	if err != nil {
		return domain.Chapter{}, err
	}
	var c domain.Chapter
	for _, f := range fields {
		if f.typ != protowire.BytesType {
			continue
		}
		switch f.num {
		case chapterURL:
			c.URL = string(f.bytes)
		case chapterName:
			c.Name = string(f.bytes)
		}
	}
	return c, nil
}

func decodeHistory(msg []byte, urlNum, lastReadNum protowire.Number) (domain.History, error) {
	fields, err := parseFields(msg)
	if err != nil {
		return domain.History{}, err
	}
	var h domain.History
	for _, f := range fields {
		switch {
		case f.num == urlNum && f.typ == protowire.BytesType:
			h.URL = string(f.bytes)
		case f.num == lastReadNum && f.typ == protowire.VarintType:
			h.LastRead = int64(f.varint)
		}
	}
	return h, nil
}

func decodeSource(msg []byte, nameNum, idNum protowire.Number) (domain.Source, error) {
	fields, err := parseFields(msg)
	if err != nil {
		return domain.Source{}, err
	}
	var s domain.Source
	for _, f := range fields {
		switch {
		case f.num == nameNum && f.typ == protowire.BytesType:
			s.Name = string(f.bytes)
		case f.num == idNum && f.typ == protowire.VarintType:
			s.ID = int64(f.varint)
		}
	}
	return s, nil
}

// encodeBackup serializes doc. When the document carries its original
// envelope, every top-level field other than the manga list is re-emitted
// verbatim and the manga list is written where it first appeared.
func encodeBackup(doc *domain.Document) ([]byte, error) {
	if doc.Envelope == nil {
		return encodeFreshBackup(doc)
	}

	fields, err := parseFields(doc.Envelope)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(doc.Envelope))
	written := false
	for _, f := range fields {
		if f.num != backupManga || f.typ != protowire.BytesType {
			out = append(out, f.raw...)
			continue
		}
		if written {
			continue
		}
		if out, err = appendEntries(out, doc.Entries); err != nil {
			return nil, err
		}
		written = true
	}
	if !written {
		if out, err = appendEntries(out, doc.Entries); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func encodeFreshBackup(doc *domain.Document) ([]byte, error) {
	out, err := appendEntries(nil, doc.Entries)
	if err != nil {
		return nil, err
	}
	for _, s := range doc.Sources {
		var msg []byte
		msg = appendString(msg, sourceName, s.Name)
		msg = appendVarint(msg, sourceID, uint64(s.ID))
		out = appendMessage(out, backupSources, msg)
	}
	return out, nil
}

func appendEntries(out []byte, entries []domain.Entry) ([]byte, error) {
	for i := range entries {
		msg, err := encodeEntry(&entries[i])
		if err != nil {
			return nil, fmt.Errorf("manga %d: %w", i, err)
		}
		out = appendMessage(out, backupManga, msg)
	}
	return out, nil
}

// encodeEntry returns the wire form of e. Entries decoded from a backup are
// patched in place: only URL slots whose value changed are rewritten.
func encodeEntry(e *domain.Entry) ([]byte, error) {
	if e.Raw == nil {
		return encodeFreshEntry(e), nil
	}

	orig, err := decodeEntry(e.Raw)
	if err != nil {
		return nil, err
	}
	if !patchable(&orig, e) {
		return encodeFreshEntry(e), nil
	}

	fields, err := parseFields(e.Raw)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(e.Raw)+64)
	var chapter, history, broken int
	for _, f := range fields {
		if f.typ != protowire.BytesType {
			out = append(out, f.raw...)
			continue
		}

		switch f.num {
		case mangaURL:
			if e.URL != orig.URL {
				out = appendString(out, mangaURL, e.URL)
				continue
			}
		case mangaChapters:
			i := chapter
			chapter++
			if e.Chapters[i].URL != orig.Chapters[i].URL {
				msg, err := replaceString(f.bytes, chapterURL, e.Chapters[i].URL)
				if err != nil {
					return nil, fmt.Errorf("chapter %d: %w", i, err)
				}
				out = appendMessage(out, mangaChapters, msg)
				continue
			}
		case mangaHistory:
			i := history
			history++
			if e.History[i].URL != orig.History[i].URL {
				msg, err := replaceString(f.bytes, historyURL, e.History[i].URL)
				if err != nil {
					return nil, fmt.Errorf("history %d: %w", i, err)
				}
				out = appendMessage(out, mangaHistory, msg)
				continue
			}
		case mangaBrokenHistory:
			i := orig.canonicalHistory + broken
			broken++
			if e.History[i].URL != orig.History[i].URL {
				msg, err := replaceString(f.bytes, brokenHistoryURL, e.History[i].URL)
				if err != nil {
					return nil, fmt.Errorf("broken history %d: %w", i, err)
				}
				out = appendMessage(out, mangaBrokenHistory, msg)
				continue
			}
		}
		out = append(out, f.raw...)
	}
	return out, nil
}

// patchable reports whether e differs from its decoded original in URL
// values only, so the original bytes can be patched slot by slot.
func patchable(orig *decodedEntry, e *domain.Entry) bool {
	if orig.SourceID != e.SourceID || orig.Title != e.Title || orig.Favorite != e.Favorite {
		return false
	}
	if len(orig.Chapters) != len(e.Chapters) || len(orig.History) != len(e.History) {
		return false
	}
	for i := range e.Chapters {
		if orig.Chapters[i].Name != e.Chapters[i].Name {
			return false
		}
	}
	for i := range e.History {
		if orig.History[i].LastRead != e.History[i].LastRead {
			return false
		}
	}
	return true
}

func encodeFreshEntry(e *domain.Entry) []byte {
	var out []byte
	out = appendVarint(out, mangaSource, uint64(e.SourceID))
	out = appendString(out, mangaURL, e.URL)
	out = appendString(out, mangaTitle, e.Title)
	for _, c := range e.Chapters {
		var msg []byte
		msg = appendString(msg, chapterURL, c.URL)
		if c.Name != "" {
			msg = appendString(msg, chapterName, c.Name)
		}
		out = appendMessage(out, mangaChapters, msg)
	}
	if !e.Favorite {
		out = appendVarint(out, mangaFavorite, 0)
	}
	for _, h := range e.History {
		var msg []byte
		msg = appendString(msg, historyURL, h.URL)
		msg = appendVarint(msg, historyLastRead, uint64(h.LastRead))
		out = appendMessage(out, mangaHistory, msg)
	}
	return out
}

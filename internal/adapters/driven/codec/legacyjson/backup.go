package legacyjson

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
)

// Backup member names.
const (
	keyVersion    = "version"
	keyMangas     = "mangas"
	keyCategories = "categories"
	keyExtensions = "extensions"

	keyMangaData  = "manga"
	keyChapters   = "chapters"
	keyHistory    = "history"
	keyChapterURL = "u"
)

// Positions inside the "manga" data array: [url, title, source, viewer, chapterFlags].
const (
	dataURL = iota
	dataTitle
	dataSource
)

// defaultVersion applies when a backup omits the version member.
const defaultVersion = 1

// errNoMangaList is returned when entries must be written into a backup
// that has no manga list to hold them.
var errNoMangaList = errors.New("backup has no mangas list")

// layout locates the manga list inside a backup.
type layout struct {
	list    span
	entries []span
}

// entryLayout locates the URL values inside one manga object.
type entryLayout struct {
	url      span
	chapters []span
	history  []span
}

func decodeBackup(data []byte) (*domain.Document, error) {
	doc := &domain.Document{
		Format:   domain.FormatJSON,
		Version:  defaultVersion,
		Envelope: data,
	}

	s := newScanner(data)
	err := s.object(func(name string) error {
		switch name {
		case keyVersion:
			v, err := s.int64Value()
			if err != nil {
				return fmt.Errorf("version: %w", err)
			}
			doc.Version = int(v)
			return nil
		case keyMangas:
			return s.array(func(i int) error {
				raw, _, err := s.value()
				if err != nil {
					return err
				}
				entry, _, err := decodeEntry(raw)
				if err != nil {
					return fmt.Errorf("manga %d: %w", i, err)
				}
				doc.Entries = append(doc.Entries, entry)
				return nil
			})
		default:
			return s.skip()
		}
	})
	if err != nil {
		return nil, err
	}
	if err := s.finish(); err != nil {
		return nil, err
	}
	return doc, nil
}

// locateEntries finds the manga list and its elements in a backup.
func locateEntries(data []byte) (layout, error) {
	var l layout
	s := newScanner(data)
	err := s.object(func(name string) error {
		if name != keyMangas {
			return s.skip()
		}
		_, list, err := s.value()
		if err != nil {
			return err
		}
		l.list = list

		inner := newScanner(data[list.start:list.end])
		return inner.array(func(int) error {
			_, sp, err := inner.value()
			if err != nil {
				return err
			}
			l.entries = append(l.entries, span{start: list.start + sp.start, end: list.start + sp.end})
			return nil
		})
	})
	return l, err
}

// decodeEntry parses one manga object. Spans in the returned layout are
// relative to raw.
func decodeEntry(raw []byte) (domain.Entry, entryLayout, error) {
	// Legacy JSON backups only contain library items.
	e := domain.Entry{Favorite: true, Raw: raw}
	var l entryLayout

	s := newScanner(raw)
	err := s.object(func(name string) error {
		switch name {
		case keyMangaData:
			return s.array(func(i int) error {
				switch i {
				case dataURL:
					url, sp, err := s.stringValue()
					if err != nil {
						return fmt.Errorf("url: %w", err)
					}
					e.URL, l.url = url, sp
				case dataTitle:
					title, _, err := s.stringValue()
					if err != nil {
						return fmt.Errorf("title: %w", err)
					}
					e.Title = title
				case dataSource:
					source, err := s.int64Value()
					if err != nil {
						return fmt.Errorf("source: %w", err)
					}
					e.SourceID = source
				default:
					return s.skip()
				}
				return nil
			})
		case keyChapters:
			return s.array(func(i int) error {
				var (
					chapter domain.Chapter
					at      span
				)
				err := s.object(func(name string) error {
					if name != keyChapterURL {
						return s.skip()
					}
					url, sp, err := s.stringValue()
					if err != nil {
						return err
					}
					chapter.URL, at = url, sp
					return nil
				})
				if err != nil {
					return fmt.Errorf("chapter %d: %w", i, err)
				}
				e.Chapters = append(e.Chapters, chapter)
				l.chapters = append(l.chapters, at)
				return nil
			})
		case keyHistory:
			return s.array(func(i int) error {
				var (
					history domain.History
					at      span
				)
				err := s.array(func(j int) error {
					switch j {
					case 0:
						url, sp, err := s.stringValue()
						if err != nil {
							return err
						}
						history.URL, at = url, sp
					case 1:
						lastRead, err := s.int64Value()
						if err != nil {
							return err
						}
						history.LastRead = lastRead
					default:
						return s.skip()
					}
					return nil
				})
				if err != nil {
					return fmt.Errorf("history %d: %w", i, err)
				}
				e.History = append(e.History, history)
				l.history = append(l.history, at)
				return nil
			})
		default:
			return s.skip()
		}
	})
	if err != nil {
		return domain.Entry{}, entryLayout{}, err
	}
	return e, l, nil
}

// encodeBackup serializes doc, splicing changed entries into the original
// envelope when there is one.
func encodeBackup(doc *domain.Document) ([]byte, error) {
	if doc.Envelope == nil {
		return encodeFreshBackup(doc)
	}

	l, err := locateEntries(doc.Envelope)
	if err != nil {
		return nil, err
	}
	if !l.list.valid() {
		if len(doc.Entries) == 0 {
			return bytes.Clone(doc.Envelope), nil
		}
		return nil, errNoMangaList
	}

	// The entry list was reshaped: rewrite the whole array.
	if len(l.entries) != len(doc.Entries) {
		list, err := encodeEntryList(doc.Entries)
		if err != nil {
			return nil, err
		}
		return applyEdits(doc.Envelope, []edit{{at: l.list, text: list}}), nil
	}

	var edits []edit
	for i := range doc.Entries {
		text, changed, err := encodeEntry(&doc.Entries[i])
		if err != nil {
			return nil, fmt.Errorf("manga %d: %w", i, err)
		}
		if changed {
			edits = append(edits, edit{at: l.entries[i], text: text})
		}
	}
	return applyEdits(doc.Envelope, edits), nil
}

func encodeFreshBackup(doc *domain.Document) ([]byte, error) {
	list, err := encodeEntryList(doc.Entries)
	if err != nil {
		return nil, err
	}

	version := doc.Version
	if version == 0 {
		version = domain.SupportedJSONVersion
	}

	var buf bytes.Buffer
	buf.WriteString(`{"` + keyVersion + `":`)
	buf.WriteString(strconv.Itoa(version))
	buf.WriteString(`,"` + keyMangas + `":`)
	buf.Write(list)
	buf.WriteString(`,"` + keyCategories + `":[],"` + keyExtensions + `":[]}`)
	return buf.Bytes(), nil
}

func encodeEntryList(entries []domain.Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		text, _, err := encodeEntry(&entries[i])
		if err != nil {
			return nil, fmt.Errorf("manga %d: %w", i, err)
		}
		buf.Write(text)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// encodeEntry returns the JSON text of e and whether it differs from e.Raw.
func encodeEntry(e *domain.Entry) ([]byte, bool, error) {
	if e.Raw == nil {
		text, err := encodeFreshEntry(e)
		return text, true, err
	}

	orig, l, err := decodeEntry(e.Raw)
	if err != nil {
		return nil, false, err
	}
	edits, ok, err := urlEdits(&orig, &l, e)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		text, err := encodeFreshEntry(e)
		return text, true, err
	}
	if len(edits) == 0 {
		return e.Raw, false, nil
	}
	return applyEdits(e.Raw, edits), true, nil
}

// urlEdits computes the splices turning orig into e. ok is false when e
// differs in anything a splice cannot express.
func urlEdits(orig *domain.Entry, l *entryLayout, e *domain.Entry) ([]edit, bool, error) {
	if orig.SourceID != e.SourceID || orig.Title != e.Title {
		return nil, false, nil
	}
	if len(orig.Chapters) != len(e.Chapters) || len(orig.History) != len(e.History) {
		return nil, false, nil
	}

	var edits []edit
	add := func(at span, before, after string) (bool, error) {
		if before == after {
			return true, nil
		}
		if !at.valid() {
			return false, nil
		}
		text, err := quote(after)
		if err != nil {
			return false, err
		}
		edits = append(edits, edit{at: at, text: text})
		return true, nil
	}

	if ok, err := add(l.url, orig.URL, e.URL); !ok || err != nil {
		return nil, ok, err
	}
	for i := range e.Chapters {
		if ok, err := add(l.chapters[i], orig.Chapters[i].URL, e.Chapters[i].URL); !ok || err != nil {
			return nil, ok, err
		}
	}
	for i := range e.History {
		if orig.History[i].LastRead != e.History[i].LastRead {
			return nil, false, nil
		}
		if ok, err := add(l.history[i], orig.History[i].URL, e.History[i].URL); !ok || err != nil {
			return nil, ok, err
		}
	}
	return edits, true, nil
}

// encodeFreshEntry writes an entry with zeroed viewer and chapter flags.
func encodeFreshEntry(e *domain.Entry) ([]byte, error) {
	var buf bytes.Buffer
	writeString := func(s string) error {
		text, err := quote(s)
		if err != nil {
			return err
		}
		buf.Write(text)
		return nil
	}

	buf.WriteString(`{"` + keyMangaData + `":[`)
	if err := writeString(e.URL); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeString(e.Title); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	buf.WriteString(strconv.FormatInt(e.SourceID, 10))
	buf.WriteString(`,0,0]`)

	if len(e.Chapters) > 0 {
		buf.WriteString(`,"` + keyChapters + `":[`)
		for i, c := range e.Chapters {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(`{"` + keyChapterURL + `":`)
			if err := writeString(c.URL); err != nil {
				return nil, err
			}
			buf.WriteByte('}')
		}
		buf.WriteByte(']')
	}

	if len(e.History) > 0 {
		buf.WriteString(`,"` + keyHistory + `":[`)
		for i, h := range e.History {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('[')
			if err := writeString(h.URL); err != nil {
				return nil, err
			}
			buf.WriteByte(',')
			buf.WriteString(strconv.FormatInt(h.LastRead, 10))
			buf.WriteByte(']')
		}
		buf.WriteByte(']')
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

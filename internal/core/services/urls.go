package services

import (
	"strings"

	"github.com/google/uuid"
)

// URL shapes of the content source.
const (
	mangaURLPrefix     = "/manga/"
	chapterURLPrefix   = "/chapter/"
	legacyAPIURLPrefix = "/api/"

	// legacyMangaSegment is the path segment holding the manga id: /manga/<id>/<slug>.
	legacyMangaSegment = 2
)

// mangaIDSegment returns path segment 2 of an entry URL.
func mangaIDSegment(url string) (string, bool) {
	parts := strings.Split(url, "/")
	if len(parts) <= legacyMangaSegment || parts[legacyMangaSegment] == "" {
		return "", false
	}
	return parts[legacyMangaSegment], true
}

// isUUID reports whether s is a well-formed UUID in its canonical 36 character form.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// isMigratedChapterURL reports whether a chapter or history URL is already in the new form.
func isMigratedChapterURL(url string) bool {
	return strings.HasPrefix(url, chapterURLPrefix)
}

// legacyChapterID extracts the legacy id from an /api/... chapter URL.
// The id is the last non-empty path segment, so both /api/chapter/<id> and
// versioned /api/v1/chapter/<id> shapes resolve. Query strings are ignored.
func legacyChapterID(url string) (string, bool) {
	if !strings.HasPrefix(url, legacyAPIURLPrefix) {
		return "", false
	}
	rest := url[len(legacyAPIURLPrefix):]
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "", false
	}
	return rest[strings.LastIndexByte(rest, '/')+1:], true
}

func newMangaURL(newID string) string {
	return mangaURLPrefix + newID
}

func newChapterURL(newID string) string {
	return chapterURLPrefix + newID
}

// isNumericID reports whether id can be sent to an integer-keyed batch lookup.
func isNumericID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

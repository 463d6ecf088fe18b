// Package table resolves legacy ids from flat CSV lookup tables.
//
// Each id kind has its own file, manga.csv and chapter.csv, holding
// legacy_id,new_id rows sorted ascending by legacy id. Lookups are binary
// searches; a table that is not sorted is rejected at load time.
package table

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.IdentifierResolver = (*Resolver)(nil)

// FileName returns the table file name for an id kind.
func FileName(kind domain.IDKind) string {
	return string(kind) + ".csv"
}

// Table is one sorted legacy id column with its new ids.
type Table struct {
	legacy []int64
	newIDs []string
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.legacy)
}

// Lookup binary searches for legacyID.
func (t *Table) Lookup(legacyID int64) (string, bool) {
	i, found := slices.BinarySearch(t.legacy, legacyID)
	if !found {
		return "", false
	}
	return t.newIDs[i], true
}

// ReadTable loads a table. A leading header row is skipped. Rows must be
// strictly ascending by legacy id, otherwise domain.ErrUnsortedTable is
// returned.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	t := &Table{}
	line := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv: %v", domain.ErrInvalidInput, err)
		}
		line++

		if len(row) < 2 {
			return nil, fmt.Errorf("%w: line %d: want legacy_id,new_id", domain.ErrInvalidInput, line)
		}
		legacyID, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("%w: line %d: legacy id %q is not an integer", domain.ErrInvalidInput, line, row[0])
		}

		if n := len(t.legacy); n > 0 && legacyID <= t.legacy[n-1] {
			return nil, fmt.Errorf("%w: line %d: %d follows %d", domain.ErrUnsortedTable, line, legacyID, t.legacy[n-1])
		}
		t.legacy = append(t.legacy, legacyID)
		t.newIDs = append(t.newIDs, strings.TrimSpace(row[1]))
	}
	return t, nil
}

// Resolver answers lookups from one table per id kind.
type Resolver struct {
	manga   *Table
	chapter *Table
}

// NewResolver creates a resolver over preloaded tables.
func NewResolver(manga, chapter *Table) *Resolver {
	if manga == nil {
		manga = &Table{}
	}
	if chapter == nil {
		chapter = &Table{}
	}
	return &Resolver{manga: manga, chapter: chapter}
}

// Open loads manga.csv and chapter.csv from dir.
func Open(dir string) (*Resolver, error) {
	manga, err := loadFile(filepath.Join(dir, FileName(domain.IDKindManga)))
	if err != nil {
		return nil, err
	}
	chapter, err := loadFile(filepath.Join(dir, FileName(domain.IDKindChapter)))
	if err != nil {
		return nil, err
	}
	return NewResolver(manga, chapter), nil
}

func loadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lookup table: %w", err)
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// Counts returns the row count per kind.
func (r *Resolver) Counts() map[domain.IDKind]int {
	return map[domain.IDKind]int{
		domain.IDKindManga:   r.manga.Len(),
		domain.IDKindChapter: r.chapter.Len(),
	}
}

// ResolveMangaID looks up a legacy manga id.
func (r *Resolver) ResolveMangaID(_ context.Context, legacyID string) (string, bool, error) {
	return lookup(r.manga, legacyID)
}

// ResolveChapterID looks up a legacy chapter id.
func (r *Resolver) ResolveChapterID(_ context.Context, legacyID string) (string, bool, error) {
	return lookup(r.chapter, legacyID)
}

func lookup(t *Table, legacyID string) (string, bool, error) {
	id, err := strconv.ParseInt(legacyID, 10, 64)
	if err != nil {
		return "", false, nil
	}
	newID, ok := t.Lookup(id)
	return newID, ok, nil
}

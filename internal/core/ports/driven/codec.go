package driven

import (
	"io"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
)

// DocumentCodec decodes and encodes one backup wire format.
//
// Codecs must preserve every field the migrator does not model, and
// Decode(Encode(d)) must equal d for any decoded document d.
type DocumentCodec interface {
	// Format returns the wire format handled by this codec.
	Format() domain.Format

	// Decode parses a backup. Failures are *domain.FormatError.
	Decode(r io.Reader) (*domain.Document, error)

	// Encode serialises a document. Failures are *domain.FormatError.
	Encode(doc *domain.Document) ([]byte, error)
}

// CodecRegistry selects a codec for an input file.
type CodecRegistry interface {
	// ForFile returns the codec selected by the file name suffix.
	// Returns domain.ErrUnsupportedFormat for unknown suffixes.
	ForFile(name string) (DocumentCodec, error)

	// Get returns the codec for a format.
	Get(format domain.Format) (DocumentCodec, error)
}

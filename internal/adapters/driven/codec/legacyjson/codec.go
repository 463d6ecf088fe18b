package legacyjson

import (
	"fmt"
	"io"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.DocumentCodec = (*Codec)(nil)

// Codec reads and writes legacy JSON backups.
type Codec struct {
	version int
}

// New creates a legacy JSON codec accepting domain.SupportedJSONVersion.
func New() *Codec {
	return &Codec{version: domain.SupportedJSONVersion}
}

// Format returns domain.FormatJSON.
func (c *Codec) Format() domain.Format {
	return domain.FormatJSON
}

// Decode parses a backup. The declared version must match exactly.
func (c *Codec) Decode(r io.Reader) (*domain.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.NewFormatError(domain.FormatJSON, "read", err)
	}

	doc, err := decodeBackup(data)
	if err != nil {
		return nil, domain.NewFormatError(domain.FormatJSON, "parse", err)
	}
	if doc.Version != c.version {
		return nil, domain.NewFormatError(domain.FormatJSON, "decode",
			fmt.Errorf("%w %d (want %d)", domain.ErrUnsupportedVersion, doc.Version, c.version))
	}
	return doc, nil
}

// Encode serializes doc.
func (c *Codec) Encode(doc *domain.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	out, err := encodeBackup(doc)
	if err != nil {
		return nil, domain.NewFormatError(domain.FormatJSON, "encode", err)
	}
	return out, nil
}

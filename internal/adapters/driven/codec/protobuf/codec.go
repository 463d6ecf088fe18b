package protobuf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.DocumentCodec = (*Codec)(nil)

// Codec reads and writes gzip-compressed protobuf backups.
type Codec struct {
	level int
}

// Option configures a Codec.
type Option func(*Codec)

// WithCompressionLevel sets the gzip level used by Encode.
func WithCompressionLevel(level int) Option {
	return func(c *Codec) {
		c.level = level
	}
}

// New creates a protobuf backup codec.
func New(opts ...Option) *Codec {
	c := &Codec{level: gzip.DefaultCompression}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Format returns domain.FormatProto.
func (c *Codec) Format() domain.Format {
	return domain.FormatProto
}

// Decode decompresses and parses a backup.
func (c *Codec) Decode(r io.Reader) (*domain.Document, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, domain.NewFormatError(domain.FormatProto, "decompress", err)
	}
	defer zr.Close()

	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, domain.NewFormatError(domain.FormatProto, "decompress", err)
	}

	doc, err := decodeBackup(payload)
	if err != nil {
		return nil, domain.NewFormatError(domain.FormatProto, "parse", err)
	}
	return doc, nil
}

// Encode serializes and compresses doc.
func (c *Codec) Encode(doc *domain.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	payload, err := encodeBackup(doc)
	if err != nil {
		return nil, domain.NewFormatError(domain.FormatProto, "encode", err)
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		return nil, domain.NewFormatError(domain.FormatProto, "compress", err)
	}
	if err := zw.Close(); err != nil {
		return nil, domain.NewFormatError(domain.FormatProto, "compress", err)
	}
	return buf.Bytes(), nil
}

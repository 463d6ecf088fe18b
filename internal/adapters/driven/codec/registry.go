// Package codec selects a backup codec by format or file name.
package codec

import (
	"fmt"

	"github.com/custodia-labs/dexmigrate/internal/adapters/driven/codec/legacyjson"
	"github.com/custodia-labs/dexmigrate/internal/adapters/driven/codec/protobuf"
	"github.com/custodia-labs/dexmigrate/internal/core/domain"
	"github.com/custodia-labs/dexmigrate/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.CodecRegistry = (*Registry)(nil)

// Registry maps formats to codecs.
type Registry struct {
	codecs map[domain.Format]driven.DocumentCodec
}

// NewRegistry creates a registry holding the given codecs.
func NewRegistry(codecs ...driven.DocumentCodec) *Registry {
	r := &Registry{codecs: make(map[domain.Format]driven.DocumentCodec, len(codecs))}
	for _, c := range codecs {
		r.codecs[c.Format()] = c
	}
	return r
}

// NewDefaultRegistry creates a registry with every built-in codec.
func NewDefaultRegistry() *Registry {
	return NewRegistry(protobuf.New(), legacyjson.New())
}

// Get returns the codec for a format.
func (r *Registry) Get(format domain.Format) (driven.DocumentCodec, error) {
	c, ok := r.codecs[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
	return c, nil
}

// ForFile returns the codec selected by the file name suffix.
func (r *Registry) ForFile(name string) (driven.DocumentCodec, error) {
	format, err := domain.FormatFromFileName(name)
	if err != nil {
		return nil, err
	}
	return r.Get(format)
}

package legacyjson

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// span is a half-open byte range [start, end) of an input buffer.
type span struct {
	start, end int
}

func (s span) valid() bool {
	return s.end > s.start
}

// scanner walks a JSON buffer while tracking value positions.
type scanner struct {
	dec  *jsontext.Decoder
	data []byte
}

func newScanner(data []byte) *scanner {
	dec := jsontext.NewDecoder(bytes.NewReader(data),
		jsontext.AllowDuplicateNames(true),
		jsontext.AllowInvalidUTF8(true),
	)
	return &scanner{dec: dec, data: data}
}

// value consumes the next value and returns its raw bytes and span.
func (s *scanner) value() (jsontext.Value, span, error) {
	v, err := s.dec.ReadValue()
	if err != nil {
		return nil, span{}, err
	}
	end := int(s.dec.InputOffset())
	sp := span{start: end - len(v), end: end}
	return s.data[sp.start:sp.end], sp, nil
}

func (s *scanner) skip() error {
	return s.dec.SkipValue()
}

// finish fails unless the input holds nothing after the last value read.
func (s *scanner) finish() error {
	_, err := s.dec.ReadToken()
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	default:
		return fmt.Errorf("unexpected data after backup object at offset %d", s.dec.InputOffset())
	}
}

func (s *scanner) expect(kind jsontext.Kind) error {
	tok, err := s.dec.ReadToken()
	if err != nil {
		return err
	}
	if tok.Kind() != kind {
		return fmt.Errorf("expected %v, found %v at offset %d", kind, tok.Kind(), s.dec.InputOffset())
	}
	return nil
}

// object consumes an object, calling fn once per member name. fn must
// consume the member value.
func (s *scanner) object(fn func(name string) error) error {
	if err := s.expect('{'); err != nil {
		return err
	}
	for s.dec.PeekKind() != '}' {
		tok, err := s.dec.ReadToken()
		if err != nil {
			return err
		}
		if err := fn(tok.String()); err != nil {
			return err
		}
	}
	return s.expect('}')
}

// array consumes an array, calling fn once per element. fn must consume the
// element.
func (s *scanner) array(fn func(i int) error) error {
	if err := s.expect('['); err != nil {
		return err
	}
	for i := 0; s.dec.PeekKind() != ']'; i++ {
		if err := fn(i); err != nil {
			return err
		}
	}
	return s.expect(']')
}

// stringValue consumes a JSON string.
func (s *scanner) stringValue() (string, span, error) {
	raw, sp, err := s.value()
	if err != nil {
		return "", span{}, err
	}
	if raw.Kind() != '"' {
		return "", span{}, fmt.Errorf("expected string, found %s", raw)
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return "", span{}, err
	}
	return str, sp, nil
}

// int64Value consumes an integer, accepting its quoted form as well.
func (s *scanner) int64Value() (int64, error) {
	raw, _, err := s.value()
	if err != nil {
		return 0, err
	}
	switch raw.Kind() {
	case '0':
		return strconv.ParseInt(string(raw), 10, 64)
	case '"':
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, err
		}
		return strconv.ParseInt(str, 10, 64)
	default:
		return 0, fmt.Errorf("expected integer, found %s", raw)
	}
}

// edit replaces the bytes of at with text.
type edit struct {
	at   span
	text []byte
}

// applyEdits returns a copy of data with every edit applied. Edits must not
// overlap.
func applyEdits(data []byte, edits []edit) []byte {
	if len(edits) == 0 {
		return slices.Clone(data)
	}
	slices.SortFunc(edits, func(a, b edit) int {
		return a.at.start - b.at.start
	})

	grow := 0
	for _, e := range edits {
		grow += len(e.text) - (e.at.end - e.at.start)
	}
	out := make([]byte, 0, len(data)+max(grow, 0))
	last := 0
	for _, e := range edits {
		out = append(out, data[last:e.at.start]...)
		out = append(out, e.text...)
		last = e.at.end
	}
	return append(out, data[last:]...)
}

func quote(s string) ([]byte, error) {
	return json.Marshal(s)
}

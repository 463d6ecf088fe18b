package protobuf

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// field is one parsed wire field. raw spans the tag and the value.
type field struct {
	num    protowire.Number
	typ    protowire.Type
	raw    []byte
	bytes  []byte
	varint uint64
}

// parseFields splits a message into its top-level fields.
//
// Field number 0 is accepted: older backup writers used it for the legacy
// broken source and history records, which protowire.ConsumeTag rejects.
func parseFields(b []byte) ([]field, error) {
	var fields []field
	for len(b) > 0 {
		tag, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, fmt.Errorf("field tag: %w", protowire.ParseError(n))
		}
		num, typ := protowire.DecodeTag(tag)
		if num < 0 {
			return nil, fmt.Errorf("field tag %d out of range", tag)
		}

		m := protowire.ConsumeFieldValue(num, typ, b[n:])
		if m < 0 {
			return nil, fmt.Errorf("field %d: %w", num, protowire.ParseError(m))
		}

		f := field{num: num, typ: typ, raw: b[:n+m]}
		switch typ {
		case protowire.BytesType:
			f.bytes, _ = protowire.ConsumeBytes(b[n : n+m])
		case protowire.VarintType:
			f.varint, _ = protowire.ConsumeVarint(b[n : n+m])
		}
		fields = append(fields, f)
		b = b[n+m:]
	}
	return fields, nil
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// replaceString rewrites every occurrence of string field num in msg, keeping
// all other fields byte for byte. The field is appended when msg lacks it.
func replaceString(msg []byte, num protowire.Number, value string) ([]byte, error) {
	fields, err := parseFields(msg)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(msg)+len(value))
	replaced := false
	for _, f := range fields {
		if f.num == num && f.typ == protowire.BytesType {
			out = appendString(out, num, value)
			replaced = true
			continue
		}
		out = append(out, f.raw...)
	}
	if !replaced {
		out = appendString(out, num, value)
	}
	return out, nil
}

package domain

import (
	"fmt"
	"strings"
)

// Format identifies a backup wire format.
type Format string

// Supported backup formats.
const (
	// FormatProto is the gzip-compressed protobuf backup.
	FormatProto Format = "proto"

	// FormatJSON is the legacy JSON backup.
	FormatJSON Format = "json"
)

// SupportedJSONVersion is the only JSON backup schema version accepted.
const SupportedJSONVersion = 2

// modifiedSuffix is inserted before the format suffix of output files.
const modifiedSuffix = "_modified"

// Suffix returns the file name suffix that selects the format.
func (f Format) Suffix() string {
	switch f {
	case FormatProto:
		return ".proto.gz"
	case FormatJSON:
		return ".json"
	default:
		return ""
	}
}

// MimeType returns the MIME type of files in this format.
func (f Format) MimeType() string {
	switch f {
	case FormatProto:
		return "application/gzip"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// IsValid returns true if the format is recognised.
func (f Format) IsValid() bool {
	return f == FormatProto || f == FormatJSON
}

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}

// AllFormats returns every supported format.
func AllFormats() []Format {
	return []Format{FormatProto, FormatJSON}
}

// FormatFromFileName selects the backup format from a file name suffix.
// Content is never sniffed.
func FormatFromFileName(name string) (Format, error) {
	lower := strings.ToLower(name)
	for _, f := range AllFormats() {
		if strings.HasSuffix(lower, f.Suffix()) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// ModifiedFileName derives the output file name by inserting "_modified"
// before the format suffix, e.g. backup.proto.gz -> backup_modified.proto.gz.
func ModifiedFileName(name string) (string, error) {
	f, err := FormatFromFileName(name)
	if err != nil {
		return "", err
	}
	base := name[:len(name)-len(f.Suffix())]
	return base + modifiedSuffix + name[len(base):], nil
}

// IsModifiedFileName reports whether name was produced by ModifiedFileName.
func IsModifiedFileName(name string) bool {
	f, err := FormatFromFileName(name)
	if err != nil {
		return false
	}
	return strings.HasSuffix(name[:len(name)-len(f.Suffix())], modifiedSuffix)
}

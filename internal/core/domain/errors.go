package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates the input file name does not carry a known backup suffix.
	ErrUnsupportedFormat = errors.New("unsupported backup format")

	// ErrUnsupportedVersion indicates a JSON backup declares a schema version other than
	// SupportedJSONVersion.
	ErrUnsupportedVersion = errors.New("unknown backup version")

	// ErrUnsortedTable indicates a flat lookup table is not sorted by legacy ID.
	ErrUnsortedTable = errors.New("lookup table is not sorted by legacy id")

	// ErrMigrationInProgress indicates a migration run is already active.
	ErrMigrationInProgress = errors.New("migration in progress")
)

// FormatError reports a backup that cannot be decompressed, parsed or encoded.
// It is fatal to a migration run.
type FormatError struct {
	Format Format
	Op     string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s backup: %s: %v", e.Format, e.Op, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// NewFormatError wraps err as a FormatError for the given format and operation.
func NewFormatError(format Format, op string, err error) *FormatError {
	return &FormatError{Format: format, Op: op, Err: err}
}

// ResolutionError reports a failure of the identifier lookup itself (transport,
// storage), as opposed to a lookup that simply found nothing.
type ResolutionError struct {
	Kind IDKind
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s ids: %v", e.Kind, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// NewResolutionError wraps err as a ResolutionError for the given id kind.
func NewResolutionError(kind IDKind, err error) *ResolutionError {
	return &ResolutionError{Kind: kind, Err: err}
}

// IsFormatError checks if the error chain contains a FormatError.
func IsFormatError(err error) bool {
	var formatErr *FormatError
	return errors.As(err, &formatErr)
}

// IsResolutionError checks if the error chain contains a ResolutionError.
func IsResolutionError(err error) bool {
	var resErr *ResolutionError
	return errors.As(err, &resErr)
}

package types

import "fmt"

// UnsupportedFormatError is returned when no decoder matches a file.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported format: %s", e.Path, e.Reason)
}

// InvalidContainerError is returned when a required magic value or header is
// missing or structurally contradictory. It is fatal for the parse.
type InvalidContainerError struct {
	Path   string
	Reason string
	Offset int64
	Format Format
}

func (e *InvalidContainerError) Error() string {
	return fmt.Sprintf("%s: invalid %s file at offset %d: %s", e.Path, e.Format, e.Offset, e.Reason)
}

// MalformedUnitError describes a single frame, atom, page, chunk or object
// that is internally inconsistent. Decoders recover from it by skipping the
// unit or ending the current branch, and report it as a Warning.
type MalformedUnitError struct {
	Unit   string
	Reason string
	Offset int64
}

func (e *MalformedUnitError) Error() string {
	return fmt.Sprintf("malformed %s at offset %d: %s", e.Unit, e.Offset, e.Reason)
}

// TextDecodeError is returned under the strict text policy when a tag value
// is not valid in its declared encoding.
type TextDecodeError struct {
	Err      error
	Encoding string
}

func (e *TextDecodeError) Error() string {
	return fmt.Sprintf("decode %s text: %v", e.Encoding, e.Err)
}

func (e *TextDecodeError) Unwrap() error {
	return e.Err
}

// NumericConversionError reports a tag value that should be numeric but is
// not, e.g. a track number of "A1". The field is left unset.
type NumericConversionError struct {
	Err   error
	Field string
	Value string
}

func (e *NumericConversionError) Error() string {
	return fmt.Sprintf("field %s: cannot convert %q to a number", e.Field, e.Value)
}

func (e *NumericConversionError) Unwrap() error {
	return e.Err
}

// Warning represents a non-fatal issue encountered during parsing.
//
// Warnings indicate problems that don't prevent metadata extraction but
// may indicate corrupted or unusual data. Examples include:
//   - a frame or chunk with an impossible size
//   - a non-numeric track number
//   - a failed duration estimate after a successful tag pass
//
// Warnings are collected in File.Warnings during parsing.
type Warning struct {
	// Stage where the warning occurred
	Stage string // "tags", "duration", "image"

	// Warning message
	Message string

	// File offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}

package audiotag

import (
	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// UnsupportedFormatError is returned when neither the file extension nor
// the leading bytes select a decoder.
type UnsupportedFormatError = types.UnsupportedFormatError

// InvalidContainerError is returned when a required magic value or header
// is missing. Nothing read before it is returned.
type InvalidContainerError = types.InvalidContainerError

// MalformedUnitError describes a frame, atom, page, chunk or object that was
// skipped. It is reported through File.Warnings.
type MalformedUnitError = types.MalformedUnitError

// TextDecodeError is returned for undecodable tag text unless
// WithIgnoreErrors is set.
type TextDecodeError = types.TextDecodeError

// NumericConversionError reports a numeric field, such as a track number,
// that did not hold a number. It is reported through File.Warnings.
type NumericConversionError = types.NumericConversionError

// Warning is a recovered, non-fatal problem.
type Warning = types.Warning

// ErrOutOfBounds is wrapped by errors from reads past the end of a file.
var ErrOutOfBounds = binary.ErrOutOfBounds

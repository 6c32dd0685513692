// Package binary provides type-safe binary reading primitives with bounds checking
package binary

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrOutOfBounds is wrapped by every error caused by a read past the end of the stream.
var ErrOutOfBounds = errors.New("read out of bounds")

// scanChunk is the window size used when searching the stream for a byte pattern.
const scanChunk = 64 * 1024

// SafeReader wraps io.ReaderAt with bounds checking and helpful error messages.
type SafeReader struct {
	r    io.ReaderAt
	path string
	size int64
}

// NewSafeReader creates a new SafeReader.
func NewSafeReader(r io.ReaderAt, size int64, path string) *SafeReader {
	return &SafeReader{
		r:    r,
		size: size,
		path: path,
	}
}

// FromBytes creates a SafeReader over an in-memory buffer.
// Nested decoders use it for payloads that were already read.
func FromBytes(b []byte, path string) *SafeReader {
	return NewSafeReader(bytes.NewReader(b), int64(len(b)), path)
}

// Path returns the file path associated with this reader.
func (sr *SafeReader) Path() string {
	return sr.path
}

// Size returns the total number of readable bytes.
func (sr *SafeReader) Size() int64 {
	return sr.size
}

// Section returns a reader restricted to [off, off+n). The section is clamped
// to the end of the stream.
func (sr *SafeReader) Section(off, n int64) *SafeReader {
	if off > sr.size {
		off = sr.size
	}
	if off+n > sr.size {
		n = sr.size - off
	}
	return NewSafeReader(io.NewSectionReader(sr.r, off, n), n, sr.path)
}

// ReadAt reads bytes at the given offset with context for error messages.
func (sr *SafeReader) ReadAt(b []byte, off int64, what string) error {
	// Check bounds
	if off < 0 || off >= sr.size {
		return fmt.Errorf("%s: offset %d (file size: %d) while reading %s: %w",
			sr.path, off, sr.size, what, ErrOutOfBounds)
	}

	if off+int64(len(b)) > sr.size {
		return fmt.Errorf("%s: read of %d bytes at offset %d would exceed file size %d while reading %s: %w",
			sr.path, len(b), off, sr.size, what, ErrOutOfBounds)
	}

	n, err := sr.r.ReadAt(b, off)
	if err != nil && err != io.EOF {
		return fmt.Errorf("%s: failed to read %s at offset %d: %w", sr.path, what, off, err)
	}

	if n < len(b) {
		return fmt.Errorf("%s: short read for %s at offset %d: got %d bytes, expected %d",
			sr.path, what, off, n, len(b))
	}

	return nil
}

// Bytes reads exactly n bytes at off.
func (sr *SafeReader) Bytes(off int64, n int, what string) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	if n < 0 || off < 0 || off+int64(n) > sr.size {
		return nil, fmt.Errorf("%s: read of %d bytes at offset %d would exceed file size %d while reading %s: %w",
			sr.path, n, off, sr.size, what, ErrOutOfBounds)
	}
	buf := make([]byte, n)
	if err := sr.ReadAt(buf, off, what); err != nil {
		return nil, err
	}
	return buf, nil
}

// Peek reads up to n bytes at off, returning fewer near the end of the stream.
// It never fails on a short stream; a nil slice means off is past the end.
func (sr *SafeReader) Peek(off int64, n int) []byte {
	if off < 0 || off >= sr.size || n <= 0 {
		return nil
	}
	if remain := sr.size - off; int64(n) > remain {
		n = int(remain)
	}
	buf := make([]byte, n)
	got, err := sr.r.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil
	}
	return buf[:got]
}

// Index returns the absolute offset of the first occurrence of pattern at or
// after off, or -1 if the pattern does not occur before the end of the stream.
func (sr *SafeReader) Index(off int64, pattern []byte) int64 {
	if len(pattern) == 0 {
		return off
	}
	overlap := len(pattern) - 1
	for off < sr.size {
		chunk := sr.Peek(off, scanChunk)
		if len(chunk) < len(pattern) {
			return -1
		}
		if i := bytes.Index(chunk, pattern); i >= 0 {
			return off + int64(i)
		}
		if len(chunk) < scanChunk {
			return -1
		}
		off += int64(len(chunk) - overlap)
	}
	return -1
}

// Read reads a value of type T from the given offset.
// T must be uint8, uint16, uint32, or uint64.
func Read[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, BigEndian)
}

// Reader provides sequential reading with automatic offset tracking.
type Reader struct {
	*SafeReader
	offset int64
}

// NewReader creates a new Reader starting at the given offset.
func NewReader(sr *SafeReader, offset int64) *Reader {
	return &Reader{
		SafeReader: sr,
		offset:     offset,
	}
}

// ReadValue reads a big-endian numeric value and advances the offset.
func ReadValue[T uint8 | uint16 | uint32 | uint64](r *Reader, what string) (T, error) {
	return ReadValueEndian[T](r, what, BigEndian)
}

// ReadValueLE reads a little-endian numeric value and advances the offset.
func ReadValueLE[T uint8 | uint16 | uint32 | uint64](r *Reader, what string) (T, error) {
	return ReadValueEndian[T](r, what, LittleEndian)
}

// ReadValueEndian reads a numeric value with the given byte order and advances the offset.
func ReadValueEndian[T uint8 | uint16 | uint32 | uint64](r *Reader, what string, endian Endianness) (T, error) {
	val, err := ReadEndian[T](r.SafeReader, r.offset, what, endian)
	if err != nil {
		var zero T
		return zero, err
	}
	r.offset += int64(sizeOf[T]())
	return val, nil
}

// ReadBytes reads n bytes and advances the offset.
func (r *Reader) ReadBytes(n int, what string) ([]byte, error) {
	buf, err := r.SafeReader.Bytes(r.offset, n, what)
	if err != nil {
		return nil, err
	}
	r.offset += int64(n)
	return buf, nil
}

// ReadString reads a string of the given length and advances the offset.
func (r *Reader) ReadString(length int, what string) (string, error) {
	buf, err := r.ReadBytes(length, what)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// Skip advances the offset by n bytes.
func (r *Reader) Skip(n int64) {
	r.offset += n
}

// Seek moves the offset to an absolute position.
func (r *Reader) Seek(off int64) {
	r.offset = off
}

// Offset returns the current offset.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Remaining returns the number of bytes between the offset and the end of the stream.
func (r *Reader) Remaining() int64 {
	if r.offset >= r.size {
		return 0
	}
	return r.size - r.offset
}

// ChainReader allows chaining multiple reads with deferred error checking.
// This avoids repetitive "if err != nil" checks.
type ChainReader struct {
	*Reader
	err    error
	endian Endianness
}

// NewChainReader creates a new big-endian ChainReader.
func NewChainReader(r *Reader) *ChainReader {
	return &ChainReader{Reader: r}
}

// NewChainReaderLE creates a new little-endian ChainReader.
func NewChainReaderLE(r *Reader) *ChainReader {
	return &ChainReader{Reader: r, endian: LittleEndian}
}

// ReadChained reads a value with deferred error checking.
// If a previous read failed, returns zero value without attempting read.
func ReadChained[T uint8 | uint16 | uint32 | uint64](cr *ChainReader, what string) T {
	if cr.err != nil {
		var zero T
		return zero
	}

	val, err := ReadValueEndian[T](cr.Reader, what, cr.endian)
	if err != nil {
		cr.err = err
		var zero T
		return zero
	}

	return val
}

// Bytes reads n bytes, accumulating any error.
func (cr *ChainReader) Bytes(n int, what string) []byte {
	if cr.err != nil {
		return nil
	}

	val, err := cr.Reader.ReadBytes(n, what)
	if err != nil {
		cr.err = err
		return nil
	}

	return val
}

// String reads a string, accumulating any error.
func (cr *ChainReader) String(length int, what string) string {
	return string(cr.Bytes(length, what))
}

// Error returns the accumulated error, if any.
func (cr *ChainReader) Error() error {
	return cr.err
}

package binary

import (
	"encoding/binary"
	"math"
)

// Endianness selects the byte order of fixed-width integers. MP4 atoms,
// ID3v2 and AIFF chunks are big-endian; Ogg pages, Vorbis comments, RIFF
// chunks and ASF objects are little-endian.
type Endianness int

const (
	BigEndian Endianness = iota
	LittleEndian
)

func (e Endianness) order() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// ReadLE reads a little-endian T at off.
func ReadLE[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, LittleEndian)
}

// ReadBE reads a big-endian T at off.
func ReadBE[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, BigEndian)
}

// ReadEndian reads a T at off in the given byte order. what names the value
// in the out-of-bounds error.
func ReadEndian[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string, endian Endianness) (T, error) {
	buf := make([]byte, sizeOf[T]())
	if err := sr.ReadAt(buf, off, what); err != nil {
		return 0, err
	}
	return T(Uint(buf, endian)), nil
}

func sizeOf[T uint8 | uint16 | uint32 | uint64]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

// Uint reads an unsigned big- or little-endian integer of 1, 2, 4 or 8 bytes.
// Other lengths yield 0.
func Uint(b []byte, endian Endianness) uint64 {
	order := endian.order()
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	case 8:
		return order.Uint64(b)
	default:
		return 0
	}
}

// Folded decodes a big-endian integer built from the low bitsPerByte bits
// of each byte. ID3v2.4 frame sizes use 7, ID3v2.3 sizes use 8.
func Folded(b []byte, bitsPerByte uint) uint32 {
	mask := byte(1<<bitsPerByte - 1)
	var v uint32
	for _, c := range b {
		v = v<<bitsPerByte | uint32(c&mask)
	}
	return v
}

// Synchsafe decodes a synchsafe integer: seven significant bits per byte,
// big-endian.
func Synchsafe(b []byte) uint32 {
	return Folded(b, 7)
}

// AppendSynchsafe appends the low 28 bits of v as a four-byte synchsafe
// integer.
func AppendSynchsafe(b []byte, v uint32) []byte {
	return append(b, byte(v>>21)&0x7F, byte(v>>14)&0x7F, byte(v>>7)&0x7F, byte(v)&0x7F)
}

// extendedBias is the exponent bias of an 80-bit extended float, plus the
// 63 fraction bits of its explicit-integer mantissa.
const extendedBias = 16383 + 63

// ExtendedInt truncates a positive 80-bit IEEE 754 extended float, given as
// its sign/exponent word and 64-bit mantissa, to an int. ok is false for
// negative values, values below 1 and values that do not fit in 31 bits.
func ExtendedInt(exponent uint16, mantissa uint64) (n int, ok bool) {
	if exponent&0x8000 != 0 {
		return 0, false
	}
	v := math.Ldexp(float64(mantissa), int(exponent)-extendedBias)
	if math.IsInf(v, 0) || v >= math.MaxInt32 || v < 1 {
		return 0, false
	}
	return int(v), true
}

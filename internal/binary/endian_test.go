package binary

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLE_OggPageFields(t *testing.T) {
	// The start of an Ogg page header, then a 16-bit count.
	page := []byte("OggS\x00\x04")
	page = binary.LittleEndian.AppendUint64(page, 2_646_000)
	page = binary.LittleEndian.AppendUint32(page, 0xCAFE)
	page = binary.LittleEndian.AppendUint16(page, 7)
	sr := FromBytes(page, "test.ogg")

	granule, err := ReadLE[uint64](sr, 6, "granule position")
	require.NoError(t, err)
	assert.Equal(t, uint64(2_646_000), granule)

	serial, err := ReadLE[uint32](sr, 14, "serial")
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFE), serial)

	segments, err := ReadLE[uint16](sr, 18, "count")
	require.NoError(t, err)
	assert.Equal(t, uint16(7), segments)

	flags, err := ReadLE[uint8](sr, 5, "header type")
	require.NoError(t, err)
	assert.Equal(t, uint8(4), flags)
}

func TestReadBE_AtomHeader(t *testing.T) {
	atom := binary.BigEndian.AppendUint32(nil, 1)
	atom = append(atom, "mdat"...)
	atom = binary.BigEndian.AppendUint64(atom, 1<<33)
	sr := FromBytes(atom, "test.m4a")

	size, err := ReadBE[uint32](sr, 0, "atom size")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), size)

	large, err := ReadBE[uint64](sr, 8, "extended size")
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<33), large)

	_, err = ReadBE[uint64](sr, 12, "past end")
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestEndianness_MixedContainer(t *testing.T) {
	// A Vorbis comment length (LE) next to an MP4 atom size (BE).
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, uint32(26))
	binary.Write(buf, binary.BigEndian, uint32(1000))
	sr := FromBytes(buf.Bytes(), "test")

	length, err := ReadEndian[uint32](sr, 0, "vendor length", LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(26), length)

	size, err := ReadEndian[uint32](sr, 4, "atom size", BigEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), size)

	_, err = ReadEndian[uint64](sr, 4, "too long", BigEndian)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestUint_Widths(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	assert.Equal(t, uint64(0x01), Uint(b[:1], LittleEndian))
	assert.Equal(t, uint64(0x0201), Uint(b[:2], LittleEndian))
	assert.Equal(t, uint64(0x01020304), Uint(b[:4], BigEndian))
	assert.Equal(t, uint64(0x0807060504030201), Uint(b, LittleEndian))
	assert.Zero(t, Uint(b[:3], BigEndian))
}

func TestSynchsafe_RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 255, 16383, 16384, 1 << 21, 0x0FFFFFFF}
	for v := uint32(3); v < 1<<28; v = v*7 + 11 {
		values = append(values, v)
	}
	for _, v := range values {
		enc := AppendSynchsafe(nil, v)
		require.Len(t, enc, 4)
		for _, b := range enc {
			assert.Zero(t, b&0x80, "high bit set in encoding of %d", v)
		}
		assert.Equal(t, v, Synchsafe(enc), "value %d", v)
	}
}

func TestFolded(t *testing.T) {
	// The same bytes read as an ID3v2.3 size and as an ID3v2.4 size.
	b := []byte{0x00, 0x00, 0x02, 0x01}
	assert.Equal(t, uint32(0x0201), Folded(b, 8))
	assert.Equal(t, uint32(2<<7|1), Folded(b, 7))
	assert.Equal(t, uint32(0x7F), Folded([]byte{0xFF}, 7))
}

func TestExtendedInt(t *testing.T) {
	tests := []struct {
		name     string
		exponent uint16
		mantissa uint64
		want     int
		ok       bool
	}{
		{"44100", 0x400E, 0xAC44000000000000, 44100, true},
		{"48000", 0x400E, 0xBB80000000000000, 48000, true},
		{"8000", 0x400B, 0xFA00000000000000, 8000, true},
		{"fraction truncates", 0x4000, 0xC000000000000000, 3, true},
		{"negative", 0xC00E, 0xAC44000000000000, 0, false},
		{"below one", 0x3FFE, 0x8000000000000000, 0, false},
		{"too large", 0x401F, 0x8000000000000000, 0, false},
		{"infinite", 0x7FFF, 0x8000000000000000, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtendedInt(tt.exponent, tt.mantissa)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

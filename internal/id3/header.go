package id3

import (
	"bytes"

	"github.com/simonhull/audiotag/internal/binary"
)

// HeaderSize is the size of the fixed ID3v2 tag header.
const HeaderSize = 10

// Header is the fixed ID3v2 tag header.
type Header struct {
	Major    byte
	Revision byte
	Flags    byte
	Size     uint32 // tag size excluding the header
}

// Extended reports whether an extended header follows.
func (h Header) Extended() bool {
	return h.Flags&0x40 != 0
}

// Unsynchronised reports whether the unsynchronisation scheme was applied.
// Before v2.4 it covers the whole tag body; in v2.4 every frame.
func (h Header) Unsynchronised() bool {
	return h.Flags&0x80 != 0
}

// End returns the offset just past the tag.
func (h Header) End() int64 {
	return HeaderSize + int64(h.Size)
}

// readHeader reads an ID3v2 header at offset 0. ok is false when the stream
// does not start with "ID3".
func readHeader(sr *binary.SafeReader) (Header, bool) {
	buf := sr.Peek(0, HeaderSize)
	if len(buf) < HeaderSize || string(buf[:3]) != "ID3" {
		return Header{}, false
	}
	return Header{
		Major:    buf[3],
		Revision: buf[4],
		Flags:    buf[5],
		Size:     binary.Synchsafe(buf[6:10]),
	}, true
}

// resync reverses unsynchronisation: every 0xFF 0x00 pair becomes 0xFF.
func resync(b []byte) []byte {
	if !bytes.Contains(b, []byte{0xFF, 0x00}) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		out = append(out, b[i])
		if b[i] == 0xFF && i+1 < len(b) && b[i+1] == 0x00 {
			i++
		}
	}
	return out
}

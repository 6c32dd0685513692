// Package riff walks RIFF and IFF chunk lists and reads WAV files.
package riff

import (
	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/id3"
	"github.com/simonhull/audiotag/internal/types"
)

// chunkHeaderSize is the size of a chunk id and its 32-bit length.
const chunkHeaderSize = 8

// Chunk is one ID SIZE PAYLOAD tuple.
type Chunk struct {
	ID     string
	Size   int64 // declared payload size, without padding
	Offset int64 // offset of the chunk header
}

// DataOffset returns the offset of the payload.
func (c Chunk) DataOffset() int64 {
	return c.Offset + chunkHeaderSize
}

// End returns the offset of the next chunk. Payloads are padded to an even
// number of bytes.
func (c Chunk) End() int64 {
	return c.DataOffset() + c.Size + c.Size%2
}

// Data returns a reader over the payload, clamped to the stream.
func (c Chunk) Data(sr *binary.SafeReader) *binary.SafeReader {
	return sr.Section(c.DataOffset(), c.Size)
}

// Walk calls fn for each chunk from off until the stream ends or fn returns
// false or an error. Sizes use the given byte order: little-endian for RIFF,
// big-endian for IFF.
func Walk(sr *binary.SafeReader, off int64, endian binary.Endianness, fn func(Chunk) (bool, error)) error {
	for {
		id := sr.Peek(off, 4)
		size, err := binary.ReadEndian[uint32](sr, off+4, "chunk size", endian)
		if err != nil || len(id) < 4 {
			return nil
		}
		c := Chunk{ID: string(id), Size: int64(size), Offset: off}
		more, err := fn(c)
		if err != nil || !more {
			return err
		}
		off = c.End()
	}
}

// IsID3 reports whether a chunk id names an embedded ID3v2 tag.
func IsID3(id string) bool {
	return id == "id3 " || id == "ID3 "
}

// ParseID3 decodes an embedded ID3v2 chunk into its own record and merges
// it into tags.
func ParseID3(sr *binary.SafeReader, c Chunk, ctx *types.Context, tags *types.Tags) error {
	data := c.Data(sr)
	nested := &types.Tags{}
	if _, err := id3.ParseTag(data, ctx.Nested(data.Size()), nested, false); err != nil {
		return err
	}
	tags.Update(nested)
	return nil
}

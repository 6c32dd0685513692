package vorbis

import (
	"encoding/base64"
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
)

// ParsePicture returns the image bytes of a FLAC PICTURE block.
//
// Block layout, all integers 32-bit big-endian:
//   - picture type
//   - MIME type length, MIME type
//   - description length, description
//   - width, height, color depth, colors used
//   - image data length, image data
func ParsePicture(data []byte, path string) ([]byte, error) {
	cr := binary.NewChainReader(binary.NewReader(binary.FromBytes(data, path), 0))
	cr.Skip(4) // picture type
	mimeLength := binary.ReadChained[uint32](cr, "MIME type length")
	cr.Skip(int64(mimeLength))
	descLength := binary.ReadChained[uint32](cr, "description length")
	cr.Skip(int64(descLength))
	cr.Skip(16) // width, height, color depth, colors used
	picLength := binary.ReadChained[uint32](cr, "picture length")
	if err := cr.Error(); err != nil {
		return nil, err
	}

	// A declared length past the block end yields what is there.
	start := cr.Offset()
	if start > int64(len(data)) {
		return nil, fmt.Errorf("%s: picture data starts past the end of the block: %w", path, binary.ErrOutOfBounds)
	}
	end := min(start+int64(picLength), int64(len(data)))
	return data[start:end], nil
}

// parseBase64Picture decodes a metadata_block_picture comment value.
func parseBase64Picture(value, path string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 picture: %w", err)
	}
	return ParsePicture(data, path)
}

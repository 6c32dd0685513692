// Package flac reads native FLAC metadata blocks.
package flac

import (
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/id3"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
	"github.com/simonhull/audiotag/internal/vorbis"
)

// Metadata block types
const (
	blockTypeStreamInfo    = 0
	blockTypeVorbisComment = 4
	blockTypePicture       = 6
	blockTypeInvalid       = 127
)

// streamInfoSize is the minimum size of a STREAMINFO block.
const streamInfoSize = 34

// parser implements registry.FormatParser for FLAC files. Tags and stream
// properties come from the same metadata blocks, so one pass reads both.
type parser struct{}

// Parse reads a FLAC stream with an optional leading ID3v2 tag.
func (p *parser) Parse(sr *binary.SafeReader, ctx *types.Context, tags *types.Tags) error {
	return ParseStream(sr, ctx, tags)
}

// ParseStream reads the optional ID3v2 tag, the "fLaC" marker and the
// metadata blocks. Values from the ID3 tag are merged after those of the
// Vorbis comments.
func ParseStream(sr *binary.SafeReader, ctx *types.Context, tags *types.Tags) error {
	id3Tags := &types.Tags{}
	off, err := id3.ParseTag(sr, ctx, id3Tags, false)
	if err != nil {
		return err
	}

	if marker := sr.Peek(off, 4); string(marker) != "fLaC" {
		return &types.InvalidContainerError{
			Path:   sr.Path(),
			Format: types.FormatFLAC,
			Reason: fmt.Sprintf("missing fLaC marker, found %q", marker),
			Offset: off,
		}
	}

	if err := ParseBlocks(sr, off+4, ctx, tags); err != nil {
		return err
	}
	tags.Update(id3Tags)
	return nil
}

// ParseBlocks reads metadata blocks starting at off until the last-block
// flag, an invalid block type or the end of the stream.
func ParseBlocks(sr *binary.SafeReader, off int64, ctx *types.Context, tags *types.Tags) error {
	for {
		header, err := binary.Read[uint32](sr, off, "metadata block header")
		if err != nil {
			return nil
		}
		isLast := header>>31 == 1
		blockType := int(header>>24) & 0x7F
		size := int(header & 0x00FFFFFF)
		dataOff := off + 4
		ctx.Debug("flac block", "type", blockType, "offset", off, "size", size)

		switch {
		case blockType == blockTypeStreamInfo && ctx.ParseDuration:
			data := sr.Peek(dataOff, size)
			if len(data) < streamInfoSize {
				ctx.WarnErr("duration", off, &types.MalformedUnitError{
					Unit: "FLAC STREAMINFO", Reason: fmt.Sprintf("block has %d bytes", len(data)), Offset: off,
				})
				return nil
			}
			parseStreamInfo(data, ctx, tags, off)

		case blockType == blockTypeVorbisComment && ctx.ParseTags:
			if err := vorbis.ParseComments(sr.Peek(dataOff, size), true, ctx, tags); err != nil {
				return err
			}

		case blockType == blockTypePicture && ctx.LoadImage:
			image, err := vorbis.ParsePicture(sr.Peek(dataOff, size), sr.Path())
			if err != nil {
				ctx.WarnErr("image", off, err)
			} else {
				tags.Set("image", image)
			}

		case blockType >= blockTypeInvalid:
			ctx.WarnErr("tags", off, &types.MalformedUnitError{
				Unit: "FLAC metadata block", Reason: "invalid block type 127", Offset: off,
			})
			return nil
		}

		if isLast {
			return nil
		}
		off = dataOff + int64(size)
	}
}

// parseStreamInfo decodes the bit-packed STREAMINFO fields. Bytes 10 to 17
// hold sample rate (20 bits), channels - 1 (3 bits), bits per sample - 1
// (5 bits) and the total sample count (36 bits).
func parseStreamInfo(data []byte, ctx *types.Context, tags *types.Tags, off int64) {
	packed := binary.Uint(data[10:18], binary.BigEndian)

	sampleRate := int(packed >> 44)
	tags.Set("samplerate", sampleRate)
	tags.Set("channels", int(packed>>41&0x07)+1)
	tags.Set("bitdepth", int(packed>>36&0x1F)+1)

	if sampleRate == 0 {
		ctx.WarnErr("duration", off, &types.MalformedUnitError{
			Unit: "FLAC STREAMINFO", Reason: "sample rate is zero", Offset: off,
		})
		return
	}
	totalSamples := packed & 0xFFFFFFFFF
	duration := float64(totalSamples) / float64(sampleRate)
	tags.Set("duration", duration)
	if duration > 0 {
		tags.Set("bitrate", float64(ctx.Size)/duration*8/1000)
	}
}

// init registers the FLAC parser
func init() {
	registry.Register(types.FormatFLAC, &parser{})
}

// Package aiff reads AIFF and AIFF-C files.
package aiff

import (
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/riff"
	"github.com/simonhull/audiotag/internal/text"
	"github.com/simonhull/audiotag/internal/types"
)

// textChunks maps IFF text chunk ids to field names.
var textChunks = map[string]string{
	"NAME": "title",
	"AUTH": "artist",
	"ANNO": "comment",
	"(c) ": "extra.copyright",
}

// parser implements registry.FormatParser for AIFF files.
type parser struct{}

// Parse walks the chunks following the FORM header.
func (p *parser) Parse(sr *binary.SafeReader, ctx *types.Context, tags *types.Tags) error {
	header := sr.Peek(0, 12)
	if len(header) < 12 || string(header[:4]) != "FORM" ||
		(string(header[8:]) != "AIFF" && string(header[8:]) != "AIFC") {
		return &types.InvalidContainerError{
			Path:   sr.Path(),
			Format: types.FormatAIFF,
			Reason: fmt.Sprintf("missing FORM/AIFF header, found %q", header),
		}
	}

	dec, err := text.ForContext(ctx)
	if err != nil {
		return err
	}
	return riff.Walk(sr, 12, binary.BigEndian, func(c riff.Chunk) (bool, error) {
		ctx.Debug("iff chunk", "id", c.ID, "offset", c.Offset, "size", c.Size)
		field, isText := textChunks[c.ID]
		switch {
		case isText && ctx.ParseTags:
			value, err := dec.IFF(sr.Peek(c.DataOffset(), int(c.Size)))
			if err != nil {
				return false, err
			}
			tags.Set(field, value)
		case c.ID == "COMM" && ctx.ParseDuration:
			parseCommon(c.Data(sr), ctx, tags, c.Offset)
		case riff.IsID3(c.ID) && ctx.ParseTags:
			return true, riff.ParseID3(sr, c, ctx, tags)
		}
		return true, nil
	})
}

// parseCommon reads the COMM chunk: channels, frame count, bit depth and
// the sample rate as an 80-bit extended float. A sample rate that does not
// decode to a usable integer leaves rate, duration and bitrate unset.
func parseCommon(data *binary.SafeReader, ctx *types.Context, tags *types.Tags, off int64) {
	cr := binary.NewChainReader(binary.NewReader(data, 0))
	channels := int16(binary.ReadChained[uint16](cr, "channels"))
	frames := binary.ReadChained[uint32](cr, "frame count")
	bitDepth := int16(binary.ReadChained[uint16](cr, "sample size"))
	exponent := binary.ReadChained[uint16](cr, "sample rate exponent")
	mantissa := binary.ReadChained[uint64](cr, "sample rate mantissa")
	if err := cr.Error(); err != nil {
		ctx.WarnErr("duration", off, &types.MalformedUnitError{Unit: "AIFF COMM chunk", Reason: err.Error(), Offset: off})
		return
	}

	tags.Set("channels", int(channels))
	tags.Set("bitdepth", int(bitDepth))

	sampleRate, ok := binary.ExtendedInt(exponent, mantissa)
	if !ok {
		ctx.WarnErr("duration", off, &types.MalformedUnitError{
			Unit:   "AIFF COMM chunk",
			Reason: fmt.Sprintf("sample rate exponent %#x mantissa %#x out of range", exponent, mantissa),
			Offset: off,
		})
		return
	}
	tags.Set("samplerate", sampleRate)
	tags.Set("duration", float64(frames)/float64(sampleRate))
	tags.Set("bitrate", float64(sampleRate)*float64(channels)*float64(bitDepth)/1000)
}

// init registers the AIFF parser
func init() {
	registry.Register(types.FormatAIFF, &parser{})
}

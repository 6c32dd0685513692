// Package id3 reads ID3v1 and ID3v2 tags and estimates the duration of MPEG
// audio streams.
package id3

import (
	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/text"
	"github.com/simonhull/audiotag/internal/types"
)

// parser implements registry.FormatParser and registry.DurationParser for
// MPEG audio files.
type parser struct{}

// Parse reads the ID3v2 tag at the start of the file and an ID3v1 tag at
// its end.
func (p *parser) Parse(sr *binary.SafeReader, ctx *types.Context, tags *types.Tags) error {
	_, err := ParseTag(sr, ctx, tags, true)
	return err
}

// ParseDuration scans the MPEG frames following the ID3v2 tag.
func (p *parser) ParseDuration(sr *binary.SafeReader, ctx *types.Context, tags *types.Tags) error {
	var start int64
	if h, ok := readHeader(sr); ok {
		start = h.End()
	}
	s := &mpegScanner{sr: sr, ctx: ctx, tags: tags}
	s.scan(start)
	return nil
}

// ParseTag reads an ID3v2 tag at the start of sr into tags and returns the
// offset just past it, or 0 when sr does not start with a tag. withV1 also
// reads an ID3v1 tag from the last 128 bytes; tags embedded in other
// containers never carry one.
func ParseTag(sr *binary.SafeReader, ctx *types.Context, tags *types.Tags, withV1 bool) (int64, error) {
	dec, err := text.ForContext(ctx)
	if err != nil {
		return 0, err
	}

	var end int64
	if h, ok := readHeader(sr); ok {
		end = h.End()
		ctx.Debug("id3v2 tag", "version", h.Major, "size", h.Size)
		if err := parseFrames(sr, ctx, tags, dec, h); err != nil {
			return end, err
		}
	}

	if withV1 && ctx.ParseTags {
		if err := parseV1(sr, dec, tags); err != nil {
			return end, err
		}
	}
	return end, nil
}

// parseFrames iterates the frames of an ID3v2 tag until the tag end, a
// truncated header or a zero-sized frame.
func parseFrames(sr *binary.SafeReader, ctx *types.Context, tags *types.Tags, dec *text.Decoder, h Header) error {
	if h.Size == 0 {
		return nil
	}

	if h.Unsynchronised() && h.Major < 4 {
		raw := sr.Peek(0, int(h.End()))
		body := resync(raw[HeaderSize:])
		sr = binary.FromBytes(append(raw[:HeaderSize:HeaderSize], body...), sr.Path())
	}

	off := int64(HeaderSize)
	if h.Extended() {
		ext := sr.Peek(off, 4)
		if len(ext) < 4 {
			ctx.WarnErr("tags", off, &types.MalformedUnitError{
				Unit: "ID3 extended header", Reason: "truncated", Offset: off,
			})
			return nil
		}
		off += int64(binary.Synchsafe(ext))
	}

	end := min(h.End(), sr.Size())
	fp := &frameParser{
		sr:        sr,
		ctx:       ctx,
		tags:      tags,
		dec:       dec,
		major:     h.Major,
		tagUnsync: h.Major == 4 && h.Unsynchronised(),
	}
	for off < end {
		n, err := fp.frame(off)
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		off += n
	}
	return nil
}

// init registers the ID3 parser
func init() {
	registry.Register(types.FormatID3, &parser{})
}

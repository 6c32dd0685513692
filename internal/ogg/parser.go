package ogg

import (
	"bytes"
	"encoding/binary"
	"io"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/flac"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/text"
	"github.com/simonhull/audiotag/internal/types"
	"github.com/simonhull/audiotag/internal/vorbis"
)

// Packet type prefixes.
var (
	vorbisIdent   = []byte("\x01vorbis")
	vorbisComment = []byte("\x03vorbis")
	opusHead      = []byte("OpusHead")
	opusTags      = []byte("OpusTags")
	flacHead      = []byte("\x7fFLAC")
	speexHead     = []byte("Speex   ")
)

// opusSampleRate is the rate Opus always decodes at, whatever the header
// declares.
const opusSampleRate = 48000

// vorbisCommentBlock is the FLAC metadata block type of a comment block.
const vorbisCommentBlock = 4

// parser implements registry.FormatParser and registry.DurationParser for
// Ogg streams.
type parser struct{}

// Parse reads the codec headers and comment packets at the start of the
// stream.
func (p *parser) Parse(sr *binutil.SafeReader, ctx *types.Context, tags *types.Tags) error {
	return parseHeaders(sr, ctx, tags)
}

// ParseDuration derives the duration from the granule position of the last
// pages. The sample rate comes from the codec headers, which are read here
// when the tag pass did not run.
func (p *parser) ParseDuration(sr *binutil.SafeReader, ctx *types.Context, tags *types.Tags) error {
	if !ctx.ParseTags {
		if err := parseHeaders(sr, ctx, tags); err != nil {
			return err
		}
	}
	if tags.Duration != 0 || tags.SampleRate == 0 {
		// FLAC-in-Ogg already has a duration; without a rate there is none.
		return nil
	}

	start := max(sr.Size()-maxPageSize, 0)
	start = sr.Index(start, []byte("OggS"))
	if start < 0 {
		return nil
	}
	d := newDemuxer(sr, start)
	if err := d.drain(); err != nil {
		return err
	}
	ctx.Debug("ogg last granule", "offset", start, "granule", d.maxGranule)
	tags.Set("duration", float64(d.maxGranule)/float64(tags.SampleRate))
	return nil
}

// headerPass dispatches packets by their type prefix.
type headerPass struct {
	sr   *binutil.SafeReader
	ctx  *types.Context
	tags *types.Tags

	flacSecond  bool // the next packet is a FLAC metadata block
	speexSecond bool // the next packet is a Speex comment packet
}

func parseHeaders(sr *binutil.SafeReader, ctx *types.Context, tags *types.Tags) error {
	h := &headerPass{sr: sr, ctx: ctx, tags: tags}
	d := newDemuxer(sr, 0)
	for {
		packet, err := d.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		more, err := h.packet(packet)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// packet handles one packet and reports whether to continue.
func (h *headerPass) packet(packet []byte) (bool, error) {
	switch {
	case bytes.HasPrefix(packet, vorbisIdent):
		if h.ctx.ParseDuration {
			h.vorbisIdent(packet)
		}
	case bytes.HasPrefix(packet, vorbisComment):
		if h.ctx.ParseTags {
			return true, vorbis.ParseComments(packet[len(vorbisComment):], true, h.ctx, h.tags)
		}
	case bytes.HasPrefix(packet, opusHead):
		if h.ctx.ParseDuration {
			h.opusHead(packet)
		}
	case bytes.HasPrefix(packet, opusTags):
		if h.ctx.ParseTags {
			return true, vorbis.ParseComments(packet[len(opusTags):], true, h.ctx, h.tags)
		}
	case bytes.HasPrefix(packet, flacHead):
		h.flacSecond = true
		return true, h.flacHead(packet)
	case h.flacSecond:
		h.flacSecond = false
		if h.ctx.ParseTags && len(packet) >= 4 && packet[0]&0x7F == vorbisCommentBlock {
			return true, vorbis.ParseComments(packet[4:], true, h.ctx, h.tags)
		}
	case bytes.HasPrefix(packet, speexHead):
		if h.ctx.ParseDuration {
			h.speexHead(packet)
		}
		h.speexSecond = true
	case h.speexSecond:
		h.speexSecond = false
		if h.ctx.ParseTags {
			return true, h.speexComments(packet)
		}
	default:
		h.ctx.Debug("unsupported ogg packet", "prefix", packet[:min(len(packet), 16)])
		return false, nil
	}
	return true, nil
}

func (h *headerPass) malformed(unit string) {
	h.ctx.WarnErr("duration", 0, &types.MalformedUnitError{Unit: unit, Reason: "packet is truncated"})
}

// vorbisIdent reads channels, sample rate and nominal bitrate.
func (h *headerPass) vorbisIdent(packet []byte) {
	if len(packet) < 28 {
		h.malformed("Vorbis identification header")
		return
	}
	h.tags.Set("channels", int(packet[11]))
	h.tags.Set("samplerate", int(int32(binary.LittleEndian.Uint32(packet[12:]))))
	h.tags.Set("bitrate", float64(int32(binary.LittleEndian.Uint32(packet[20:])))/1000)
}

// opusHead reads the channel count of an Opus stream with major version 0.
func (h *headerPass) opusHead(packet []byte) {
	if len(packet) < 19 {
		h.malformed("Opus identification header")
		return
	}
	if version := packet[8]; version&0xF0 != 0 {
		h.ctx.Debug("unsupported opus version", "version", version)
		return
	}
	h.tags.Set("channels", int(packet[9]))
	h.tags.Set("samplerate", opusSampleRate)
}

// flacHead parses the native FLAC stream carried after the 9-byte mapping
// header and merges what it finds.
func (h *headerPass) flacHead(packet []byte) error {
	stream := packet[min(len(packet), 9):]
	nested := &types.Tags{}
	err := flac.ParseStream(binutil.FromBytes(stream, h.sr.Path()), h.ctx, nested)
	if err != nil {
		return err
	}
	h.tags.Update(nested)
	return nil
}

// speexHead reads sample rate, channels and bitrate from the Speex header.
func (h *headerPass) speexHead(packet []byte) {
	if len(packet) < 56 {
		h.malformed("Speex header")
		return
	}
	field := func(i int) int32 {
		return int32(binary.LittleEndian.Uint32(packet[36+4*i:]))
	}
	h.tags.Set("samplerate", int(field(0)))
	h.tags.Set("channels", int(field(3)))
	h.tags.Set("bitrate", float64(field(4))/1000)
}

// speexComments reads the Speex comment packet: a length-prefixed comment
// string followed by comments without a vendor string.
func (h *headerPass) speexComments(packet []byte) error {
	if len(packet) < 4 {
		h.ctx.WarnErr("tags", 0, &types.MalformedUnitError{Unit: "Speex comment packet", Reason: "packet is truncated"})
		return nil
	}
	length := int64(binary.LittleEndian.Uint32(packet))
	end := min(4+length, int64(len(packet)))

	dec, err := text.ForContext(h.ctx)
	if err != nil {
		return err
	}
	comment, err := dec.UTF8(packet[4:end])
	if err != nil {
		return err
	}
	h.tags.Set("comment", comment)
	return vorbis.ParseComments(packet[end:], false, h.ctx, h.tags)
}

// init registers the Ogg parser
func init() {
	registry.Register(types.FormatOgg, &parser{})
}

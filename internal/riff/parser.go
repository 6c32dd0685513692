package riff

import (
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/text"
	"github.com/simonhull/audiotag/internal/types"
)

// infoFields maps LIST/INFO sub-chunk ids to field names. PRT2 keeps its
// own name instead of feeding track_total.
var infoFields = map[string]string{
	"INAM": "title",
	"TITL": "title",
	"IPRD": "album",
	"IART": "artist",
	"IBPM": "extra.bpm",
	"ICMT": "comment",
	"IMUS": "extra.composer",
	"ICOP": "extra.copyright",
	"ICRD": "year",
	"IGNR": "genre",
	"ILNG": "extra.language",
	"ISRC": "extra.isrc",
	"IPUB": "extra.publisher",
	"IPRT": "track",
	"ITRK": "track",
	"TRCK": "track",
	"PRT1": "track",
	"PRT2": "track_number",
	"IBSU": "extra.url",
	"YEAR": "year",
}

// defaultBitDepth is assumed until a fmt chunk says otherwise.
const defaultBitDepth = 16

// parser implements registry.FormatParser for WAV files. Stream properties
// and tags share one chunk list, so one pass reads both.
type parser struct{}

// Parse walks the chunks following the RIFF/WAVE header.
func (p *parser) Parse(sr *binary.SafeReader, ctx *types.Context, tags *types.Tags) error {
	header := sr.Peek(0, 12)
	if len(header) < 12 || string(header[:4]) != "RIFF" || string(header[8:]) != "WAVE" {
		return &types.InvalidContainerError{
			Path:   sr.Path(),
			Format: types.FormatWAV,
			Reason: fmt.Sprintf("missing RIFF/WAVE header, found %q", header),
		}
	}

	dec, err := text.ForContext(ctx)
	if err != nil {
		return err
	}
	w := &wave{sr: sr, ctx: ctx, tags: tags, dec: dec, bitDepth: defaultBitDepth}
	if ctx.ParseDuration {
		tags.Set("bitdepth", defaultBitDepth)
	}
	return Walk(sr, 12, binary.LittleEndian, w.chunk)
}

type wave struct {
	sr   *binary.SafeReader
	ctx  *types.Context
	tags *types.Tags
	dec  *text.Decoder

	channels   int
	sampleRate int
	bitDepth   int
}

func (w *wave) chunk(c Chunk) (bool, error) {
	w.ctx.Debug("riff chunk", "id", c.ID, "offset", c.Offset, "size", c.Size)
	switch {
	case c.ID == "fmt " && w.ctx.ParseDuration:
		w.format(c)
	case c.ID == "data" && w.ctx.ParseDuration:
		w.data(c)
	case c.ID == "LIST" && w.ctx.ParseTags:
		return true, w.list(c)
	case IsID3(c.ID) && w.ctx.ParseTags:
		return true, ParseID3(w.sr, c, w.ctx, w.tags)
	}
	return true, nil
}

// format reads channels, sample rate and bit depth. A bit depth of 0, as
// some codecs declare, is read as 1.
func (w *wave) format(c Chunk) {
	cr := binary.NewChainReaderLE(binary.NewReader(c.Data(w.sr), 0))
	cr.Skip(2) // audio format
	channels := binary.ReadChained[uint16](cr, "channels")
	sampleRate := binary.ReadChained[uint32](cr, "sample rate")
	cr.Skip(4 + 2) // byte rate, block align
	bitDepth := binary.ReadChained[uint16](cr, "bits per sample")
	if err := cr.Error(); err != nil {
		w.ctx.WarnErr("duration", c.Offset, &types.MalformedUnitError{
			Unit: "WAV fmt chunk", Reason: err.Error(), Offset: c.Offset,
		})
		return
	}

	w.channels, w.sampleRate, w.bitDepth = int(channels), int(sampleRate), max(int(bitDepth), 1)
	w.tags.Set("channels", w.channels)
	w.tags.Set("samplerate", w.sampleRate)
	w.tags.Set("bitdepth", w.bitDepth)
	w.tags.Set("bitrate", float64(w.sampleRate*w.channels*w.bitDepth)/1000)
}

// data derives the duration from the size of the sample data.
func (w *wave) data(c Chunk) {
	if w.channels == 0 || w.sampleRate == 0 {
		w.ctx.Debug("wav data chunk before usable fmt chunk", "offset", c.Offset)
		return
	}
	bytesPerSecond := float64(w.channels) * float64(w.sampleRate) * float64(w.bitDepth) / 8
	w.tags.Set("duration", float64(c.Size)/bytesPerSecond)
}

// list reads the sub-chunks of a LIST/INFO chunk. Other list types are
// skipped.
func (w *wave) list(c Chunk) error {
	data := c.Data(w.sr)
	if kind := data.Peek(0, 4); string(kind) != "INFO" {
		w.ctx.Debug("skipping riff list", "type", string(kind), "offset", c.Offset)
		return nil
	}
	return Walk(data, 4, binary.LittleEndian, func(sub Chunk) (bool, error) {
		field, ok := infoFields[sub.ID]
		if !ok {
			return true, nil
		}
		value, err := w.dec.RIFF(data.Peek(sub.DataOffset(), int(sub.Size)))
		if err != nil {
			return false, err
		}
		if field == "track" {
			if err := w.tags.SetNumber(field, value); err != nil {
				w.ctx.WarnErr("tags", c.DataOffset()+sub.Offset, err)
			}
			return true, nil
		}
		w.tags.Set(field, value)
		return true, nil
	})
}

// init registers the WAV parser
func init() {
	registry.Register(types.FormatWAV, &parser{})
}

// Package asf reads the header objects of ASF (WMA) files.
package asf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/text"
	"github.com/simonhull/audiotag/internal/types"
)

// Object GUIDs as stored on disk.
var (
	guidHeader             = []byte("\x30\x26\xB2\x75\x8E\x66\xCF\x11\xA6\xD9\x00\xAA\x00\x62\xCE\x6C")
	guidContentDescription = []byte("\x33\x26\xB2\x75\x8E\x66\xCF\x11\xA6\xD9\x00\xAA\x00\x62\xCE\x6C")
	guidExtendedContent    = []byte("\x40\xA4\xD0\xD2\x07\xE3\xD2\x11\x97\xF0\x00\xA0\xC9\x5E\xA8\x50")
	guidFileProperties     = []byte("\xA1\xDC\xAB\x8C\x47\xA9\xCF\x11\x8E\xE4\x00\xC0\x0C\x20\x53\x65")
	guidStreamProperties   = []byte("\x91\x07\xDC\xB7\xB7\xA9\xCF\x11\x8E\xE6\x00\xC0\x0C\x20\x53\x65")
	guidAudioMedia         = []byte("\x40\x9E\x69\xF8\x4D\x5B\xCF\x11\xA8\xFD\x00\x80\x5F\x5C\x44\x2B")
)

const (
	// headerSize covers the header object GUID, size, object count and the
	// two reserved bytes, the second of which must be 2.
	headerSize = 30

	objectHeaderSize = 24

	// codecWMALossless is the format tag of Windows Media Audio Lossless.
	codecWMALossless = 355
)

// parser implements registry.FormatParser for ASF files. Tags and stream
// properties live side by side in the header object, so one pass reads both.
type parser struct{}

// Parse walks the objects following the ASF header.
func (p *parser) Parse(sr *binary.SafeReader, ctx *types.Context, tags *types.Tags) error {
	header := sr.Peek(0, headerSize)
	if len(header) < headerSize || !bytes.Equal(header[:16], guidHeader) || header[29] != 2 {
		return &types.InvalidContainerError{
			Path:   sr.Path(),
			Format: types.FormatWMA,
			Reason: "missing ASF header object",
		}
	}

	dec, err := text.ForContext(ctx)
	if err != nil {
		return err
	}
	o := &objects{ctx: ctx, tags: tags, dec: dec}

	off := int64(headerSize)
	for {
		id := sr.Peek(off, 16)
		size, err := binary.ReadLE[uint64](sr, off+16, "object size")
		if err != nil || len(id) < 16 {
			return nil
		}
		if size == 0 || size > uint64(sr.Size()) {
			ctx.Debug("asf object size out of range", "offset", off, "size", size)
			return nil
		}
		if size < objectHeaderSize {
			ctx.WarnErr("tags", off, &types.MalformedUnitError{
				Unit: "ASF object", Reason: fmt.Sprintf("size %d is smaller than its header", size), Offset: off,
			})
			return nil
		}

		body := sr.Section(off+objectHeaderSize, int64(size)-objectHeaderSize)
		if err := o.dispatch(id, body, off); err != nil {
			return err
		}
		off += int64(size)
	}
}

// objects decodes the payload of recognized header objects.
type objects struct {
	ctx  *types.Context
	tags *types.Tags
	dec  *text.Decoder
}

func (o *objects) dispatch(id []byte, body *binary.SafeReader, off int64) error {
	switch {
	case bytes.Equal(id, guidContentDescription) && o.ctx.ParseTags:
		return o.contentDescription(body, off)
	case bytes.Equal(id, guidExtendedContent) && o.ctx.ParseTags:
		return o.extendedContentDescription(body, off)
	case bytes.Equal(id, guidFileProperties) && o.ctx.ParseDuration:
		o.fileProperties(body, off)
	case bytes.Equal(id, guidStreamProperties) && o.ctx.ParseDuration:
		o.streamProperties(body, off)
	}
	return nil
}

func (o *objects) malformed(stage, unit string, off int64, err error) {
	o.ctx.WarnErr(stage, off, &types.MalformedUnitError{Unit: unit, Reason: err.Error(), Offset: off})
}

// contentDescription reads five length-prefixed UTF-16 strings: title,
// author, copyright, description and rating.
func (o *objects) contentDescription(body *binary.SafeReader, off int64) error {
	cr := binary.NewChainReaderLE(binary.NewReader(body, 0))
	var lengths [5]uint16
	for i := range lengths {
		lengths[i] = binary.ReadChained[uint16](cr, "content description length")
	}
	fields := [5]string{"title", "artist", "", "comment", ""}
	for i, name := range fields {
		raw := cr.Bytes(int(lengths[i]), "content description field")
		if cr.Error() != nil {
			break
		}
		if name == "" {
			continue
		}
		value, err := o.dec.UTF16(raw)
		if err != nil {
			return err
		}
		o.tags.Set(name, value)
	}
	if err := cr.Error(); err != nil {
		o.malformed("tags", "ASF content description", off, err)
	}
	return nil
}

// extendedFields maps WM/ attribute names to field names. Unmapped names
// become lower-cased extra fields.
var extendedFields = map[string]string{
	"WM/TrackNumber":    "track",
	"WM/PartOfSet":      "disc",
	"WM/Year":           "year",
	"WM/AlbumArtist":    "albumartist",
	"WM/Genre":          "genre",
	"WM/AlbumTitle":     "album",
	"WM/Composer":       "extra.composer",
	"WM/Publisher":      "extra.publisher",
	"WM/BeatsPerMinute": "extra.bpm",
	"WM/InitialKey":     "extra.initial_key",
	"WM/Lyrics":         "extra.lyrics",
	"WM/Language":       "extra.language",
	"WM/AuthorURL":      "extra.url",
}

// Extended content descriptor value types
const (
	valueUnicode = 0
	valueBytes   = 1
	valueBool    = 2
	valueDWord   = 3
	valueQWord   = 4
	valueWord    = 5
)

// extendedContentDescription reads name/type/value descriptors.
func (o *objects) extendedContentDescription(body *binary.SafeReader, off int64) error {
	cr := binary.NewChainReaderLE(binary.NewReader(body, 0))
	count := binary.ReadChained[uint16](cr, "descriptor count")
	for range count {
		nameLen := binary.ReadChained[uint16](cr, "descriptor name length")
		rawName := cr.Bytes(int(nameLen), "descriptor name")
		valueType := binary.ReadChained[uint16](cr, "descriptor value type")
		valueLen := binary.ReadChained[uint16](cr, "descriptor value length")
		raw := cr.Bytes(int(valueLen), "descriptor value")
		if cr.Error() != nil {
			break
		}
		if valueType == valueBytes {
			continue
		}

		name, err := o.dec.UTF16(rawName)
		if err != nil {
			return err
		}
		field, ok := extendedFields[name]
		if !ok {
			field = types.ExtraPrefix + strings.ToLower(strings.TrimPrefix(name, "WM/"))
		}

		var value any
		switch valueType {
		case valueUnicode:
			s, err := o.dec.UTF16(raw)
			if err != nil {
				return err
			}
			value = s
		case valueBool, valueDWord, valueQWord, valueWord:
			value = int(binary.Uint(raw, binary.LittleEndian))
		default:
			o.ctx.Debug("unknown asf value type", "name", name, "type", valueType)
			continue
		}

		if field == "track" || field == "disc" {
			if s, ok := value.(string); ok {
				if err := o.tags.SetNumber(field, s); err != nil {
					o.ctx.WarnErr("tags", off, err)
				}
				continue
			}
		}
		o.tags.Set(field, value)
	}
	if err := cr.Error(); err != nil {
		o.malformed("tags", "ASF extended content description", off, err)
	}
	return nil
}

// fileProperties reads the play duration, in 100ns units, and the preroll,
// in milliseconds, which is subtracted from it.
func (o *objects) fileProperties(body *binary.SafeReader, off int64) {
	cr := binary.NewChainReaderLE(binary.NewReader(body, 0))
	cr.Skip(40) // file id, file size, creation date, packet count
	play := binary.ReadChained[uint64](cr, "play duration")
	cr.Skip(8) // send duration
	preroll := binary.ReadChained[uint64](cr, "preroll")
	if err := cr.Error(); err != nil {
		o.malformed("duration", "ASF file properties", off, err)
		return
	}
	duration := float64(play)/1e7 - float64(preroll)/1000
	o.tags.Set("duration", max(duration, 0))
}

// streamProperties reads the WAVEFORMATEX of an audio stream.
func (o *objects) streamProperties(body *binary.SafeReader, off int64) {
	cr := binary.NewChainReaderLE(binary.NewReader(body, 0))
	streamType := cr.Bytes(16, "stream type")
	cr.Skip(16 + 8 + 4 + 4 + 2 + 4) // error correction type, time offset, lengths, flags, reserved
	if cr.Error() != nil || !bytes.Equal(streamType, guidAudioMedia) {
		return
	}

	codec := binary.ReadChained[uint16](cr, "codec id")
	channels := binary.ReadChained[uint16](cr, "channels")
	sampleRate := binary.ReadChained[uint32](cr, "sample rate")
	byteRate := binary.ReadChained[uint32](cr, "average bytes per second")
	cr.Skip(2) // block alignment
	bitsPerSample := binary.ReadChained[uint16](cr, "bits per sample")
	if err := cr.Error(); err != nil {
		o.malformed("duration", "ASF stream properties", off, err)
		return
	}

	o.ctx.Debug("asf audio stream", "codec", codec, "offset", off)
	o.tags.Set("channels", int(channels))
	o.tags.Set("samplerate", int(sampleRate))
	o.tags.Set("bitrate", float64(byteRate)*8/1000)
	if codec == codecWMALossless {
		o.tags.Set("bitdepth", int(bitsPerSample))
	}
}

// init registers the ASF parser
func init() {
	registry.Register(types.FormatWMA, &parser{})
}

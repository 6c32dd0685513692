package id3

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/text"
	"github.com/simonhull/audiotag/internal/types"
)

// frameFields maps v2.2 and v2.3/v2.4 frame ids to tag field names.
var frameFields = map[string]string{
	"COMM": "comment", "COM": "comment",
	"TRCK": "track", "TRK": "track",
	"TYER": "year", "TYE": "year", "TDRC": "year",
	"TALB": "album", "TAL": "album",
	"TPE1": "artist", "TP1": "artist",
	"TIT2": "title", "TT2": "title",
	"TCON": "genre", "TCO": "genre",
	"TPOS": "disc", "TPA": "disc",
	"TPE2": "albumartist", "TP2": "albumartist",
	"TCOM": "extra.composer", "TCM": "extra.composer",
	"WOAR": "extra.url", "WAR": "extra.url",
	"TSRC": "extra.isrc",
	"TCOP": "extra.copyright", "TCR": "extra.copyright",
	"TBPM": "extra.bpm",
	"TKEY": "extra.initial_key",
	"TLAN": "extra.language", "TLA": "extra.language",
	"TPUB": "extra.publisher", "TPB": "extra.publisher",
	"USLT": "extra.lyrics", "ULT": "extra.lyrics",
}

var (
	imageFrames  = map[string]bool{"APIC": true, "PIC": true}
	customFrames = map[string]bool{"TXXX": true, "TXX": true}

	// Frames carrying binary payloads that would be noise as text.
	disallowedFrames = map[string]bool{"PRIV": true, "RGAD": true, "GEOB": true, "GEO": true, "ÿû°d": true}
)

// frameParser walks the frames of one ID3v2 tag.
type frameParser struct {
	sr    *binary.SafeReader
	ctx   *types.Context
	tags  *types.Tags
	dec   *text.Decoder
	major byte

	tagUnsync bool // v2.4 tag flag: every frame is unsynchronised
}

// frameLayout describes a frame header: v2.2 uses a 3-byte id and size,
// later versions a 4-byte id, a 4-byte size and 2 flag bytes. Only v2.4
// sizes are synchsafe.
func frameLayout(major byte) (headerSize, idLen, sizeLen int, bitsPerByte uint) {
	switch major {
	case 2:
		return 6, 3, 3, 8
	case 4:
		return 10, 4, 4, 7
	default:
		return 10, 4, 4, 8
	}
}

// frame decodes the frame at off and returns the number of bytes it spans,
// or 0 when iteration must stop.
func (p *frameParser) frame(off int64) (int64, error) {
	headerSize, idLen, sizeLen, bits := frameLayout(p.major)
	hdr := p.sr.Peek(off, headerSize)
	if len(hdr) < headerSize {
		return 0, nil
	}

	id := frameID(hdr[:idLen], p.dec)
	size := int64(binary.Folded(hdr[idLen:idLen+sizeLen], bits))
	if size == 0 {
		return 0, nil
	}

	content := p.sr.Peek(off+int64(headerSize), int(size))
	if int64(len(content)) < size {
		p.ctx.WarnErr("tags", off, &types.MalformedUnitError{
			Unit:   "ID3 frame " + id,
			Reason: "frame extends past the end of the stream",
			Offset: off,
		})
	}
	p.ctx.Debug("id3 frame", "id", id, "offset", off, "size", size)

	if p.major == 4 {
		// v2.4 format flags: 0x02 unsynchronisation, 0x01 data length
		// indicator ahead of the content.
		flags := hdr[9]
		if flags&0x01 != 0 && len(content) >= 4 {
			content = content[4:]
		}
		if flags&0x02 != 0 || p.tagUnsync {
			content = resync(content)
		}
	}

	if err := p.handle(id, content, off); err != nil {
		return 0, err
	}
	return int64(headerSize) + size, nil
}

func (p *frameParser) handle(id string, content []byte, off int64) error {
	field, mapped := frameFields[id]
	switch {
	case mapped:
		if !p.ctx.ParseTags {
			return nil
		}
		language := field == "comment" || field == "extra.lyrics"
		value, err := p.dec.ID3(content, language)
		if err != nil {
			return err
		}
		switch field {
		case "comment":
			// iTunes stores some custom fields as "key\x00value" comments.
			if p.setCustom(value) {
				return nil
			}
		case "track", "disc":
			if err := p.tags.SetNumberPair(field, value); err != nil {
				p.ctx.WarnErr("tags", off, err)
			}
			return nil
		case "genre":
			value = genreName(value)
		}
		p.tags.Set(field, value)

	case customFrames[id]:
		if !p.ctx.ParseTags {
			return nil
		}
		value, err := p.dec.ID3(content, false)
		if err != nil {
			return err
		}
		p.setCustom(value)

	case imageFrames[id]:
		if p.ctx.LoadImage {
			p.image(id, content, off)
		}

	case !disallowedFrames[id]:
		if !p.ctx.ParseTags {
			return nil
		}
		value, err := p.dec.ID3(content, false)
		if err != nil {
			return err
		}
		p.tags.Set(types.ExtraPrefix+strings.ToLower(id), value)
	}
	return nil
}

// setCustom stores "name\x00value" as extra.name.
func (p *frameParser) setCustom(content string) bool {
	name, value, ok := strings.Cut(content, "\x00")
	if !ok || name == "" {
		return false
	}
	p.tags.Set(types.ExtraPrefix+strings.ToLower(name), strings.TrimLeft(value, "\ufeff"))
	return true
}

// image extracts the picture bytes of an APIC or PIC frame.
func (p *frameParser) image(id string, content []byte, off int64) {
	if len(content) == 0 {
		return
	}
	malformed := func(reason string) {
		p.ctx.WarnErr("image", off, &types.MalformedUnitError{Unit: "ID3 frame " + id, Reason: reason, Offset: off})
	}

	var descStart int
	if id == "PIC" {
		descStart = 1 + 3 + 1 // encoding, image format, picture type
	} else {
		mimeEnd := bytes.IndexByte(content[1:], 0)
		if mimeEnd < 0 {
			malformed("unterminated MIME type")
			return
		}
		descStart = 1 + mimeEnd + 1 + 1 // skip MIME terminator and picture type
	}
	if descStart > len(content) {
		malformed("picture header is truncated")
		return
	}

	term := []byte{0, 0}
	if enc := content[0]; enc == 0 || enc == 3 {
		term = term[:1]
	}
	descLen := indexStep(content[descStart:], term)
	if descLen < 0 {
		malformed("unterminated description")
		return
	}
	p.tags.Set("image", content[descStart+descLen+len(term):])
}

// indexStep finds sep in b, only at offsets that are multiples of len(sep).
func indexStep(b, sep []byte) int {
	for i := 0; i < len(b); i += len(sep) {
		if bytes.HasPrefix(b[i:], sep) {
			return i
		}
	}
	return -1
}

// genreName resolves "13" and "(13)" through the ID3v1 genre table.
func genreName(value string) string {
	digits := value
	if len(value) > 2 && value[0] == '(' && value[len(value)-1] == ')' {
		digits = value[1 : len(value)-1]
	}
	if !isDigits(digits) {
		return value
	}
	idx, err := strconv.Atoi(digits)
	if err != nil {
		return value
	}
	if name, ok := genre(idx); ok {
		return name
	}
	return value
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// frameID decodes a frame id the way text payloads with an unknown
// encoding marker are decoded.
func frameID(b []byte, dec *text.Decoder) string {
	id, err := dec.ID3(b, false)
	if err != nil {
		return string(b)
	}
	return id
}

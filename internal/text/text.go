// Package text decodes tag strings stored in the byte conventions of the
// supported containers.
package text

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/simonhull/audiotag/internal/types"
)

// ErrInvalidText is wrapped by TextDecodeError under the strict policy.
var ErrInvalidText = errors.New("invalid byte sequence")

var (
	utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
)

// Decoder converts raw tag payloads to strings.
//
// The zero value decodes single-byte text as ISO-8859-1 and fails on invalid
// input.
type Decoder struct {
	// Forced replaces ISO-8859-1 as the single-byte encoding.
	Forced encoding.Encoding

	// Lenient replaces undecodable bytes with U+FFFD instead of failing.
	Lenient bool

	forcedName string
}

// New returns a decoder for the given options. name is an IANA or WHATWG
// encoding label; an empty name keeps ISO-8859-1.
func New(name string, lenient bool) (*Decoder, error) {
	d := &Decoder{Lenient: lenient}
	if name == "" {
		return d, nil
	}
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	d.Forced = enc
	d.forcedName = name
	return d, nil
}

// ForContext returns the decoder configured by a parse context.
func ForContext(ctx *types.Context) (*Decoder, error) {
	return New(ctx.Encoding, ctx.IgnoreErrors)
}

// Lookup resolves an encoding label.
func Lookup(name string) (encoding.Encoding, error) {
	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unknown text encoding %q", name)
	}
	return enc, nil
}

// Latin1 decodes b with the forced encoding, or ISO-8859-1, and trims NULs.
func (d *Decoder) Latin1(b []byte) (string, error) {
	if d.Forced != nil {
		return d.decode(d.Forced, d.forcedName, b)
	}
	return trimNUL(latin1(b)), nil
}

// UTF8 decodes b as UTF-8 and trims NULs.
func (d *Decoder) UTF8(b []byte) (string, error) {
	if !d.Lenient {
		if _, _, err := transform.Bytes(unicode.UTF8Validator, b); err != nil {
			return "", &types.TextDecodeError{Encoding: "utf-8", Err: ErrInvalidText}
		}
		return trimNUL(string(b)), nil
	}
	return trimNUL(Replace(b)), nil
}

// UTF16LE decodes little-endian UTF-16 without a byte order mark and trims
// NULs. An odd trailing byte is dropped.
func (d *Decoder) UTF16LE(b []byte) (string, error) {
	return d.decode(utf16LE, "utf-16le", even(b))
}

// UTF16 decodes UTF-16 using a leading byte order mark when present and
// little-endian otherwise.
func (d *Decoder) UTF16(b []byte) (string, error) {
	switch {
	case bytes.HasPrefix(b, []byte{0xFE, 0xFF}):
		return d.decode(utf16BE, "utf-16be", even(b[2:]))
	case bytes.HasPrefix(b, []byte{0xFF, 0xFE}):
		return d.decode(utf16LE, "utf-16le", even(b[2:]))
	default:
		return d.decode(utf16LE, "utf-16le", even(b))
	}
}

// RIFF decodes a RIFF INFO value: UTF-8 up to the first NUL.
func (d *Decoder) RIFF(b []byte) (string, error) {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return d.UTF8(b)
}

// IFF decodes an AIFF text chunk: UTF-8 with NUL padding trimmed.
func (d *Decoder) IFF(b []byte) (string, error) {
	return d.UTF8(b)
}

// ID3 decodes an ID3v2 text payload whose first byte selects the encoding.
// language marks frames (COMM, USLT) that carry a three-letter language
// code after the encoding byte.
func (d *Decoder) ID3(b []byte, language bool) (string, error) {
	if len(b) == 0 {
		return "", nil
	}

	var (
		enc  encoding.Encoding
		name string
	)
	switch b[0] {
	case 0x00:
		b = b[1:]
	case 0x01:
		b = b[1:]
		if language {
			if len(b) >= 5 && isBOM(b[3:5]) {
				b = b[3:]
			}
			if isAlpha3(b) {
				b = b[3:]
			}
			b = bytes.TrimLeft(b, "\x00")
		}
		enc, name = utf16LE, "utf-16le"
		if bytes.HasPrefix(b, []byte{0xFE, 0xFF}) {
			enc, name = utf16BE, "utf-16be"
		}
		if len(b) >= 2 && isBOM(b[:2]) {
			if len(b)%2 == 0 {
				b = b[2:]
			} else {
				b = b[2 : len(b)-1]
			}
		}
		if bytes.HasPrefix(b, []byte{0x00, 0x00, 0xFF, 0xFE}) {
			b = b[4:]
		}
	case 0x02:
		if len(b)%2 == 0 {
			b = b[1 : len(b)-1]
		} else {
			b = b[1:]
		}
		enc, name = utf16LE, "utf-16le"
	case 0x03:
		b = b[1:]
		if language && isAlpha3(b) {
			b = b[3:]
		}
		return d.UTF8(b)
	}

	if language && isAlpha3(b) {
		b = b[3:]
	}
	if enc == nil {
		return d.Latin1(b)
	}
	return d.decode(enc, name, even(b))
}

// decode runs enc over b. Under the strict policy the result must encode
// back to the same bytes.
func (d *Decoder) decode(enc encoding.Encoding, name string, b []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		if !d.Lenient {
			return "", &types.TextDecodeError{Encoding: name, Err: err}
		}
		out = []byte(Replace(b))
	}
	if !d.Lenient {
		back, err := enc.NewEncoder().Bytes(out)
		if err != nil || !bytes.Equal(back, b) {
			return "", &types.TextDecodeError{Encoding: name, Err: ErrInvalidText}
		}
	}
	return trimNUL(string(out)), nil
}

// Replace decodes b as UTF-8 replacing invalid bytes with U+FFFD.
func Replace(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}

// ShiftJIS decodes b as Shift-JIS, replacing invalid sequences.
func ShiftJIS(b []byte) string {
	out, err := japanese.ShiftJIS.NewDecoder().Bytes(b)
	if err != nil {
		return Replace(b)
	}
	return string(out)
}

// UTF16Replace decodes BOM-prefixed or little-endian UTF-16, replacing
// invalid sequences.
func UTF16Replace(b []byte) string {
	s, _ := (&Decoder{Lenient: true}).UTF16(b)
	return s
}

func latin1(b []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

func trimNUL(s string) string {
	return strings.Trim(s, "\x00")
}

func even(b []byte) []byte {
	return b[:len(b)&^1]
}

func isBOM(b []byte) bool {
	return bytes.Equal(b, []byte{0xFE, 0xFF}) || bytes.Equal(b, []byte{0xFF, 0xFE})
}

// isAlpha3 reports whether b starts with three ASCII letters.
func isAlpha3(b []byte) bool {
	if len(b) < 3 {
		return false
	}
	for _, c := range b[:3] {
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}

package types

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/simonhull/audiotag/internal/binary"
)

// Format identifies the container decoder responsible for a file.
//
//go:generate stringer -type=Format -linecomment
type Format int

const (
	// FormatUnknown represents an unknown or unsupported format.
	FormatUnknown Format = iota // Unknown
	// FormatID3 represents MPEG audio with ID3 tags (mp1, mp2, mp3).
	FormatID3 // ID3
	// FormatOgg represents Ogg streams carrying Vorbis, Opus, Speex or FLAC.
	FormatOgg // Ogg
	// FormatWAV represents RIFF/WAVE files.
	FormatWAV // WAV
	// FormatFLAC represents native FLAC streams.
	FormatFLAC // FLAC
	// FormatWMA represents ASF/WMA files.
	FormatWMA // WMA
	// FormatMP4 represents MP4/QuickTime containers (m4a, m4b, aax, ...).
	FormatMP4 // MP4
	// FormatAIFF represents AIFF and AIFF-C files.
	FormatAIFF // AIFF
)

var extensions = map[Format][]string{
	FormatID3:  {".mp1", ".mp2", ".mp3"},
	FormatOgg:  {".oga", ".ogg", ".opus", ".spx"},
	FormatWAV:  {".wav"},
	FormatFLAC: {".flac"},
	FormatWMA:  {".wma"},
	FormatMP4:  {".m4b", ".m4a", ".m4r", ".m4v", ".mp4", ".aax", ".aaxc"},
	FormatAIFF: {".aiff", ".aifc", ".aif", ".afc"},
}

// Extensions returns the file extensions handled by this format.
func (f Format) Extensions() []string {
	return extensions[f]
}

// signature is a fixed-length byte mask matched against the start of a file.
// Positions where wild is set accept any byte.
type signature struct {
	pattern []byte
	wild    []bool
	format  Format
}

// sig builds a signature from literal string parts and int wildcard runs.
func sig(format Format, parts ...any) signature {
	s := signature{format: format}
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			s.pattern = append(s.pattern, v...)
			s.wild = append(s.wild, make([]bool, len(v))...)
		case int:
			for range v {
				s.pattern = append(s.pattern, 0)
				s.wild = append(s.wild, true)
			}
		}
	}
	return s
}

func (s signature) match(header []byte) bool {
	if len(header) < len(s.pattern) {
		return false
	}
	for i, b := range s.pattern {
		if !s.wild[i] && header[i] != b {
			return false
		}
	}
	return true
}

// Signatures are tried in order. The Ogg codec ids sit right after the
// 27-byte page header and a one-entry segment table.
var signatures = []signature{
	sig(FormatID3, "ID3"),
	sig(FormatID3, "\xff\xfb"),
	sig(FormatOgg, "OggS", 25, "FLAC"),
	sig(FormatOgg, "OggS", 24, "Opus"),
	sig(FormatOgg, "OggS", 24, "Speex"),
	sig(FormatOgg, "OggS", 25, "vorbis"),
	sig(FormatWAV, "RIFF", 4, "WAVE"),
	sig(FormatFLAC, "fLaC"),
	sig(FormatWMA, "\x30\x26\xB2\x75\x8E\x66\xCF\x11\xA6\xD9\x00\xAA\x00\x62\xCE\x6C"),
	sig(FormatMP4, 4, "ftypM4A"),
	sig(FormatMP4, 4, "ftypaax"),
	sig(FormatMP4, 4, "ftypaaxc"),
	sig(FormatMP4, "\xff\xf1"),
	sig(FormatAIFF, "FORM", 4, "AIFF"),
	sig(FormatAIFF, "FORM", 4, "AIFC"),
}

// HeaderSize is the number of leading bytes FormatForHeader inspects.
var HeaderSize = func() int {
	n := 0
	for _, s := range signatures {
		n = max(n, len(s.pattern))
	}
	return n
}()

// FormatForName returns the format registered for the extension of name,
// or FormatUnknown. Matching is case-insensitive.
func FormatForName(name string) Format {
	if name == "" {
		return FormatUnknown
	}
	lower := strings.ToLower(filepath.Base(name))
	for f := FormatID3; f <= FormatAIFF; f++ {
		for _, ext := range extensions[f] {
			if strings.HasSuffix(lower, ext) {
				return f
			}
		}
	}
	return FormatUnknown
}

// FormatForHeader returns the format whose magic signature matches the
// leading bytes of a file, or FormatUnknown.
func FormatForHeader(header []byte) Format {
	for _, s := range signatures {
		if s.match(header) {
			return s.format
		}
	}
	return FormatUnknown
}

// DetectFormat selects a decoder for a file. The extension of path wins over
// the magic bytes when both are available.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	if f := FormatForName(path); f != FormatUnknown {
		return f, nil
	}

	sr := binary.NewSafeReader(r, size, path)
	if f := FormatForHeader(sr.Peek(0, HeaderSize)); f != FormatUnknown {
		return f, nil
	}

	return FormatUnknown, &UnsupportedFormatError{
		Path:   path,
		Reason: "no decoder matches the file extension or header",
	}
}

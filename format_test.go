package audiotag_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/audiotag"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		header string
		want   audiotag.Format
	}{
		{"extension wins", "song.MP3", "fLaC", audiotag.FormatID3},
		{"m4b", "book.m4b", "", audiotag.FormatMP4},
		{"aax", "book.aax", "", audiotag.FormatMP4},
		{"opus", "voice.opus", "", audiotag.FormatOgg},
		{"aifc", "take.aifc", "", audiotag.FormatAIFF},
		{"id3 magic", "", "ID3\x04\x00", audiotag.FormatID3},
		{"mpeg sync", "", "\xff\xfb\x90\x00", audiotag.FormatID3},
		{"flac magic", "", "fLaC\x00\x00\x00\x22", audiotag.FormatFLAC},
		{"riff wave", "", "RIFF\x24\x00\x00\x00WAVE", audiotag.FormatWAV},
		{"form aiff", "", "FORM\x00\x00\x00\x04AIFF", audiotag.FormatAIFF},
		{"ftyp m4a", "", "\x00\x00\x00\x20ftypM4A ", audiotag.FormatMP4},
		{"asf guid", "", "\x30\x26\xB2\x75\x8E\x66\xCF\x11\xA6\xD9\x00\xAA\x00\x62\xCE\x6C", audiotag.FormatWMA},
		{"ogg vorbis", "", "OggS" + string(make([]byte, 25)) + "vorbis", audiotag.FormatOgg},
		{"ogg opus", "", "OggS" + string(make([]byte, 24)) + "OpusHead", audiotag.FormatOgg},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := bytes.NewReader([]byte(tc.header))
			got, err := audiotag.DetectFormat(r, int64(r.Len()), tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDetectFormat_Unknown(t *testing.T) {
	for _, header := range []string{"", "RIFF\x00\x00\x00\x00AVI ", "hello world, plain text"} {
		r := bytes.NewReader([]byte(header))
		got, err := audiotag.DetectFormat(r, int64(r.Len()), "noext")
		var unsupported *audiotag.UnsupportedFormatError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, audiotag.FormatUnknown, got)
	}
}

func TestIsSupported(t *testing.T) {
	for _, name := range []string{"a.mp3", "b.FLAC", "c.ogg", "d.spx", "e.wma", "f.m4a", "g.aif", "/music/h.wav"} {
		assert.True(t, audiotag.IsSupported(name), name)
	}
	for _, name := range []string{"", "cover.jpg", "notes.txt", "mp3", "dir.flac/readme"} {
		assert.False(t, audiotag.IsSupported(name), name)
	}
}

func TestSupportedExtensions(t *testing.T) {
	exts := audiotag.SupportedExtensions()
	assert.IsIncreasing(t, exts)
	for _, ext := range []string{".mp3", ".flac", ".ogg", ".opus", ".wav", ".wma", ".m4b", ".aiff"} {
		assert.Contains(t, exts, ext)
	}
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "FLAC", audiotag.FormatFLAC.String())
	assert.Equal(t, "Unknown", audiotag.FormatUnknown.String())
}

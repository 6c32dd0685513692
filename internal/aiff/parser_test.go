package aiff

import (
	"bytes"
	"encoding/binary"
	"math/bits"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

func chunk(id string, payload []byte) []byte {
	out := append([]byte(id), binary.BigEndian.AppendUint32(nil, uint32(len(payload)))...)
	out = append(out, payload...)
	if len(payload)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func aiffFile(form string, chunks ...[]byte) []byte {
	body := append([]byte(form), bytes.Join(chunks, nil)...)
	out := append([]byte("FORM"), binary.BigEndian.AppendUint32(nil, uint32(len(body)))...)
	return append(out, body...)
}

// extended encodes a positive integer as an 80-bit extended float.
func extended(v uint64) (uint16, uint64) {
	n := bits.Len64(v)
	return uint16(16383 + n - 1), v << (64 - n)
}

func comm(channels, bitDepth int, frames uint32, exponent uint16, mantissa uint64) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.BigEndian, int16(channels))
	binary.Write(buf, binary.BigEndian, frames)
	binary.Write(buf, binary.BigEndian, int16(bitDepth))
	binary.Write(buf, binary.BigEndian, exponent)
	binary.Write(buf, binary.BigEndian, mantissa)
	return chunk("COMM", buf.Bytes())
}

func parse(t *testing.T, data []byte, configure func(*types.Context)) (*types.Tags, *types.Context, error) {
	t.Helper()
	ctx := types.NewContext("test.aiff", int64(len(data)))
	if configure != nil {
		configure(ctx)
	}
	tags := &types.Tags{}
	err := (&parser{}).Parse(binutil.FromBytes(data, "test.aiff"), ctx, tags)
	return tags, ctx, err
}

func TestParse(t *testing.T) {
	exp, man := extended(44100)
	require.Equal(t, uint16(0x400E), exp)
	require.Equal(t, uint64(0xAC44)<<48, man)

	data := aiffFile("AIFF",
		comm(2, 16, 44100*3, exp, man),
		chunk("NAME", []byte("Title")),
		chunk("AUTH", []byte("Author")),
		chunk("ANNO", []byte("Note\x00")),
		chunk("(c) ", []byte("2004 Label")),
		chunk("SSND", make([]byte, 64)),
	)
	tags, ctx, err := parse(t, data, nil)
	require.NoError(t, err)

	assert.Equal(t, "Title", tags.Title)
	assert.Equal(t, "Author", tags.Artist)
	assert.Equal(t, "Note", tags.Comment)
	assert.Equal(t, "2004 Label", tags.Extra["copyright"])
	assert.Equal(t, 2, tags.Channels)
	assert.Equal(t, 16, tags.BitDepth)
	assert.Equal(t, 44100, tags.SampleRate)
	assert.Equal(t, 3.0, tags.Duration)
	assert.Equal(t, 1411.2, tags.Bitrate)
	assert.Empty(t, ctx.Warnings())
}

func TestParse_SampleRates(t *testing.T) {
	for _, rate := range []uint64{8000, 22050, 48000, 96000, 192000} {
		exp, man := extended(rate)
		tags, _, err := parse(t, aiffFile("AIFC", comm(1, 24, uint32(rate), exp, man)), nil)
		require.NoError(t, err)
		assert.Equal(t, int(rate), tags.SampleRate)
		assert.Equal(t, 1.0, tags.Duration)
	}
}

func TestParse_SampleRateOverflow(t *testing.T) {
	tests := []struct {
		name     string
		exponent uint16
		mantissa uint64
	}{
		{"huge exponent", 0x7FFE, 1 << 63},
		{"negative", 0xC00E, uint64(0xAC44) << 48},
		{"zero", 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tags, ctx, err := parse(t, aiffFile("AIFF", comm(2, 16, 100, tc.exponent, tc.mantissa)), nil)
			require.NoError(t, err)
			assert.Equal(t, 2, tags.Channels)
			assert.Equal(t, 16, tags.BitDepth)
			assert.Zero(t, tags.SampleRate)
			assert.Zero(t, tags.Duration)
			assert.Zero(t, tags.Bitrate)
			assert.Len(t, ctx.Warnings(), 1)
		})
	}
}

func TestParse_EmbeddedID3(t *testing.T) {
	tag := id3v2.NewEmptyTag()
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle("ID3 Title")
	tag.SetGenre("Ambient")
	buf := &bytes.Buffer{}
	_, err := tag.WriteTo(buf)
	require.NoError(t, err)

	data := aiffFile("AIFF", chunk("NAME", []byte("Name")), chunk("ID3 ", buf.Bytes()))
	tags, _, err := parse(t, data, nil)
	require.NoError(t, err)
	assert.Equal(t, "Name\x00ID3 Title", tags.Title)
	assert.Equal(t, "Ambient", tags.Genre)
}

func TestParse_InvalidHeader(t *testing.T) {
	for _, data := range [][]byte{
		aiffFile("8SVX"),
		[]byte("RIFF\x00\x00\x00\x04AIFF"),
		[]byte("FORM"),
	} {
		_, _, err := parse(t, data, nil)
		var invalid *types.InvalidContainerError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, types.FormatAIFF, invalid.Format)
	}
}

func TestParse_Flags(t *testing.T) {
	exp, man := extended(44100)
	data := aiffFile("AIFF", comm(2, 16, 44100, exp, man), chunk("NAME", []byte("Title")))

	tags, _, err := parse(t, data, func(ctx *types.Context) { ctx.ParseTags = false })
	require.NoError(t, err)
	assert.Empty(t, tags.Title)
	assert.Equal(t, 1.0, tags.Duration)

	tags, _, err = parse(t, data, func(ctx *types.Context) { ctx.ParseDuration = false })
	require.NoError(t, err)
	assert.Equal(t, "Title", tags.Title)
	assert.Zero(t, tags.SampleRate)
}

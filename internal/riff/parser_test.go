package riff

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// chunk builds a little-endian RIFF chunk, padding odd payloads.
func chunk(id string, payload []byte) []byte {
	out := append([]byte(id), binary.LittleEndian.AppendUint32(nil, uint32(len(payload)))...)
	out = append(out, payload...)
	if len(payload)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func wavFile(chunks ...[]byte) []byte {
	body := append([]byte("WAVE"), bytes.Join(chunks, nil)...)
	out := append([]byte("RIFF"), binary.LittleEndian.AppendUint32(nil, uint32(len(body)))...)
	return append(out, body...)
}

func fmtChunk(channels, sampleRate, bitDepth int) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*bitDepth/8))
	binary.Write(buf, binary.LittleEndian, uint16(channels*bitDepth/8))
	binary.Write(buf, binary.LittleEndian, uint16(bitDepth))
	return chunk("fmt ", buf.Bytes())
}

// info builds a LIST/INFO chunk from id, value pairs. Values are written
// NUL-terminated, as most writers do.
func info(pairs ...string) []byte {
	payload := []byte("INFO")
	for i := 0; i+1 < len(pairs); i += 2 {
		payload = append(payload, chunk(pairs[i], append([]byte(pairs[i+1]), 0))...)
	}
	return chunk("LIST", payload)
}

func parse(t *testing.T, data []byte, configure func(*types.Context)) (*types.Tags, *types.Context, error) {
	t.Helper()
	ctx := types.NewContext("test.wav", int64(len(data)))
	if configure != nil {
		configure(ctx)
	}
	tags := &types.Tags{}
	err := (&parser{}).Parse(binutil.FromBytes(data, "test.wav"), ctx, tags)
	return tags, ctx, err
}

func TestParse_EndToEnd(t *testing.T) {
	data := wavFile(
		info("INAM", "Song"),
		fmtChunk(2, 44100, 16),
		chunk("data", make([]byte, 176400)),
	)
	tags, ctx, err := parse(t, data, nil)
	require.NoError(t, err)

	assert.Equal(t, "Song", tags.Title)
	assert.Equal(t, 2, tags.Channels)
	assert.Equal(t, 44100, tags.SampleRate)
	assert.Equal(t, 16, tags.BitDepth)
	assert.Equal(t, 1.0, tags.Duration)
	assert.Equal(t, 1411.2, tags.Bitrate)
	assert.Empty(t, ctx.Warnings())
}

func TestParse_InfoFields(t *testing.T) {
	data := wavFile(info(
		"IART", "Artist",
		"IPRD", "Album",
		"ICMT", "Comment",
		"ICRD", "2004",
		"IGNR", "Jazz",
		"IMUS", "Composer",
		"ICOP", "Copyright",
		"ILNG", "eng",
		"ISRC", "Source",
		"IPUB", "Publisher",
		"IBPM", "120",
		"IBSU", "https://example.com",
		"ITRK", "7",
		"ISFT", "Ignored",
	))
	tags, _, err := parse(t, data, nil)
	require.NoError(t, err)

	assert.Equal(t, "Artist", tags.Artist)
	assert.Equal(t, "Album", tags.Album)
	assert.Equal(t, "Comment", tags.Comment)
	assert.Equal(t, "2004", tags.Year)
	assert.Equal(t, "Jazz", tags.Genre)
	assert.Equal(t, 7, tags.Track)
	assert.Equal(t, map[string]any{
		"composer":  "Composer",
		"copyright": "Copyright",
		"language":  "eng",
		"isrc":      "Source",
		"publisher": "Publisher",
		"bpm":       "120",
		"url":       "https://example.com",
	}, tags.Extra)
}

// PRT2 is stored under its literal name rather than as the track total.
func TestParse_PRT2KeepsLiteralName(t *testing.T) {
	data := wavFile(info("PRT1", "3", "PRT2", "12"))
	tags, _, err := parse(t, data, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, tags.Track)
	assert.Zero(t, tags.TrackTotal)
	assert.Equal(t, "12", tags.Extra["track_number"])
}

func TestParse_OddSizedValues(t *testing.T) {
	// "Odd" is written without a terminator, so the payload needs a pad byte.
	payload := append([]byte("INFO"), chunk("INAM", []byte("Odd"))...)
	payload = append(payload, chunk("IART", []byte("Next\x00"))...)
	tags, _, err := parse(t, wavFile(chunk("LIST", payload)), nil)
	require.NoError(t, err)

	assert.Equal(t, "Odd", tags.Title)
	assert.Equal(t, "Next", tags.Artist)
}

func TestParse_NonNumericTrack(t *testing.T) {
	tags, ctx, err := parse(t, wavFile(info("ITRK", "A1", "INAM", "Kept")), nil)
	require.NoError(t, err)

	assert.Zero(t, tags.Track)
	assert.Equal(t, "Kept", tags.Title)
	require.Len(t, ctx.Warnings(), 1)
	assert.Contains(t, ctx.Warnings()[0].Message, "track")
}

func TestParse_OtherListTypesSkipped(t *testing.T) {
	adtl := chunk("LIST", append([]byte("adtl"), chunk("INAM", []byte("Not info\x00"))...))
	tags, _, err := parse(t, wavFile(adtl), nil)
	require.NoError(t, err)
	assert.Empty(t, tags.Title)
}

func TestParse_EmbeddedID3(t *testing.T) {
	tag := id3v2.NewEmptyTag()
	tag.SetVersion(3)
	tag.SetDefaultEncoding(id3v2.EncodingISO)
	tag.SetArtist("ID3 Artist")
	tag.SetAlbum("ID3 Album")
	buf := &bytes.Buffer{}
	_, err := tag.WriteTo(buf)
	require.NoError(t, err)

	for _, id := range []string{"id3 ", "ID3 "} {
		t.Run(id, func(t *testing.T) {
			data := wavFile(
				info("INAM", "Song", "IPRD", "Info Album"),
				chunk(id, buf.Bytes()),
				fmtChunk(1, 8000, 8),
				chunk("data", make([]byte, 16000)),
			)
			tags, _, err := parse(t, data, nil)
			require.NoError(t, err)

			assert.Equal(t, "Song", tags.Title)
			assert.Equal(t, "ID3 Artist", tags.Artist)
			assert.Equal(t, "Info Album\x00ID3 Album", tags.Album)
			assert.Equal(t, 2.0, tags.Duration)
		})
	}
}

func TestParse_FormatQuirks(t *testing.T) {
	t.Run("zero bit depth", func(t *testing.T) {
		data := wavFile(fmtChunk(1, 8000, 0), chunk("data", make([]byte, 1000)))
		tags, _, err := parse(t, data, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, tags.BitDepth)
		assert.Equal(t, 8.0, tags.Bitrate)
		assert.Equal(t, 1.0, tags.Duration)
	})

	t.Run("no fmt chunk", func(t *testing.T) {
		tags, _, err := parse(t, wavFile(chunk("data", make([]byte, 100))), nil)
		require.NoError(t, err)
		assert.Equal(t, 16, tags.BitDepth)
		assert.Zero(t, tags.Duration)
	})

	t.Run("truncated fmt chunk", func(t *testing.T) {
		tags, ctx, err := parse(t, wavFile(chunk("fmt ", []byte{1, 0, 2, 0})), nil)
		require.NoError(t, err)
		assert.Zero(t, tags.Channels)
		assert.Len(t, ctx.Warnings(), 1)
	})
}

func TestParse_InvalidHeader(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("RIFF\x00\x00\x00\x00AVI "),
		[]byte("RIFX"),
		nil,
	} {
		_, _, err := parse(t, data, nil)
		var invalid *types.InvalidContainerError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, types.FormatWAV, invalid.Format)
	}
}

func TestParse_Flags(t *testing.T) {
	data := wavFile(info("INAM", "Song"), fmtChunk(2, 44100, 16), chunk("data", make([]byte, 176400)))

	tags, _, err := parse(t, data, func(ctx *types.Context) { ctx.ParseTags = false })
	require.NoError(t, err)
	assert.Empty(t, tags.Title)
	assert.Equal(t, 1.0, tags.Duration)

	tags, _, err = parse(t, data, func(ctx *types.Context) { ctx.ParseDuration = false })
	require.NoError(t, err)
	assert.Equal(t, "Song", tags.Title)
	assert.Zero(t, tags.BitDepth)
	assert.Zero(t, tags.Duration)
}

func TestWalk(t *testing.T) {
	data := append(chunk("one ", []byte("abc")), chunk("two ", []byte("de"))...)
	data = append(data, "trun"...)

	var got []Chunk
	err := Walk(binutil.FromBytes(data, "chunks"), 0, binutil.LittleEndian, func(c Chunk) (bool, error) {
		got = append(got, c)
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []Chunk{
		{ID: "one ", Size: 3, Offset: 0},
		{ID: "two ", Size: 2, Offset: 12},
	}, got)
	assert.Equal(t, int64(22), got[1].End())
}

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTags_SetJoinsDifferingStrings(t *testing.T) {
	tags := &Tags{}
	tags.Set("title", "A")
	tags.Set("title", "B")
	assert.Equal(t, "A\x00B", tags.Title)
	assert.Equal(t, []string{"A", "B"}, tags.Values("title"))
}

func TestTags_SetIgnoresEmptyString(t *testing.T) {
	tags := &Tags{}
	tags.Set("title", "A")
	tags.Set("title", "")
	assert.Equal(t, "A", tags.Title)
}

func TestTags_SetSameStringTwice(t *testing.T) {
	tags := &Tags{}
	tags.Set("artist", "X")
	tags.Set("artist", "X")
	assert.Equal(t, "X", tags.Artist)
}

func TestTags_SetNonStringReplaces(t *testing.T) {
	tags := &Tags{}
	tags.Set("track", 3)
	tags.Set("track", 4)
	tags.Set("duration", 1.5)
	tags.Set("bitrate", 320)
	assert.Equal(t, 4, tags.Track)
	assert.Equal(t, 1.5, tags.Duration)
	assert.Equal(t, 320.0, tags.Bitrate)

	// Zero values never overwrite.
	tags.Set("track", 0)
	tags.Set("track", "0")
	tags.Set("duration", 0.0)
	tags.Set("bitrate", 0)
	tags.Set("samplerate", 44100)
	tags.Set("samplerate", uint64(0))
	assert.Equal(t, 4, tags.Track)
	assert.Equal(t, 1.5, tags.Duration)
	assert.Equal(t, 320.0, tags.Bitrate)
	assert.Equal(t, 44100, tags.SampleRate)
}

func TestTags_SetExtra(t *testing.T) {
	tags := &Tags{}
	tags.Set("extra.composer", "Bach")
	tags.Set("extra.composer", "Handel")
	tags.Set("extra.bpm", 120)
	tags.Set("extra.empty", "")

	assert.Equal(t, "Bach\x00Handel", tags.Extra["composer"])
	assert.Equal(t, 120, tags.Extra["bpm"])
	assert.NotContains(t, tags.Extra, "empty")
}

func TestTags_SetUnknownNameKeptLiterally(t *testing.T) {
	tags := &Tags{}
	tags.Set("track_number", "7")
	tags.Set("movement", "II")
	assert.Equal(t, "7", tags.Extra["track_number"])
	assert.Equal(t, "II", tags.Extra["movement"])
	assert.Zero(t, tags.Track)
}

func TestTags_Update(t *testing.T) {
	parent := &Tags{Title: "Vorbis Title"}
	nested := &Tags{Title: "ID3 Title", Artist: "Artist", Track: 2}
	nested.Set("extra.isrc", "US1234567890")

	parent.Update(nested)

	assert.Equal(t, "Vorbis Title\x00ID3 Title", parent.Title)
	assert.Equal(t, "Artist", parent.Artist)
	assert.Equal(t, 2, parent.Track)
	assert.Equal(t, "US1234567890", parent.Extra["isrc"])
}

func TestTags_UpdateSkipsZeroValues(t *testing.T) {
	parent := &Tags{Track: 5, Channels: 2}
	parent.Update(&Tags{})
	parent.Update(nil)
	assert.Equal(t, 5, parent.Track)
	assert.Equal(t, 2, parent.Channels)
}

func TestTags_Clone(t *testing.T) {
	tags := &Tags{Title: "A", Image: []byte{1, 2}}
	tags.Set("extra.x", "1")

	c := tags.Clone()
	c.Image[0] = 9
	c.Set("extra.x", "2")

	assert.Equal(t, byte(1), tags.Image[0])
	assert.Equal(t, "1", tags.Extra["x"])
}

func TestTags_Fields(t *testing.T) {
	tags := &Tags{}
	tags.Set("title", "T")
	tags.Set("samplerate", 44100)
	tags.Set("extra.a", "x")
	tags.Set("image", []byte{1})

	var names []string
	for name := range tags.Fields() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"samplerate", "title", "extra.a"}, names)
}

func TestTags_AsMap(t *testing.T) {
	tags := &Tags{}
	tags.Set("album", "Album")
	tags.Set("extra.bpm", "120")

	m := tags.AsMap()
	assert.Equal(t, "Album", m["album"])
	assert.Equal(t, map[string]any{"bpm": "120"}, m["extra"])
}

func TestTags_ReleaseTime(t *testing.T) {
	tests := []struct {
		year string
		want time.Time
	}{
		{"2004-05-03", time.Date(2004, 5, 3, 0, 0, 0, 0, time.UTC)},
		{"2019-12-31T10:00:00Z", time.Date(2019, 12, 31, 10, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		tags := &Tags{Year: tc.year}
		got, err := tags.ReleaseTime()
		require.NoError(t, err, tc.year)
		assert.True(t, tc.want.Equal(got), "%s: got %v", tc.year, got)
	}

	_, err := (&Tags{}).ReleaseTime()
	assert.Error(t, err)
}

func TestTags_TotalTime(t *testing.T) {
	tags := &Tags{Duration: 1.5}
	assert.Equal(t, 1500*time.Millisecond, tags.TotalTime())
}

func TestTags_SetNumberPair(t *testing.T) {
	tags := &Tags{}
	require.NoError(t, tags.SetNumberPair("track", "3/12"))
	require.NoError(t, tags.SetNumberPair("disc", " 2 "))
	assert.Equal(t, 3, tags.Track)
	assert.Equal(t, 12, tags.TrackTotal)
	assert.Equal(t, 2, tags.Disc)
	assert.Zero(t, tags.DiscTotal)
}

func TestTags_SetNumberRejectsText(t *testing.T) {
	tags := &Tags{}
	err := tags.SetNumberPair("track", "A1")

	var numErr *NumericConversionError
	require.ErrorAs(t, err, &numErr)
	assert.Equal(t, "track", numErr.Field)
	assert.Equal(t, "A1", numErr.Value)
	assert.Zero(t, tags.Track)
}

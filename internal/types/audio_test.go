package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTags_AudioSummary(t *testing.T) {
	tests := []struct {
		name string
		tags Tags
		want string
	}{
		{
			name: "lossless stereo",
			tags: Tags{SampleRate: 44100, BitDepth: 16, Channels: 2, Bitrate: 1411.2},
			want: "44.1kHz 16-bit stereo 1411kbps",
		},
		{
			name: "lossy mono",
			tags: Tags{SampleRate: 48000, Channels: 1, Bitrate: 96},
			want: "48.0kHz mono 96kbps",
		},
		{
			name: "surround without rate",
			tags: Tags{Channels: 6},
			want: "5.1",
		},
		{
			name: "empty",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.tags.AudioSummary())
		})
	}
}

func TestChannelDescription(t *testing.T) {
	tests := []struct {
		channels int
		want     string
	}{
		{0, ""},
		{1, "mono"},
		{2, "stereo"},
		{4, "quad"},
		{6, "5.1"},
		{8, "7.1"},
		{3, "3ch"},
		{10, "10ch"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, channelDescription(tc.channels), "channels=%d", tc.channels)
	}
}

func TestTags_IsHighRes(t *testing.T) {
	assert.False(t, (&Tags{SampleRate: 44100, BitDepth: 16}).IsHighRes())
	assert.False(t, (&Tags{SampleRate: 48000, BitDepth: 16}).IsHighRes())
	assert.True(t, (&Tags{SampleRate: 96000, BitDepth: 16}).IsHighRes())
	assert.True(t, (&Tags{SampleRate: 44100, BitDepth: 24}).IsHighRes())
}

func TestTags_String(t *testing.T) {
	tags := &Tags{}
	tags.Set("title", "A")
	tags.Set("title", "B")
	tags.Set("track", 3)
	tags.Set("extra.composer", "Bach")

	assert.Equal(t, "title: A / B\ntrack: 3\nextra.composer: Bach\n", tags.String())
}

package types

import (
	"fmt"
	"strings"
)

// AudioSummary returns a short description of the stream properties.
// Example output: "44.1kHz 16-bit stereo 1411kbps".
func (t *Tags) AudioSummary() string {
	var parts []string
	if t.SampleRate > 0 {
		parts = append(parts, fmt.Sprintf("%.1fkHz", float64(t.SampleRate)/1000))
	}
	if t.BitDepth > 0 {
		parts = append(parts, fmt.Sprintf("%d-bit", t.BitDepth))
	}
	if ch := channelDescription(t.Channels); ch != "" {
		parts = append(parts, ch)
	}
	if t.Bitrate > 0 {
		parts = append(parts, fmt.Sprintf("%.0fkbps", t.Bitrate))
	}
	return strings.Join(parts, " ")
}

// IsHighRes reports whether the sample rate exceeds 48kHz or the bit depth
// exceeds 16 bits.
func (t *Tags) IsHighRes() bool {
	return t.SampleRate > 48000 || t.BitDepth > 16
}

// channelDescription returns a human-readable channel description.
func channelDescription(channels int) string {
	switch channels {
	case 0:
		return ""
	case 1:
		return "mono"
	case 2:
		return "stereo"
	case 4:
		return "quad"
	case 6:
		return "5.1"
	case 8:
		return "7.1"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}

// String returns the set fields one per line, multi-valued strings joined
// with " / ".
func (t *Tags) String() string {
	var b strings.Builder
	for name, v := range t.Fields() {
		if s, ok := v.(string); ok {
			v = strings.ReplaceAll(s, Separator, " / ")
		}
		if bs, ok := v.([]byte); ok {
			v = fmt.Sprintf("<%d bytes>", len(bs))
		}
		fmt.Fprintf(&b, "%s: %v\n", name, v)
	}
	return b.String()
}

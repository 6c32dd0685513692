package id3

import (
	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/text"
	"github.com/simonhull/audiotag/internal/types"
)

// v1Size is the size of an ID3v1 tag at the end of a file.
const v1Size = 128

// parseV1 reads an ID3v1 tag from the last 128 bytes. Fields already set by
// ID3v2 are kept.
func parseV1(sr *binary.SafeReader, dec *text.Decoder, tags *types.Tags) error {
	if sr.Size() <= v1Size {
		return nil
	}
	b := sr.Peek(sr.Size()-v1Size, v1Size)
	if len(b) < v1Size || string(b[:3]) != "TAG" {
		return nil
	}
	f := b[3:]

	fields := []struct {
		name  string
		value []byte
		isSet bool
	}{
		{"title", f[0:30], tags.Title != ""},
		{"artist", f[30:60], tags.Artist != ""},
		{"album", f[60:90], tags.Album != ""},
		{"year", f[90:94], tags.Year != ""},
	}
	for _, field := range fields {
		if field.isSet {
			continue
		}
		s, err := dec.Latin1(field.value)
		if err != nil {
			return err
		}
		tags.Set(field.name, s)
	}

	// ID3v1.1 keeps the track number in the last comment byte.
	comment := f[94:124]
	if comment[28] == 0 && comment[29] != 0 {
		if tags.Track == 0 {
			tags.Set("track", int(comment[29]))
		}
		comment = comment[:28]
	}
	if tags.Comment == "" {
		s, err := dec.Latin1(comment)
		if err != nil {
			return err
		}
		tags.Set("comment", s)
	}

	if tags.Genre == "" {
		if name, ok := genre(int(f[124])); ok {
			tags.Set("genre", name)
		}
	}
	return nil
}

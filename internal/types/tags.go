package types

import (
	"fmt"
	"iter"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Separator joins differing values written to the same string field.
const Separator = "\x00"

// ExtraPrefix marks field names that are stored in Tags.Extra.
const ExtraPrefix = "extra."

// Tags is the record every decoder writes into.
//
// A zero value means "unset". Decoders never assign fields directly; they go
// through Set so that repeated frames and nested containers follow one rule:
// empty strings are ignored, and a second, different string is appended to
// the first with a NUL separator.
type Tags struct {
	// Extra holds format-specific fields without a canonical slot. Values are
	// string, int, float64 or []byte.
	Extra map[string]any

	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Genre       string
	Comment     string
	Year        string

	// Image is the raw embedded cover image, loaded only on request.
	Image []byte

	Track      int
	TrackTotal int
	Disc       int
	DiscTotal  int
	Channels   int
	SampleRate int
	BitDepth   int

	Duration float64 // seconds
	Bitrate  float64 // kbit/s
}

// canonical lists field names in merge order.
var canonical = []string{
	"track", "track_total", "title", "artist", "album", "albumartist", "year",
	"duration", "genre", "disc", "disc_total", "comment", "bitdepth", "bitrate",
	"channels", "samplerate", "image",
}

// Set assigns a value by field name. Names starting with "extra." go into
// Extra; unknown names are kept in Extra under their literal name.
func (t *Tags) Set(name string, value any) {
	if s, ok := value.(string); ok && s == "" {
		return
	}
	if key, ok := strings.CutPrefix(name, ExtraPrefix); ok {
		t.setExtra(key, value)
		return
	}

	switch name {
	case "title":
		t.Title = joinValue(t.Title, value)
	case "artist":
		t.Artist = joinValue(t.Artist, value)
	case "album":
		t.Album = joinValue(t.Album, value)
	case "albumartist":
		t.AlbumArtist = joinValue(t.AlbumArtist, value)
	case "genre":
		t.Genre = joinValue(t.Genre, value)
	case "comment":
		t.Comment = joinValue(t.Comment, value)
	case "year":
		t.Year = joinValue(t.Year, value)
	case "track":
		setInt(&t.Track, value)
	case "track_total":
		setInt(&t.TrackTotal, value)
	case "disc":
		setInt(&t.Disc, value)
	case "disc_total":
		setInt(&t.DiscTotal, value)
	case "channels":
		setInt(&t.Channels, value)
	case "samplerate":
		setInt(&t.SampleRate, value)
	case "bitdepth":
		setInt(&t.BitDepth, value)
	case "duration":
		setFloat(&t.Duration, value)
	case "bitrate":
		setFloat(&t.Bitrate, value)
	case "image":
		if b, ok := value.([]byte); ok {
			t.Image = b
		}
	default:
		t.setExtra(name, value)
	}
}

func (t *Tags) setExtra(key string, value any) {
	if t.Extra == nil {
		t.Extra = make(map[string]any)
	}
	if s, ok := value.(string); ok {
		if old, ok := t.Extra[key].(string); ok && old != "" && old != s {
			value = old + Separator + s
		}
	}
	t.Extra[key] = value
}

// SetNumber parses value as a decimal integer and sets field. A value that
// is not a number leaves the field unset and yields a NumericConversionError.
func (t *Tags) SetNumber(field, value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return &NumericConversionError{Field: field, Value: value, Err: err}
	}
	t.Set(field, n)
	return nil
}

// SetNumberPair sets field from a value such as "3" or "3/12". The part
// after the slash goes into field_total and is set first.
func (t *Tags) SetNumberPair(field, value string) error {
	if v, rest, ok := strings.Cut(value, "/"); ok {
		total, _, _ := strings.Cut(rest, "/")
		if err := t.SetNumber(field+"_total", total); err != nil {
			return err
		}
		value = v
	}
	return t.SetNumber(field, value)
}

// Get returns the value of a field by name, or nil if it is unset.
func (t *Tags) Get(name string) any {
	if key, ok := strings.CutPrefix(name, ExtraPrefix); ok {
		return t.Extra[key]
	}
	var v any
	switch name {
	case "title":
		v = t.Title
	case "artist":
		v = t.Artist
	case "album":
		v = t.Album
	case "albumartist":
		v = t.AlbumArtist
	case "genre":
		v = t.Genre
	case "comment":
		v = t.Comment
	case "year":
		v = t.Year
	case "track":
		v = t.Track
	case "track_total":
		v = t.TrackTotal
	case "disc":
		v = t.Disc
	case "disc_total":
		v = t.DiscTotal
	case "channels":
		v = t.Channels
	case "samplerate":
		v = t.SampleRate
	case "bitdepth":
		v = t.BitDepth
	case "duration":
		v = t.Duration
	case "bitrate":
		v = t.Bitrate
	case "image":
		v = t.Image
	default:
		return t.Extra[name]
	}
	if isZero(v) {
		return nil
	}
	return v
}

// Values splits a multi-valued string field on the NUL separator.
// Non-string fields yield a single formatted value.
func (t *Tags) Values(name string) []string {
	switch v := t.Get(name).(type) {
	case nil:
		return nil
	case string:
		return strings.Split(v, Separator)
	case []byte:
		return []string{string(v)}
	default:
		return []string{fmt.Sprint(v)}
	}
}

// Update merges other into t. Every set canonical field and every extra
// field of other is applied through Set.
func (t *Tags) Update(other *Tags) {
	if other == nil {
		return
	}
	for _, name := range canonical {
		if v := other.Get(name); v != nil {
			t.Set(name, v)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(other.Extra)) {
		t.Set(ExtraPrefix+key, other.Extra[key])
	}
}

// Clone returns a deep copy of the record.
func (t *Tags) Clone() *Tags {
	c := *t
	c.Extra = maps.Clone(t.Extra)
	c.Image = slices.Clone(t.Image)
	return &c
}

// Fields returns an iterator over every set field in name order. Extra fields
// are yielded with the "extra." prefix after the canonical ones. The image
// is left out.
func (t *Tags) Fields() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, name := range slices.Sorted(slices.Values(canonical)) {
			if name == "image" {
				continue
			}
			if v := t.Get(name); v != nil {
				if !yield(name, v) {
					return
				}
			}
		}
		for _, key := range slices.Sorted(maps.Keys(t.Extra)) {
			if !yield(ExtraPrefix+key, t.Extra[key]) {
				return
			}
		}
	}
}

// AsMap returns the set fields as a flat map, extras nested under "extra".
func (t *Tags) AsMap() map[string]any {
	m := make(map[string]any)
	for name, v := range t.Fields() {
		if key, ok := strings.CutPrefix(name, ExtraPrefix); ok {
			extra, _ := m["extra"].(map[string]any)
			if extra == nil {
				extra = make(map[string]any)
				m["extra"] = extra
			}
			extra[key] = v
			continue
		}
		m[name] = v
	}
	return m
}

// TotalTime returns Duration as a time.Duration.
func (t *Tags) TotalTime() time.Duration {
	return time.Duration(t.Duration * float64(time.Second))
}

// ReleaseTime parses the first Year value, which may hold anything from a
// bare year to a full timestamp.
func (t *Tags) ReleaseTime() (time.Time, error) {
	year, _, _ := strings.Cut(t.Year, Separator)
	if year == "" {
		return time.Time{}, fmt.Errorf("no year set")
	}
	return dateparse.ParseAny(year)
}

func joinValue(old string, value any) string {
	s := toString(value)
	if s == "" {
		return old
	}
	if old != "" && old != s {
		return old + Separator + s
	}
	return s
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// setInt stores value in dst unless it converts to zero.
func setInt(dst *int, value any) {
	var n int
	switch v := value.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case uint64:
		if v <= math.MaxInt {
			n = int(v)
		}
	case float64:
		n = int(v)
	case string:
		n, _ = strconv.Atoi(strings.TrimSpace(v))
	}
	if n != 0 {
		*dst = n
	}
}

// setFloat stores value in dst unless it converts to zero.
func setFloat(dst *float64, value any) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint64:
		f = float64(v)
	}
	if f != 0 {
		*dst = f
	}
}

func isZero(v any) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case int:
		return x == 0
	case float64:
		return x == 0
	case []byte:
		return len(x) == 0
	default:
		return v == nil
	}
}

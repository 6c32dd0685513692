package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/simonhull/audiotag"
)

func testRecord() *record {
	tags := audiotag.Tags{
		Title:      "Song",
		Artist:     "First\x00Second",
		Track:      3,
		SampleRate: 44100,
		Channels:   2,
		BitDepth:   16,
		Duration:   61.5,
		Extra:      map[string]any{"composer": "Someone"},
	}
	return newRecord(&audiotag.File{
		Path:     "/music/song.flac",
		Format:   audiotag.FormatFLAC,
		Size:     1234,
		Tags:     tags,
		Warnings: []audiotag.Warning{{Stage: "tags", Message: "bad frame", Offset: 10}},
	})
}

func TestWriterFor(t *testing.T) {
	for _, format := range []string{"", "text", "JSON", "yaml", "tsv"} {
		w, err := writerFor(format)
		require.NoError(t, err, format)
		assert.NotNil(t, w)
	}
	_, err := writerFor("xml")
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeJSON(buf, []*record{testRecord()}))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "FLAC", out[0]["format"])
	tags := out[0]["tags"].(map[string]any)
	assert.Equal(t, "Song", tags["title"])
	assert.Equal(t, 3.0, tags["track"])
	assert.Equal(t, map[string]any{"composer": "Someone"}, tags["extra"])
	assert.Len(t, out[0]["warnings"], 1)
}

func TestWriteYAML(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeYAML(buf, []*record{testRecord()}))

	var out []struct {
		Path string         `yaml:"path"`
		Tags map[string]any `yaml:"tags"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "/music/song.flac", out[0].Path)
	assert.Equal(t, "Song", out[0].Tags["title"])
	assert.Equal(t, 44100, out[0].Tags["samplerate"])
}

func TestWriteTSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeTSV(buf, []*record{testRecord()}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	header := strings.Split(lines[0], "\t")
	row := strings.Split(lines[1], "\t")
	require.Len(t, row, len(header))
	assert.Equal(t, []string{"/music/song.flac", "FLAC", "First; Second", "", "Song", "3"}, row[:6])
	assert.Equal(t, "61.500", row[9])
}

func TestWriteText(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeText(buf, []*record{testRecord(), testRecord()}))

	out := buf.String()
	assert.Contains(t, out, "/music/song.flac (FLAC, 44.1kHz 16-bit stereo, 1m1.5s)")
	assert.Contains(t, out, "First / Second")
	assert.Contains(t, out, "extra.composer")
	assert.Equal(t, 2, strings.Count(out, "/music/song.flac"))
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"track10.mp3", "track2.mp3", "track1.flac", "cover.jpg", "sub/track3.ogg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
	single := filepath.Join(t.TempDir(), "unknown.bin")
	require.NoError(t, os.WriteFile(single, nil, 0o644))

	paths, err := collect([]string{dir, single})
	require.NoError(t, err)

	var rel []string
	for _, p := range paths[:4] {
		r, err := filepath.Rel(dir, p)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{"sub/track3.ogg", "track1.flac", "track2.mp3", "track10.mp3"}, rel)
	assert.Equal(t, single, paths[4])

	_, err = collect([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestWriteImage(t *testing.T) {
	dir := t.TempDir()
	r := testRecord()
	require.NoError(t, writeImage(dir, r), "records without an image are skipped")

	r.image = &audiotag.Image{Data: []byte("png"), MIMEType: "image/png", Extension: "png"}
	require.NoError(t, writeImage(dir, r))
	data, err := os.ReadFile(filepath.Join(dir, "song.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

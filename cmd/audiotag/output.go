package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/simonhull/audiotag"
)

// record is the printable form of one file.
type record struct {
	Path     string         `json:"path" yaml:"path"`
	Format   string         `json:"format" yaml:"format"`
	Size     int64          `json:"size" yaml:"size"`
	Tags     map[string]any `json:"tags,omitempty" yaml:"tags,omitempty"`
	Warnings []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	tags  audiotag.Tags
	image *audiotag.Image
}

func newRecord(f *audiotag.File) *record {
	r := &record{
		Path:   f.Path,
		Format: f.Format.String(),
		Size:   f.Size,
		Tags:   f.Tags.AsMap(),
		tags:   f.Tags,
		image:  f.Image(),
	}
	if len(r.Tags) == 0 {
		r.Tags = nil
	}
	for _, w := range f.Warnings {
		r.Warnings = append(r.Warnings, w.String())
	}
	return r
}

type writeFunc func(io.Writer, []*record) error

func writerFor(format string) (writeFunc, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return writeText, nil
	case "json":
		return writeJSON, nil
	case "yaml":
		return writeYAML, nil
	case "tsv":
		return writeTSV, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func writeText(w io.Writer, records []*record) error {
	for i, r := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s", r.Path, r.Format)
		if summary := r.tags.AudioSummary(); summary != "" {
			fmt.Fprintf(w, ", %s", summary)
		}
		if r.tags.Duration > 0 {
			fmt.Fprintf(w, ", %s", r.tags.TotalTime().Round(time.Millisecond))
		}
		fmt.Fprintln(w, ")")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for name, v := range r.tags.Fields() {
			if s, ok := v.(string); ok {
				v = strings.ReplaceAll(s, audiotag.Separator, " / ")
			}
			fmt.Fprintf(tw, "  %s\t%v\n", name, v)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, records []*record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeYAML(w io.Writer, records []*record) error {
	out, err := yaml.Marshal(records)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// tsvColumns are the fields written by writeTSV after path and format.
var tsvColumns = []string{"artist", "album", "title", "track", "disc", "year", "genre", "duration", "bitrate", "samplerate"}

func writeTSV(w io.Writer, records []*record) error {
	fmt.Fprintf(w, "path\tformat\t%s\n", strings.Join(tsvColumns, "\t"))
	for _, r := range records {
		cols := []string{r.Path, r.Format}
		for _, name := range tsvColumns {
			cols = append(cols, tsvValue(r.tags.Get(name)))
		}
		if _, err := fmt.Fprintln(w, strings.Join(cols, "\t")); err != nil {
			return err
		}
	}
	return nil
}

func tsvValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		v = strings.ReplaceAll(v, audiotag.Separator, "; ")
		return strings.NewReplacer("\t", " ", "\n", " ").Replace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', 3, 64)
	default:
		return fmt.Sprint(v)
	}
}

package audiotag

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/text"
	"github.com/simonhull/audiotag/internal/types"

	// Container decoders register themselves with the registry.
	_ "github.com/simonhull/audiotag/internal/aiff"
	_ "github.com/simonhull/audiotag/internal/asf"
	_ "github.com/simonhull/audiotag/internal/flac"
	_ "github.com/simonhull/audiotag/internal/id3"
	_ "github.com/simonhull/audiotag/internal/mp4"
	_ "github.com/simonhull/audiotag/internal/ogg"
	_ "github.com/simonhull/audiotag/internal/riff"
)

// File is an opened audio file and the metadata read from it.
//
// Always call Close() when done to release the file handle:
//
//	file, err := audiotag.Open("song.flac")
//	if err != nil {
//		return err
//	}
//	defer file.Close()
type File struct {
	// Path to the audio file
	Path string

	// Detected format
	Format Format

	// File size in bytes
	Size int64

	// Tags and stream properties. Unset fields are zero.
	Tags Tags

	// Warnings encountered during parsing (non-fatal issues)
	Warnings []Warning

	reader io.ReaderAt
}

// Open opens an audio file and reads its metadata.
//
// The decoder is chosen by file extension, then by the leading bytes.
// Recovered problems are returned in File.Warnings; a missing container
// header or undecodable text fails the call.
//
// Example:
//
//	file, err := audiotag.Open("song.mp3", audiotag.WithImage())
//	if err != nil {
//		return err
//	}
//	defer file.Close()
//	fmt.Printf("%s - %s (%s)\n", file.Tags.Artist, file.Tags.Title, file.Tags.TotalTime())
func Open(path string, opts ...Option) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	file, err := OpenReader(f, stat.Size(), path, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	return file, nil
}

// OpenReader reads metadata from r, which holds size bytes. name selects
// the decoder by extension and appears in errors; it may be empty, in
// which case the leading bytes decide. If r implements io.Closer, Close
// closes it.
func OpenReader(r io.ReaderAt, size int64, name string, opts ...Option) (*File, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return parse(r, size, name, options)
}

func parse(r io.ReaderAt, size int64, path string, options *openOptions) (*File, error) {
	format, err := DetectFormat(r, size, path)
	if err != nil {
		return nil, err
	}
	file := &File{Path: path, Format: format, Size: size, reader: r}
	if size == 0 {
		return file, nil
	}

	parser := registry.Get(format)
	if parser == nil {
		return nil, &UnsupportedFormatError{
			Path:   path,
			Reason: fmt.Sprintf("no parser available for format %s", format),
		}
	}
	if options.encoding != "" {
		if _, err := text.Lookup(options.encoding); err != nil {
			return nil, err
		}
	}

	ctx := options.context(path, size)
	sr := binary.NewSafeReader(r, size, path)
	tags := &types.Tags{}

	// Decoders without a separate duration pass read everything in Parse
	// and consult the context flags themselves.
	durationParser, twoPass := parser.(registry.DurationParser)
	if ctx.ParseTags || !twoPass {
		if err := parser.Parse(sr, ctx, tags); err != nil {
			return nil, fmt.Errorf("parse %s: %w", format, err)
		}
	}
	if ctx.ParseDuration && twoPass {
		// A failed duration pass keeps the tags but none of its own fields.
		candidate := tags.Clone()
		if err := durationParser.ParseDuration(sr, ctx, candidate); err != nil {
			ctx.WarnErr("duration", 0, err)
		} else {
			tags = candidate
		}
	}

	if options.maxImageSize > 0 && len(tags.Image) > options.maxImageSize {
		ctx.Warn("image", 0, "image of %d bytes exceeds limit of %d", len(tags.Image), options.maxImageSize)
		tags.Image = nil
	}

	file.Tags = *tags
	file.Warnings = ctx.Warnings()
	if options.strict && len(file.Warnings) > 0 {
		return nil, fmt.Errorf("strict parsing failed: %s", file.Warnings[0])
	}
	return file, nil
}

// Close releases resources held by the file.
//
// After Close is called, the File should not be used.
func (f *File) Close() error {
	if closer, ok := f.reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// OpenContext opens a file after checking ctx for cancellation.
func OpenContext(ctx context.Context, path string, opts ...Option) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Open(path, opts...)
}

// OpenMany opens multiple audio files concurrently.
//
// Files are parsed in parallel using up to runtime.NumCPU() goroutines.
// Results are returned in the same order as the input paths.
//
// If any file fails to open, all successfully opened files are closed
// and an error is returned.
//
// Example:
//
//	files, err := audiotag.OpenMany(ctx, paths, audiotag.WithoutDuration())
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, f := range files {
//		fmt.Printf("%s: %s - %s\n", f.Format, f.Tags.Artist, f.Tags.Title)
//		f.Close()
//	}
func OpenMany(ctx context.Context, paths []string, opts ...Option) ([]*File, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]*File, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			file, err := OpenContext(ctx, path, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = file
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, file := range results {
			if file != nil {
				file.Close()
			}
		}
		return nil, err
	}
	return results, nil
}

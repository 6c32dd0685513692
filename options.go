package audiotag

import (
	"log/slog"

	"github.com/simonhull/audiotag/internal/types"
)

// Option configures how a file is read.
//
// Options use the functional options pattern:
//
//	file, err := audiotag.Open("song.flac",
//	    audiotag.WithoutDuration(),
//	    audiotag.WithImage(),
//	)
type Option func(*openOptions)

// openOptions holds configuration for opening files.
type openOptions struct {
	parseTags     bool
	parseDuration bool
	loadImage     bool
	ignoreErrors  bool   // replace undecodable text instead of failing
	encoding      string // forced charset for single-byte text
	strict        bool   // fail on any warning
	maxImageSize  int    // 0 = no limit
	logger        *slog.Logger
}

// defaultOptions returns the default configuration: tags and duration are
// read, images are not, and text must decode cleanly.
func defaultOptions() *openOptions {
	return &openOptions{
		parseTags:     true,
		parseDuration: true,
	}
}

// context builds the parse context for one stream.
func (o *openOptions) context(path string, size int64) *types.Context {
	ctx := types.NewContext(path, size)
	ctx.ParseTags = o.parseTags
	ctx.ParseDuration = o.parseDuration
	ctx.LoadImage = o.loadImage
	ctx.IgnoreErrors = o.ignoreErrors
	ctx.Encoding = o.encoding
	if o.logger != nil {
		ctx.Logger = o.logger
	}
	return ctx
}

// WithoutTags skips the descriptive tags. Formats that read tags and
// stream properties in one pass still skip the tag units.
func WithoutTags() Option {
	return func(o *openOptions) {
		o.parseTags = false
	}
}

// WithoutDuration skips duration, bitrate, sample rate, channel count and
// bit depth. For MP3 and Ogg this avoids scanning the audio stream.
func WithoutDuration() Option {
	return func(o *openOptions) {
		o.parseDuration = false
	}
}

// WithImage loads the embedded cover image into Tags.Image.
//
// Example:
//
//	file, err := audiotag.Open("song.mp3", audiotag.WithImage())
//	if img := file.Image(); img != nil {
//		os.WriteFile("cover."+img.Extension, img.Data, 0o644)
//	}
func WithImage() Option {
	return func(o *openOptions) {
		o.loadImage = true
	}
}

// WithIgnoreErrors replaces undecodable bytes in tag text with U+FFFD
// instead of failing the parse.
func WithIgnoreErrors() Option {
	return func(o *openOptions) {
		o.ignoreErrors = true
	}
}

// WithEncoding forces the charset of single-byte tag text, which is
// otherwise read as ISO-8859-1. name is an IANA or WHATWG label such as
// "cp1252" or "shift_jis".
func WithEncoding(name string) Option {
	return func(o *openOptions) {
		o.encoding = name
	}
}

// WithLogger sets the logger that receives debug records about skipped and
// malformed units. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *openOptions) {
		o.logger = logger
	}
}

// WithStrictParsing treats any warning as a fatal error.
//
// By default, recovered problems such as a malformed frame or a
// non-numeric track number are returned in File.Warnings.
func WithStrictParsing() Option {
	return func(o *openOptions) {
		o.strict = true
	}
}

// WithMaxImageSize drops embedded images larger than n bytes with a
// warning. The default of 0 means no limit.
func WithMaxImageSize(n int) Option {
	return func(o *openOptions) {
		o.maxImageSize = n
	}
}

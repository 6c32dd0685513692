// Package registry manages the container decoders for audio file types.
package registry

import (
	"sync"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// FormatParser is the interface all container decoders implement.
type FormatParser interface {
	// Parse reads the container and writes what it finds into tags.
	// Tags, duration and image are read as far as ctx asks for them.
	Parse(sr *binary.SafeReader, ctx *types.Context, tags *types.Tags) error
}

// DurationParser is an optional interface for decoders whose duration is
// computed in a second pass over the stream, after the tags.
type DurationParser interface {
	ParseDuration(sr *binary.SafeReader, ctx *types.Context, tags *types.Tags) error
}

var (
	mu      sync.RWMutex
	parsers = make(map[types.Format]FormatParser)
)

// Register registers a parser for a format.
// This is called by format packages during initialization (init functions).
func Register(format types.Format, parser FormatParser) {
	mu.Lock()
	defer mu.Unlock()
	parsers[format] = parser
}

// Get returns the parser for a given format.
// Returns nil if no parser is registered for the format.
func Get(format types.Format) FormatParser {
	mu.RLock()
	defer mu.RUnlock()
	return parsers[format]
}

// Formats returns the formats that have a registered parser.
func Formats() []types.Format {
	mu.RLock()
	defer mu.RUnlock()
	formats := make([]types.Format, 0, len(parsers))
	for f := range parsers {
		formats = append(formats, f)
	}
	return formats
}

package audiotag

import (
	"io"
	"slices"

	"github.com/simonhull/audiotag/internal/types"
)

// Format identifies the container decoder used for a file.
type Format = types.Format

// Supported formats.
const (
	FormatUnknown = types.FormatUnknown
	FormatID3     = types.FormatID3
	FormatOgg     = types.FormatOgg
	FormatWAV     = types.FormatWAV
	FormatFLAC    = types.FormatFLAC
	FormatWMA     = types.FormatWMA
	FormatMP4     = types.FormatMP4
	FormatAIFF    = types.FormatAIFF
)

// DetectFormat selects the decoder for a file from its name, falling back to
// its leading bytes.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	return types.DetectFormat(r, size, path)
}

// IsSupported reports whether name has an extension a decoder handles.
func IsSupported(name string) bool {
	return types.FormatForName(name) != FormatUnknown
}

// SupportedExtensions returns every handled file extension, sorted.
func SupportedExtensions() []string {
	var exts []string
	for f := FormatID3; f <= FormatAIFF; f++ {
		exts = append(exts, f.Extensions()...)
	}
	slices.Sort(exts)
	return exts
}

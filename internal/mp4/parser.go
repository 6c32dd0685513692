package mp4

import (
	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/text"
	"github.com/simonhull/audiotag/internal/types"
)

// parser implements registry.FormatParser and registry.DurationParser for
// MP4 files.
type parser struct{}

// Parse walks moov/udta/meta/ilst for iTunes metadata items.
func (p *parser) Parse(sr *binary.SafeReader, ctx *types.Context, tags *types.Tags) error {
	dec, err := text.ForContext(ctx)
	if err != nil {
		return err
	}
	w := &walker{sr: sr, ctx: ctx, tags: tags, dec: dec, stage: "tags"}
	return w.walk(metaTree, 0, sr.Size(), 0)
}

// ParseDuration walks the movie header and the audio sample descriptions.
func (p *parser) ParseDuration(sr *binary.SafeReader, ctx *types.Context, tags *types.Tags) error {
	w := &walker{sr: sr, ctx: ctx, tags: tags, stage: "duration"}
	return w.walk(audioTree, 0, sr.Size(), 0)
}

// init registers the MP4 parser
func init() {
	registry.Register(types.FormatMP4, &parser{})
}

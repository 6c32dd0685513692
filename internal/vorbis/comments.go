// Package vorbis parses Vorbis comment blocks and FLAC PICTURE blocks.
//
// Vorbis comments are shared by Ogg Vorbis, Opus, Speex and FLAC: a list of
// UTF-8 "key=value" strings whose keys are case-insensitive.
package vorbis

import (
	"strings"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/text"
	"github.com/simonhull/audiotag/internal/types"
)

// fieldNames maps lower-case comment keys to tag fields. Other keys are kept
// as extra.<key>.
var fieldNames = map[string]string{
	"album":       "album",
	"albumartist": "albumartist",
	"title":       "title",
	"artist":      "artist",
	"author":      "artist",
	"date":        "year",
	"tracknumber": "track",
	"tracktotal":  "track_total",
	"totaltracks": "track_total",
	"discnumber":  "disc",
	"disctotal":   "disc_total",
	"totaldiscs":  "disc_total",
	"genre":       "genre",
	"description": "comment",
	"comment":     "comment",
	"comments":    "comment",
	"composer":    "extra.composer",
	"bpm":         "extra.bpm",
	"copyright":   "extra.copyright",
	"isrc":        "extra.isrc",
	"lyrics":      "extra.lyrics",
	"publisher":   "extra.publisher",
	"language":    "extra.language",
	"director":    "extra.director",
	"website":     "extra.url",
}

// pictureKey holds a base64-encoded FLAC PICTURE block.
const pictureKey = "metadata_block_picture"

// ParseComments reads a comment block from data into tags. withVendor is
// false for blocks that start directly with the comment count, as the
// Speex comment packet does.
//
// A block that ends early keeps the comments read so far and is reported
// as a warning.
func ParseComments(data []byte, withVendor bool, ctx *types.Context, tags *types.Tags) error {
	dec, err := text.ForContext(ctx)
	if err != nil {
		return err
	}

	cr := binary.NewChainReaderLE(binary.NewReader(binary.FromBytes(data, ctx.Path), 0))
	if withVendor {
		vendorLength := binary.ReadChained[uint32](cr, "vendor length")
		cr.Skip(int64(vendorLength))
	}
	count := binary.ReadChained[uint32](cr, "comment count")

	for i := uint32(0); i < count && cr.Error() == nil; i++ {
		off := cr.Offset()
		length := binary.ReadChained[uint32](cr, "comment length")
		raw := cr.Bytes(int(length), "comment")
		if cr.Error() != nil {
			break
		}

		comment, err := dec.UTF8(raw)
		if err != nil {
			ctx.WarnErr("tags", off, err)
			continue
		}
		key, value, ok := strings.Cut(comment, "=")
		if !ok {
			continue
		}
		setComment(strings.ToLower(key), value, ctx, tags, off)
	}

	if err := cr.Error(); err != nil {
		ctx.WarnErr("tags", cr.Offset(), &types.MalformedUnitError{
			Unit:   "Vorbis comment block",
			Reason: err.Error(),
			Offset: cr.Offset(),
		})
	}
	return nil
}

func setComment(key, value string, ctx *types.Context, tags *types.Tags, off int64) {
	if key == pictureKey {
		if !ctx.LoadImage {
			return
		}
		image, err := parseBase64Picture(value, ctx.Path)
		if err != nil {
			ctx.WarnErr("image", off, err)
			return
		}
		tags.Set("image", image)
		return
	}

	field, ok := fieldNames[key]
	if !ok {
		field = types.ExtraPrefix + key
	}

	var err error
	switch field {
	case "track", "disc":
		err = tags.SetNumberPair(field, value)
	case "track_total", "disc_total":
		err = tags.SetNumber(field, value)
	default:
		tags.Set(field, value)
	}
	if err != nil {
		ctx.WarnErr("tags", off, err)
	}
}

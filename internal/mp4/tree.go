package mp4

import (
	"errors"

	"github.com/simonhull/audiotag/internal/text"
	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// leafFunc decodes the payload of an atom that ends a tree path.
type leafFunc func(w *walker, data []byte, off int64) error

// node is one level of the traversal tree. Atoms with a child node are
// descended into, atoms with a leaf are read and decoded, and any other atom
// is skipped.
type node struct {
	children map[string]*node
	leaf     leafFunc
}

func branch(children map[string]*node) *node {
	return &node{children: children}
}

func leaf(fn leafFunc) *node {
	return &node{leaf: fn}
}

// dataLeaf is an ilst item holding a single "data" atom.
func dataLeaf(fn leafFunc) *node {
	return branch(map[string]*node{"data": leaf(fn)})
}

// metaTree maps iTunes item atoms to tag fields.
var metaTree = branch(map[string]*node{
	"moov": branch(map[string]*node{
		"udta": branch(map[string]*node{
			"meta": branch(map[string]*node{
				"ilst": branch(map[string]*node{
					"\xa9ART": dataLeaf(dataField("artist")),
					"\xa9alb": dataLeaf(dataField("album")),
					"\xa9cmt": dataLeaf(dataField("comment")),
					"\xa9day": dataLeaf(dataField("year")),
					"\xa9des": dataLeaf(dataField("extra.description")),
					"\xa9dir": dataLeaf(dataField("extra.director")),
					"\xa9gen": dataLeaf(dataField("genre")),
					"\xa9lyr": dataLeaf(dataField("extra.lyrics")),
					"\xa9mvn": dataLeaf(dataField("movement")),
					"\xa9nam": dataLeaf(dataField("title")),
					"\xa9pub": dataLeaf(dataField("extra.publisher")),
					"\xa9wrt": dataLeaf(dataField("extra.composer")),
					"aART":    dataLeaf(dataField("albumartist")),
					"cprt":    dataLeaf(dataField("extra.copyright")),
					"desc":    dataLeaf(dataField("extra.description")),
					"disk":    dataLeaf(numberPair("disc")),
					"gnre":    dataLeaf(parseGenre),
					"trkn":    dataLeaf(numberPair("track")),
					"tmpo":    dataLeaf(dataField("extra.bpm")),
					"covr":    dataLeaf(coverImage),
					"----":    leaf(parseCustom),
				}),
			}),
		}),
	}),
})

// audioTree reaches the movie header and the sample descriptions.
var audioTree = branch(map[string]*node{
	"moov": branch(map[string]*node{
		"mvhd": leaf(parseMvhd),
		"trak": branch(map[string]*node{
			"mdia": branch(map[string]*node{
				"minf": branch(map[string]*node{
					"stbl": branch(map[string]*node{
						"stsd": branch(map[string]*node{
							"mp4a": leaf(parseMp4a),
							"alac": leaf(parseAlac),
						}),
					}),
				}),
			}),
		}),
	}),
})

// walker traverses atoms along a tree and writes into tags.
type walker struct {
	sr    *binary.SafeReader
	ctx   *types.Context
	tags  *types.Tags
	dec   *text.Decoder
	stage string
}

// walk visits the atoms in [off, end) against n. A malformed atom ends the
// current branch with a warning; decoding problems inside a leaf are
// reported and the walk moves on to the next atom. Text that fails a strict
// decoder stops the walk and is returned.
func (w *walker) walk(n *node, off, end int64, depth int) error {
	for off+headerSize <= end {
		atom, err := readAtomHeader(w.sr, off)
		if err != nil {
			w.ctx.WarnErr(w.stage, off, err)
			return nil
		}
		if atom.DataSize() <= 0 {
			// Empty atom: continue with the next header.
			off += headerSize
			continue
		}
		w.ctx.Debug("mp4 atom", "type", atom.Type, "offset", off, "size", atom.Size, "depth", depth)

		child := n.children[atom.Type]
		next := atom.End()
		if next > end {
			if child != nil {
				w.ctx.WarnErr(w.stage, off, &types.MalformedUnitError{
					Unit:   "MP4 atom " + atom.Type,
					Reason: "atom extends past its parent",
					Offset: off,
				})
			}
			next = end
		}

		switch {
		case child == nil:
		case child.leaf != nil:
			data := w.sr.Peek(atom.DataOffset(), int(next-atom.DataOffset()))
			if err := child.leaf(w, data, off); err != nil {
				var textErr *types.TextDecodeError
				if errors.As(err, &textErr) {
					return err
				}
				w.ctx.WarnErr(w.stage, off, err)
			}
		default:
			if err := w.walk(child, atom.DataOffset()+versionSkip(atom.Type), next, depth+1); err != nil {
				return err
			}
		}
		off = next
	}
	return nil
}

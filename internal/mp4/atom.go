// Package mp4 reads iTunes-style metadata and audio properties from MP4 and
// QuickTime containers (m4a, m4b, aax and friends).
package mp4

import (
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// headerSize is the size of a plain atom header: 32-bit size and type.
const headerSize = 8

// Atom is the header of an MP4 atom (box).
type Atom struct {
	Size     uint64 // Total size including header
	Type     string // 4-character type code
	Offset   int64  // Position in the stream
	Extended bool   // Whether this uses 64-bit extended size
}

// HeaderSize returns the number of header bytes before the atom payload.
func (a *Atom) HeaderSize() int64 {
	if a.Extended {
		return 16
	}
	return headerSize
}

// DataSize returns the size of the atom's data (excluding header).
func (a *Atom) DataSize() int64 {
	return int64(a.Size) - a.HeaderSize()
}

// DataOffset returns the stream offset where the atom's data starts.
func (a *Atom) DataOffset() int64 {
	return a.Offset + a.HeaderSize()
}

// End returns the offset just past the atom.
func (a *Atom) End() int64 {
	return a.DataOffset() + max(a.DataSize(), 0)
}

// readAtomHeader reads an atom header at offset. A size of 1 means a 64-bit
// size follows the type.
func readAtomHeader(sr *binary.SafeReader, offset int64) (*Atom, error) {
	cr := binary.NewChainReader(binary.NewReader(sr, offset))
	size32 := binary.ReadChained[uint32](cr, "atom size")
	atomType := cr.String(4, "atom type")
	if err := cr.Error(); err != nil {
		return nil, err
	}

	atom := &Atom{
		Size:   uint64(size32),
		Type:   atomType,
		Offset: offset,
	}
	if size32 == 1 {
		atom.Size = binary.ReadChained[uint64](cr, "extended atom size")
		atom.Extended = true
		if err := cr.Error(); err != nil {
			return nil, err
		}
		if atom.Size < 16 {
			return nil, &types.MalformedUnitError{
				Unit:   "MP4 atom " + atomType,
				Reason: fmt.Sprintf("invalid extended size %d", atom.Size),
				Offset: offset,
			}
		}
	}
	return atom, nil
}

// versionSkip returns the bytes of version and flags that precede the
// children of a container atom.
func versionSkip(atomType string) int64 {
	switch atomType {
	case "meta":
		return 4
	case "stsd":
		return 8
	}
	return 0
}

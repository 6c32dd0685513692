package mp4

import (
	"fmt"
	"io"
	"strings"

	"github.com/simonhull/audiotag/internal/binary"
)

// containers are the atoms Dump descends into.
var containers = map[string]bool{
	"moov": true, // Movie container
	"trak": true, // Track container
	"mdia": true, // Media container
	"minf": true, // Media information
	"stbl": true, // Sample table
	"stsd": true, // Sample descriptions
	"udta": true, // User data
	"meta": true, // Metadata container
	"ilst": true, // iTunes metadata list
	"edts": true, // Edit list container
}

// Dump writes the atom hierarchy of sr to w, one atom per line, indented by
// depth. Items of an ilst are expanded to show their data atoms.
func Dump(w io.Writer, sr *binary.SafeReader) error {
	return dump(w, sr, 0, sr.Size(), 0, false)
}

func dump(w io.Writer, sr *binary.SafeReader, off, end int64, depth int, inIlst bool) error {
	indent := strings.Repeat("  ", depth)
	for off+headerSize <= end {
		atom, err := readAtomHeader(sr, off)
		if err != nil {
			return err
		}

		line := fmt.Sprintf("%s%s (size: %d, offset: %d)", indent, printable(atom.Type), atom.Size, off)
		if atom.Type == "data" && atom.DataSize() >= 4 {
			if dataType, err := binary.Read[uint32](sr, atom.DataOffset(), "data type"); err == nil {
				line += fmt.Sprintf(" type: %d", dataType)
			}
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}

		if atom.Size == 0 || atom.DataSize() <= 0 {
			off += headerSize
			continue
		}
		next := min(atom.End(), end)
		if containers[atom.Type] || inIlst {
			if err := dump(w, sr, atom.DataOffset()+versionSkip(atom.Type), next, depth+1, atom.Type == "ilst"); err != nil {
				return err
			}
		}
		off = next
	}
	return nil
}

// printable renders the Mac Roman copyright sign used by iTunes item types.
func printable(atomType string) string {
	return strings.ReplaceAll(atomType, "\xa9", "©")
}

// Command atom-dump prints the atom tree of MP4 files, and optionally the
// tags read from them, to confirm what the metadata reader sees.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmulholl/janus-go/janus"

	"github.com/simonhull/audiotag"
	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/mp4"
)

var helptext = fmt.Sprintf(`
Usage: %s [FLAGS] [ARGUMENTS]

  Prints the atom hierarchy of one or more MP4/M4A/M4B files, one atom per
  line with its size and offset. Items of the iTunes ilst are expanded to
  show their data atoms.

    $ atom-dump book.m4b

Arguments:
  [files]                 MP4 files to dump.

Flags:
  -t, --tags              Also print the tags read from each file.
  -h, --help              Display this help text and exit.
  -v, --version           Display the application's version number and exit.
`, filepath.Base(os.Args[0]))

func main() {
	parser := janus.NewParser()
	parser.Helptext = helptext
	parser.Version = audiotag.Version
	parser.NewFlag("tags t")
	parser.Parse()

	if !parser.HasArgs() {
		fmt.Fprintln(os.Stderr, "Error: you must specify files to dump.")
		os.Exit(1)
	}

	failed := false
	for _, path := range parser.GetArgs() {
		if err := dumpFile(path, parser.GetFlag("tags")); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func dumpFile(path string, withTags bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", path)
	if err := mp4.Dump(os.Stdout, binary.NewSafeReader(f, stat.Size(), path)); err != nil {
		return err
	}
	if !withTags {
		return nil
	}

	file, err := audiotag.OpenReader(f, stat.Size(), path)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(file.Tags.String())
	for _, w := range file.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	return nil
}

// Package audiotag reads tags and stream properties from audio files.
//
// It decodes the containers itself, without cgo or codec libraries, and
// never reads more of a file than the metadata and a bounded sample of the
// audio stream.
//
// # Quick Start
//
//	file, err := audiotag.Open("song.flac")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer file.Close()
//
//	fmt.Printf("%s - %s\n", file.Tags.Artist, file.Tags.Title)
//	fmt.Printf("Duration: %s\n", file.Tags.TotalTime())
//
// # Supported Formats
//
//   - MP3 (and MP1/MP2): ID3v1, ID3v2.2 to 2.4, Xing/VBR or frame-scan duration
//   - MP4/M4A/M4B/AAX: iTunes metadata atoms, AAC and ALAC sample entries
//   - Ogg: Vorbis, Opus, Speex and FLAC streams with Vorbis comments
//   - FLAC: Vorbis comments, PICTURE blocks and a leading ID3v2 tag
//   - WMA: ASF content descriptions and stream properties
//   - WAV: RIFF INFO lists and embedded ID3v2 chunks
//   - AIFF/AIFF-C: text chunks and embedded ID3v2 chunks
//
// # Fields
//
// Canonical fields live on Tags. Fields without a canonical slot, such as
// composer or lyrics, are kept in Tags.Extra under lower-case names. When a
// file holds several different values for one string field, they are
// joined with a NUL; Tags.Values splits them:
//
//	for _, artist := range file.Tags.Values("artist") {
//		fmt.Println(artist)
//	}
//
// # Error Handling
//
// audiotag distinguishes between fatal errors and warnings:
//
//   - UnsupportedFormatError: no decoder matches the file
//   - InvalidContainerError: a required header is missing
//   - TextDecodeError: tag text is not valid in its encoding; use
//     WithIgnoreErrors to replace bad bytes instead
//
// Malformed frames, atoms or chunks are skipped and reported in
// File.Warnings, as are non-numeric track numbers. A failed duration
// estimate leaves the duration fields unset and adds a warning.
//
// Use errors.As to inspect a failure:
//
//	var invalid *audiotag.InvalidContainerError
//	if errors.As(err, &invalid) {
//		log.Printf("bad %s file at offset %d", invalid.Format, invalid.Offset)
//	}
//
// # Concurrency
//
// A single Open call is synchronous. OpenMany parses files in parallel
// and returns them in input order.
package audiotag

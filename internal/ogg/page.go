// Package ogg demultiplexes Ogg streams and reads the Vorbis, Opus, Speex
// and FLAC headers they carry.
package ogg

import (
	"fmt"
	"io"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

const (
	pageHeaderSize = 27

	// maxPageSize bounds the backward search for the last page.
	maxPageSize = 65536
)

// page is an Ogg page header and its segment table.
type page struct {
	headerType byte // 0x01 continued, 0x02 first page, 0x04 last page
	granule    int64
	serial     uint32
	sequence   uint32
	segments   []byte
	offset     int64
}

// dataOffset returns the offset of the page payload.
func (p *page) dataOffset() int64 {
	return p.offset + pageHeaderSize + int64(len(p.segments))
}

// readPage reads the page header at offset. It returns io.EOF when fewer
// than a header's worth of bytes remain.
func readPage(sr *binary.SafeReader, offset int64) (*page, error) {
	hdr := sr.Peek(offset, pageHeaderSize)
	if len(hdr) < pageHeaderSize {
		return nil, io.EOF
	}
	if string(hdr[:4]) != "OggS" || hdr[4] != 0 {
		return nil, &types.InvalidContainerError{
			Path:   sr.Path(),
			Format: types.FormatOgg,
			Reason: fmt.Sprintf("bad page header %q version %d", hdr[:4], hdr[4]),
			Offset: offset,
		}
	}

	cr := binary.NewChainReaderLE(binary.NewReader(sr, offset+5))
	p := &page{offset: offset}
	p.headerType = binary.ReadChained[uint8](cr, "header type")
	p.granule = int64(binary.ReadChained[uint64](cr, "granule position"))
	p.serial = binary.ReadChained[uint32](cr, "serial number")
	p.sequence = binary.ReadChained[uint32](cr, "sequence number")
	cr.Skip(4) // checksum
	count := binary.ReadChained[uint8](cr, "segment count")
	p.segments = cr.Bytes(int(count), "segment table")
	if err := cr.Error(); err != nil {
		return nil, io.EOF
	}
	return p, nil
}

// demuxer reassembles packets from consecutive pages. Segments of 255
// bytes continue a packet, into the next page if needed; a shorter segment
// ends it.
type demuxer struct {
	sr         *binary.SafeReader
	offset     int64
	pending    []byte
	queue      [][]byte
	maxGranule int64
	done       bool
}

func newDemuxer(sr *binary.SafeReader, offset int64) *demuxer {
	return &demuxer{sr: sr, offset: offset}
}

// next returns the next complete packet, or io.EOF at the end of the
// stream. A packet still open at the end of the stream is returned as is.
func (d *demuxer) next() ([]byte, error) {
	for len(d.queue) == 0 {
		if d.done {
			if d.pending != nil {
				packet := d.pending
				d.pending = nil
				return packet, nil
			}
			return nil, io.EOF
		}
		if err := d.readPage(); err != nil {
			return nil, err
		}
	}
	packet := d.queue[0]
	d.queue = d.queue[1:]
	return packet, nil
}

func (d *demuxer) readPage() error {
	p, err := readPage(d.sr, d.offset)
	if err == io.EOF {
		d.done = true
		return nil
	}
	if err != nil {
		return err
	}
	d.maxGranule = max(d.maxGranule, p.granule)

	pos := p.dataOffset()
	for _, size := range p.segments {
		d.pending = append(d.pending, d.sr.Peek(pos, int(size))...)
		pos += int64(size)
		if size < 255 {
			d.queue = append(d.queue, d.pending)
			d.pending = nil
		}
	}
	if pos > d.sr.Size() {
		d.done = true
	}
	d.offset = pos
	return nil
}

// drain reads every remaining page so that maxGranule covers the stream.
func (d *demuxer) drain() error {
	for !d.done {
		if err := d.readPage(); err != nil {
			return err
		}
		d.queue = d.queue[:0]
		d.pending = nil
	}
	return nil
}

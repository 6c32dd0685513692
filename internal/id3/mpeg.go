package id3

import (
	"bytes"
	"encoding/binary"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

const (
	samplesPerFrame = 1152

	// Frames scanned before the duration is extrapolated.
	maxEstimationFrames = (30 * 44100) / samplesPerFrame

	// Frames with equal bitrate after which a stream is treated as CBR.
	cbrDetectionFrames = 5

	// Bytes read at a time while walking frame headers and resyncing.
	syncWindow = 4 << 10
)

// Sample rates by MPEG version id (2.5, reserved, 2, 1) and rate index.
var sampleRates = [4][]int{
	{11025, 12000, 8000},
	nil,
	{22050, 24000, 16000},
	{44100, 48000, 32000},
}

var (
	v1l1 = []int{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0}
	v1l2 = []int{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0}
	v1l3 = []int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	v2l1 = []int{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0}
	v2l2 = []int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
	v2l3 = v2l2
)

// Bitrates in kbit/s by version id, layer id (3 = layer I) and bitrate index.
var bitrates = [4][4][]int{
	{nil, v2l3, v2l2, v2l1},
	{},
	{nil, v2l3, v2l2, v2l1},
	{nil, v1l3, v1l2, v1l1},
}

var channelsPerMode = [4]int{2, 2, 2, 1}

// frameHeader is a decoded 4-byte MPEG audio frame header.
type frameHeader struct {
	versionID   int
	layerID     int
	bitrate     int // kbit/s
	sampleRate  int
	padding     int
	channelMode int
}

// parseFrameHeader decodes b as an MPEG frame header. ok is false for bytes
// that cannot start a frame.
func parseFrameHeader(b []byte) (frameHeader, bool) {
	if len(b) < 4 || b[0] != 0xFF || b[1] <= 0xE0 {
		return frameHeader{}, false
	}
	h := frameHeader{
		versionID:   int(b[1]>>3) & 3,
		layerID:     int(b[1]>>1) & 3,
		channelMode: int(b[3]>>6) & 3,
	}
	brID := int(b[2]>>4) & 0x0F
	srID := int(b[2]>>2) & 3
	if brID == 0 || brID > 14 || srID == 3 || h.layerID == 0 || h.versionID == 1 {
		return frameHeader{}, false
	}
	if b[2]&0x02 != 0 {
		h.padding = 1
	}
	h.bitrate = bitrates[h.versionID][h.layerID][brID]
	h.sampleRate = sampleRates[h.versionID][srID]
	return h, true
}

// length returns the frame length in bytes, header included.
func (h frameHeader) length() int {
	return 144000*h.bitrate/h.sampleRate + h.padding
}

// mpegScanner estimates the duration and bitrate of an MPEG audio stream.
type mpegScanner struct {
	sr   *binutil.SafeReader
	ctx  *types.Context
	tags *types.Tags

	frames        int
	bitrateAccu   int
	frameSizeAccu int
	lastBitrates  []int
	audioOffset   int64

	buf    []byte // read window starting at bufOff
	bufOff int64
}

// scan walks frames starting at off. It stops at a usable Xing header, once
// the stream looks CBR, after maxEstimationFrames, or at the end of the
// stream.
func (s *mpegScanner) scan(off int64) {
	pos := off
	for {
		b := s.bytesAt(pos, 4)
		if len(b) < 4 {
			if s.frames > 0 {
				s.tags.Set("bitrate", float64(s.bitrateAccu)/float64(s.frames))
			}
			break
		}

		h, ok := parseFrameHeader(b)
		if !ok {
			// Resynchronize on the next 0xFF.
			next := s.nextSync(pos + 1)
			if next < 0 {
				next = s.sr.Size()
			}
			pos = next
			continue
		}

		s.tags.Set("channels", channelsPerMode[h.channelMode])
		s.tags.Set("samplerate", h.sampleRate)

		if s.frames == 0 {
			if next, done := s.xing(pos, h); next > 0 {
				if done {
					return
				}
				pos = next
				continue
			}
		}

		s.frames++
		s.bitrateAccu += h.bitrate
		if s.frames == 1 {
			s.audioOffset = pos
		}
		if s.frames <= cbrDetectionFrames {
			s.lastBitrates = append(s.lastBitrates, h.bitrate)
		}

		frameLength := h.length()
		s.frameSizeAccu += frameLength
		if s.frames == maxEstimationFrames || s.isCBR() {
			s.extrapolate(h.sampleRate)
			return
		}

		pos += 4
		if frameLength > 1 {
			pos += int64(frameLength - 4)
		}
	}

	if s.tags.SampleRate > 0 {
		s.tags.Set("duration", float64(s.frames*samplesPerFrame)/float64(s.tags.SampleRate))
	}
}

// window returns the buffered bytes from off onwards, reading a new window
// when off falls outside the current one.
func (s *mpegScanner) window(off int64) []byte {
	if off < s.bufOff || off >= s.bufOff+int64(len(s.buf)) {
		s.buf = s.sr.Peek(off, syncWindow)
		s.bufOff = off
	}
	return s.buf[off-s.bufOff:]
}

// bytesAt returns up to n bytes at off, short only at the end of the stream.
func (s *mpegScanner) bytesAt(off int64, n int) []byte {
	b := s.window(off)
	if len(b) < n {
		s.buf = s.sr.Peek(off, max(n, syncWindow))
		s.bufOff = off
		b = s.buf
	}
	return b[:min(n, len(b))]
}

// nextSync returns the offset of the next 0xFF at or after off, or -1.
func (s *mpegScanner) nextSync(off int64) int64 {
	for off < s.sr.Size() {
		w := s.window(off)
		if len(w) == 0 {
			return -1
		}
		if i := bytes.IndexByte(w, 0xFF); i >= 0 {
			return off + int64(i)
		}
		off += int64(len(w))
	}
	return -1
}

func (s *mpegScanner) isCBR() bool {
	if s.frames != cbrDetectionFrames {
		return false
	}
	for _, br := range s.lastBitrates[1:] {
		if br != s.lastBitrates[0] {
			return false
		}
	}
	return true
}

// extrapolate derives the duration from the audio stream size, leaving out a
// trailing ID3v1 block, and the mean frame size seen so far.
func (s *mpegScanner) extrapolate(sampleRate int) {
	streamSize := max(s.sr.Size()-v1Size, 0) - s.audioOffset
	meanFrameSize := float64(s.frameSizeAccu) / float64(s.frames)
	estFrames := float64(streamSize) / meanFrameSize
	s.tags.Set("duration", estFrames*samplesPerFrame/float64(sampleRate))
	s.tags.Set("bitrate", float64(s.bitrateAccu)/float64(s.frames))
}

// xing looks for a Xing header inside the frame at pos. It returns the
// offset after the header fields, or 0 when there is none, and whether the
// header gave both the frame and byte counts.
func (s *mpegScanner) xing(pos int64, h frameHeader) (int64, bool) {
	frame := s.sr.Peek(pos, h.length())
	idx := bytes.Index(frame, []byte("Xing"))
	if idx < 0 {
		return 0, false
	}

	next := pos + int64(idx) + 4
	field := func() int32 {
		b := s.sr.Peek(next, 4)
		next += 4
		if len(b) < 4 {
			return 0
		}
		return int32(binary.BigEndian.Uint32(b))
	}

	flags := field()
	var frames, byteCount int32
	if flags&1 != 0 {
		frames = field()
	}
	if flags&2 != 0 {
		byteCount = field()
	}
	if flags&4 != 0 {
		next += 100 // table of contents
	}
	if flags&8 != 0 {
		next += 4 // quality indicator
	}

	if frames <= 0 || byteCount <= 0 {
		return next, false
	}

	spf := samplesPerFrame
	if h.versionID <= 2 {
		spf = 576 // MPEG-2 and 2.5
	}
	duration := float64(frames) * float64(spf) / float64(h.sampleRate)
	s.tags.Set("duration", duration)
	s.tags.Set("bitrate", float64(byteCount)*8/duration/1000)
	s.ctx.Debug("xing header", "offset", pos+int64(idx), "frames", frames, "bytes", byteCount)
	return next, true
}

package mp4

import (
	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// sampleEntryChild is where the first child atom (esds, alac) of an audio
// sample entry starts: size at 28, payload at 36.
const sampleEntryChild = 28

// payloadReader returns a big-endian chain reader over an atom payload.
func payloadReader(path string, data []byte) *binary.ChainReader {
	return binary.NewChainReader(binary.NewReader(binary.FromBytes(data, path), 0))
}

// childPayload returns the payload of the child atom inside an audio sample
// entry.
func childPayload(path string, data []byte) []byte {
	cr := payloadReader(path, data)
	cr.Seek(sampleEntryChild)
	size := binary.ReadChained[uint32](cr, "child atom size")
	if cr.Error() != nil {
		return nil
	}
	start := sampleEntryChild + headerSize
	if start > len(data) {
		return nil
	}
	return data[start:min(start+int(size), len(data))]
}

// parseMvhd reads the movie duration from the movie header.
func parseMvhd(w *walker, data []byte, off int64) error {
	cr := payloadReader(w.sr.Path(), data)
	version := binary.ReadChained[uint8](cr, "version")
	cr.Skip(3) // flags

	var timeScale uint32
	var duration int64
	if version == 0 {
		cr.Skip(8) // creation and modification time
		timeScale = binary.ReadChained[uint32](cr, "time scale")
		duration = int64(binary.ReadChained[uint32](cr, "duration"))
	} else {
		cr.Skip(16)
		timeScale = binary.ReadChained[uint32](cr, "time scale")
		duration = int64(binary.ReadChained[uint64](cr, "duration"))
	}
	if err := cr.Error(); err != nil {
		return err
	}
	if timeScale == 0 {
		return &types.MalformedUnitError{Unit: "MP4 atom mvhd", Reason: "time scale is zero", Offset: off}
	}
	w.tags.Set("duration", float64(duration)/float64(timeScale))
	return nil
}

// parseMp4a reads an AAC sample entry and the average bitrate from its ES
// descriptor.
func parseMp4a(w *walker, data []byte, off int64) error {
	cr := payloadReader(w.sr.Path(), data)
	cr.Skip(16) // reserved, data reference index, version, revision, vendor
	channels := binary.ReadChained[uint16](cr, "channels")
	cr.Skip(4) // sample size, compression id
	sampleRate := binary.ReadChained[uint32](cr, "sample rate")
	if err := cr.Error(); err != nil {
		return err
	}
	w.tags.Set("channels", int(channels))
	w.tags.Set("samplerate", int(sampleRate))

	esds := payloadReader(w.sr.Path(), childPayload(w.sr.Path(), data))
	esds.Skip(5) // version, flags, ES descriptor tag
	skipDescriptorLength(esds)
	esds.Skip(4) // ES id, flags, decoder config tag
	skipDescriptorLength(esds)
	esds.Skip(9) // object type, stream type, buffer size, max bitrate
	avgBitrate := binary.ReadChained[uint32](esds, "average bitrate")
	if err := esds.Error(); err != nil {
		return err
	}
	w.tags.Set("bitrate", float64(avgBitrate)/1000)
	return nil
}

// skipDescriptorLength consumes an expandable descriptor length: up to
// three 0x80 continuation bytes followed by the length byte.
func skipDescriptorLength(cr *binary.ChainReader) {
	for range 4 {
		if binary.ReadChained[uint8](cr, "descriptor length") != 0x80 {
			return
		}
	}
}

// parseAlac reads the ALAC magic cookie of an Apple Lossless sample entry.
func parseAlac(w *walker, data []byte, off int64) error {
	cr := payloadReader(w.sr.Path(), childPayload(w.sr.Path(), data))
	cr.Skip(9) // version, flags, frame length, compatible version
	bitDepth := int8(binary.ReadChained[uint8](cr, "bit depth"))
	cr.Skip(3) // pb, mb, kb
	channels := int8(binary.ReadChained[uint8](cr, "channels"))
	cr.Skip(6) // max run, max frame bytes
	avgBitrate := binary.ReadChained[uint32](cr, "average bitrate")
	sampleRate := binary.ReadChained[uint32](cr, "sample rate")
	if err := cr.Error(); err != nil {
		return err
	}

	w.tags.Set("channels", int(channels))
	w.tags.Set("samplerate", int(sampleRate))
	w.tags.Set("bitrate", float64(avgBitrate)/1000)
	w.tags.Set("bitdepth", int(bitDepth))
	return nil
}

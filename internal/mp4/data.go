package mp4

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/simonhull/audiotag/internal/id3"
	"github.com/simonhull/audiotag/internal/text"
	"github.com/simonhull/audiotag/internal/types"
)

// Well-known data atom type indicators.
const (
	typeUTF8     = 1
	typeUTF16    = 2
	typeShiftJIS = 3
	typeJPEG     = 13
	typePNG      = 14
	typeBESigned = 21
	typeBEUint   = 22
	typeInt8     = 65
	typeInt16    = 66
	typeInt32    = 67
	typeInt64    = 74
	typeUint8    = 75
	typeUint16   = 76
	typeUint32   = 77
	typeUint64   = 78
)

// decodeData converts the payload of a data atom according to its type
// indicator. The payload starts after the 4-byte type and 4-byte locale.
// ok is false for type indicators without a known conversion. UTF-8 text
// follows the decoder's policy.
func (w *walker) decodeData(data []byte) (value any, ok bool, err error) {
	dataType := binary.BigEndian.Uint32(data[:4])
	payload := data[8:]
	switch dataType {
	case typeUTF8:
		s, err := w.dec.UTF8(payload)
		return s, err == nil, err
	case typeUTF16:
		return text.UTF16Replace(payload), true, nil
	case typeShiftJIS:
		return text.ShiftJIS(payload), true, nil
	case typeJPEG, typePNG:
		return payload, true, nil
	case typeBESigned, typeInt8, typeInt16, typeInt32, typeInt64:
		return signedInt(payload), true, nil
	case typeBEUint, typeUint8, typeUint16, typeUint32, typeUint64:
		return unsignedInt(payload), true, nil
	}
	return nil, false, nil
}

// signedInt decodes a big-endian signed integer of 1, 2, 4 or 8 bytes;
// other lengths yield -1.
func signedInt(b []byte) int {
	switch len(b) {
	case 1:
		return int(int8(b[0]))
	case 2:
		return int(int16(binary.BigEndian.Uint16(b)))
	case 4:
		return int(int32(binary.BigEndian.Uint32(b)))
	case 8:
		return int(int64(binary.BigEndian.Uint64(b)))
	}
	return -1
}

// unsignedInt decodes a big-endian unsigned integer of 1, 2, 4 or 8 bytes;
// other lengths yield -1.
func unsignedInt(b []byte) int {
	switch len(b) {
	case 1:
		return int(b[0])
	case 2:
		return int(binary.BigEndian.Uint16(b))
	case 4:
		return int(binary.BigEndian.Uint32(b))
	case 8:
		return int(binary.BigEndian.Uint64(b))
	}
	return -1
}

func shortData(off int64, need, got int) error {
	return &types.MalformedUnitError{
		Unit:   "MP4 data atom",
		Reason: fmt.Sprintf("payload has %d bytes, need %d", got, need),
		Offset: off,
	}
}

// setData decodes a data atom into field.
func (w *walker) setData(field string, data []byte, off int64) error {
	if len(data) < 8 {
		return shortData(off, 8, len(data))
	}
	value, ok, err := w.decodeData(data)
	if err != nil {
		return err
	}
	if !ok {
		w.ctx.Debug("mp4 data atom with unknown type", "field", field, "type", binary.BigEndian.Uint32(data[:4]))
		return nil
	}
	w.tags.Set(field, value)
	return nil
}

func dataField(field string) leafFunc {
	return func(w *walker, data []byte, off int64) error {
		return w.setData(field, data, off)
	}
}

// numberPair reads "trkn" and "disk" items: three big-endian 16-bit values
// of which the second is the number and the third the total.
func numberPair(field string) leafFunc {
	return func(w *walker, data []byte, off int64) error {
		if len(data) < 14 {
			return shortData(off, 14, len(data))
		}
		w.tags.Set(field, int(binary.BigEndian.Uint16(data[10:12])))
		w.tags.Set(field+"_total", int(binary.BigEndian.Uint16(data[12:14])))
		return nil
	}
}

// parseGenre reads a "gnre" item, an ID3v1 genre index offset by one.
func parseGenre(w *walker, data []byte, off int64) error {
	if len(data) != 10 {
		return shortData(off, 10, len(data))
	}
	idx := int(binary.BigEndian.Uint16(data[8:])) - 1
	if idx >= 0 && idx < len(id3.Genres) {
		w.tags.Set("genre", id3.Genres[idx])
	}
	return nil
}

func coverImage(w *walker, data []byte, off int64) error {
	if !w.ctx.LoadImage {
		return nil
	}
	if len(data) < 8 {
		return shortData(off, 8, len(data))
	}
	value, ok, err := w.decodeData(data)
	if ok {
		w.tags.Set("image", value)
	}
	return err
}

// parseCustom reads a "----" freeform item. Its "name" child names the
// field and its "data" child holds the value.
func parseCustom(w *walker, data []byte, off int64) error {
	var (
		name  string
		value []byte
	)
	for pos := 0; pos+headerSize <= len(data); {
		size := int(binary.BigEndian.Uint32(data[pos:])) - headerSize
		atomType := string(data[pos+4 : pos+8])
		pos += headerSize
		if size < 0 {
			break
		}
		end := min(pos+size, len(data))
		switch atomType {
		case "name":
			if end-pos > 4 {
				name = strings.ToLower(text.Replace(data[pos+4 : end]))
			}
		case "data":
			value = data[pos:end]
		}
		pos = end
	}
	if name == "" || len(value) < 8 {
		return nil
	}
	return w.setData(types.ExtraPrefix+name, value, off)
}

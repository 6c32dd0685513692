package audiotag

import "github.com/h2non/filetype"

// Image is an embedded cover image.
type Image struct {
	Data []byte

	// MIMEType and Extension are sniffed from Data, e.g. "image/png" and
	// "png". Unrecognized data yields "application/octet-stream" and "bin".
	MIMEType  string
	Extension string
}

// Image returns the cover image loaded with WithImage, or nil when there is
// none.
func (f *File) Image() *Image {
	if len(f.Tags.Image) == 0 {
		return nil
	}
	img := &Image{Data: f.Tags.Image, MIMEType: "application/octet-stream", Extension: "bin"}
	if kind, err := filetype.Match(f.Tags.Image); err == nil && kind != filetype.Unknown {
		img.MIMEType = kind.MIME.Value
		img.Extension = kind.Extension
	}
	return img
}

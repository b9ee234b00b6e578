package stereo

import (
	"io"

	"github.com/gostereo/disparity/internal/bmpio"
)

// ReadBMP reads the uncompressed BMP subset (8-bit indexed, 24-bit BGR,
// 32-bit BGRA, top-down or bottom-up): a Gray Image when an 8-bit file's
// palette is pure grayscale, an RGB Image otherwise. Compressed files are
// rejected with a format error wrapping bmpio.ErrCompressed.
func ReadBMP(r io.Reader) (*Image, error) {
	h, pix, channels, err := bmpio.Read(r)
	if err != nil {
		return nil, formatErrorf("reading BMP: %w", err)
	}
	format := Gray
	if channels == 3 {
		format = RGB
	}
	return NewImageView(h.Width, h.Height, h.Width, format, pix), nil
}

// WriteBMP serializes im as an 8-bit indexed grayscale BMP (Gray format)
// or a 24-bit BGR BMP (RGB format), bottom-up.
func (im *Image) WriteBMP(w io.Writer) error {
	var err error
	if im.Format == RGB {
		err = bmpio.WriteRGB(w, im.Width, im.Height, im.Row)
	} else {
		err = bmpio.WriteGray(w, im.Width, im.Height, im.Row)
	}
	if err != nil {
		return formatErrorf("writing BMP: %w", err)
	}
	return nil
}

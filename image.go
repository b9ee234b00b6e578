package stereo

import (
	"image"
	"image/color"
	"io"

	"github.com/gostereo/disparity/internal/pbmio"
)

// PixelFormat selects how an Image's interleaved channels are compared
// for matching.
type PixelFormat int

const (
	// Gray is a single-channel luminance image.
	Gray PixelFormat = iota
	// RGB is a 3-channel color image compared component-wise.
	RGB
)

func (f PixelFormat) channels() int {
	if f == RGB {
		return 3
	}
	return 1
}

// Image is a rectangular raster with an exclusively-owned or borrowed
// pixel buffer: width W, height H, and
// a row stride S >= W expressed in pixels (not bytes). Rows within one
// Image always share the same stride and point into a single contiguous
// allocation.
//
// Image satisfies internal/engine.RowSource: Row(y) for y outside
// [0, Height) returns an all-zero row instead of panicking, which is
// what lets the trinocular cost kernel read one disparity's worth of
// rows above the top image's first row without a second bounds check.
type Image struct {
	Width, Height, Stride int
	Format                PixelFormat
	Pix                   []uint8 // len >= Stride*Height*Format.channels()

	// zero is the shared all-zero row handed out for out-of-range Row
	// calls. It is built once at construction: row-band workers read the
	// same Image concurrently, so Row must never write any field.
	zero []uint8
}

// NewImage allocates an owned Image of the given dimensions and format,
// with Stride == Width (the common, tightly-packed case).
func NewImage(width, height int, format PixelFormat) *Image {
	ch := format.channels()
	return &Image{
		Width: width, Height: height, Stride: width, Format: format,
		Pix:  make([]uint8, width*height*ch),
		zero: make([]uint8, width*ch),
	}
}

// NewImageView wraps pix as a non-owning view with the given stride; the
// caller guarantees pix outlives the Image.
func NewImageView(width, height, stride int, format PixelFormat, pix []uint8) *Image {
	return &Image{
		Width: width, Height: height, Stride: stride, Format: format,
		Pix:  pix,
		zero: make([]uint8, width*format.channels()),
	}
}

// FromGray wraps a standard library *image.Gray as a borrowed Gray Image
// view: image.Gray's Pix/Stride already have the single-allocation,
// uniform-stride shape Image requires, so no copy is needed.
func FromGray(g *image.Gray) *Image {
	b := g.Bounds()
	return NewImageView(b.Dx(), b.Dy(), g.Stride, Gray, g.Pix)
}

// FromNRGBA converts a standard library *image.NRGBA into an owned RGB
// Image, dropping the alpha channel (color matching compares R,G,B
// component-wise; alpha never participates).
func FromNRGBA(src *image.NRGBA) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := NewImage(w, h, RGB)
	for y := 0; y < h; y++ {
		srcOff := src.PixOffset(b.Min.X, b.Min.Y+y)
		srcRow := src.Pix[srcOff : srcOff+w*4]
		dstRow := out.Row(y)
		for x := 0; x < w; x++ {
			dstRow[x*3+0] = srcRow[x*4+0]
			dstRow[x*3+1] = srcRow[x*4+1]
			dstRow[x*3+2] = srcRow[x*4+2]
		}
	}
	return out
}

// FromYCbCr converts a standard library *image.YCbCr (the decoded form of
// the YUV444/YUV422/YUYV422/YUV411 chroma-subsampled variants) into an
// owned RGB Image by expanding chroma to full resolution
// through the subsampling ratio already recorded on src.
func FromYCbCr(src *image.YCbCr) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := NewImage(w, h, RGB)
	for y := 0; y < h; y++ {
		dstRow := out.Row(y)
		for x := 0; x < w; x++ {
			yi := src.YOffset(b.Min.X+x, b.Min.Y+y)
			ci := src.COffset(b.Min.X+x, b.Min.Y+y)
			r, g, bl := color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
			dstRow[x*3+0], dstRow[x*3+1], dstRow[x*3+2] = r, g, bl
		}
	}
	return out
}

// ToGray collapses a color Image to luminance-only for callers that want
// luminance-only matching: Y = 0.299R + 0.587G + 0.114B, the ITU-R
// BT.601/PAL coefficients.
func (im *Image) ToGray() *Image {
	if im.Format == Gray {
		return im
	}
	out := NewImage(im.Width, im.Height, Gray)
	for y := 0; y < im.Height; y++ {
		srcRow := im.Row(y)
		dstRow := out.Row(y)
		for x := 0; x < im.Width; x++ {
			r := float32(srcRow[x*3+0])
			g := float32(srcRow[x*3+1])
			b := float32(srcRow[x*3+2])
			dstRow[x] = uint8(0.299*r + 0.587*g + 0.114*b)
		}
	}
	return out
}

// Channels returns 1 for Gray, 3 for RGB.
func (im *Image) Channels() int { return im.Format.channels() }

// Row returns the interleaved pixel bytes for row y, or a zero-filled row
// of the correct length when y is outside [0, Height), satisfying
// internal/engine.RowSource. Row does not mutate the Image, so concurrent
// workers may call it on the same Image freely.
func (im *Image) Row(y int) []uint8 {
	ch := im.Channels()
	if y < 0 || y >= im.Height {
		return im.zero
	}
	off := y * im.Stride * ch
	return im.Pix[off : off+im.Width*ch]
}

// WritePBM serializes im as a PBM P5 (Gray) or P6 (RGB) plane with a
// DataType: Char comment.
func (im *Image) WritePBM(w io.Writer) error {
	magic := "P5"
	dt := pbmio.Char
	if im.Format == RGB {
		magic = "P6"
	}
	h := pbmio.Header{Magic: magic, Width: im.Width, Height: im.Height, MaxVal: 255, DataType: dt}
	if err := pbmio.WriteHeader(w, h); err != nil {
		return formatErrorf("writing image header: %w", err)
	}
	ch := im.Channels()
	for y := 0; y < im.Height; y++ {
		if _, err := w.Write(im.Row(y)[:im.Width*ch]); err != nil {
			return formatErrorf("writing image row %d: %w", y, err)
		}
	}
	return nil
}

// ReadImage reads back an Image written by WritePBM, or any P5/P6 stream
// with an 8-bit-sample DataType: Char, the implicit RGB24 P6 layout, or
// one of the packed YUV variants (YUV444, YUV422, YUYV422, YUV411), which
// are expanded to full-resolution RGB through the BT.601/PAL conversion
// tables. Multi-byte sample planes (Short, Int, Float, Double) are not
// images in this engine's sense; use ReadDisparityMap for Float planes.
func ReadImage(r io.Reader) (*Image, error) {
	h, body, err := pbmio.ReadHeader(r)
	if err != nil {
		return nil, formatErrorf("reading image header: %w", err)
	}
	raw, err := pbmio.ReadPlane(h, body)
	if err != nil {
		return nil, formatErrorf("reading image plane: %w", err)
	}
	switch h.DataType {
	case pbmio.YUV444, pbmio.YUV422, pbmio.YUYV422, pbmio.YUV411:
		rgb, err := pbmio.ExpandYUVToRGB(h, raw)
		if err != nil {
			return nil, formatErrorf("expanding %s plane: %w", h.DataType, err)
		}
		return NewImageView(h.Width, h.Height, h.Width, RGB, rgb), nil
	case pbmio.Char, pbmio.RGB24:
	default:
		return nil, formatErrorf("DataType %s is not an 8-bit image plane", h.DataType)
	}
	format := Gray
	if h.Channels() == 3 {
		format = RGB
	}
	return NewImageView(h.Width, h.Height, h.Width, format, raw), nil
}

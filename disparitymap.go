package stereo

import (
	"io"

	"github.com/gostereo/disparity/internal/pbmio"
)

// DisparityMap is a rectangular buffer of 32-bit float disparities,
// shaped deliberately like the standard library's
// image.Gray (Pix/Stride/dimensions, At/Set methods) since Go has no
// built-in float32 image type to build on directly.
//
// The value at (x, y) is either 0 (no valid disparity) or a subpixel
// disparity d with disparityMin <= d <= disparityMax; the matched point
// in the reference image is (x-d, y).
type DisparityMap struct {
	Width, Height, Stride int
	Pix                   []float32
}

// NewDisparityMap allocates a zero-filled DisparityMap, so every pixel
// starts "invalid" under the sentinel-zero convention.
func NewDisparityMap(width, height int) *DisparityMap {
	return &DisparityMap{Width: width, Height: height, Stride: width, Pix: make([]float32, width*height)}
}

// At returns the disparity at (x, y).
func (m *DisparityMap) At(x, y int) float32 { return m.Pix[y*m.Stride+x] }

// Set writes the disparity at (x, y).
func (m *DisparityMap) Set(x, y int, v float32) { m.Pix[y*m.Stride+x] = v }

// Row returns the float32 slice backing row y, for direct use as
// internal/engine.Output's destination.
func (m *DisparityMap) Row(y int) []float32 {
	off := y * m.Stride
	return m.Pix[off : off+m.Width]
}

// WritePBM serializes the map as a PBM P5 header (DataType: Float) plus a
// raw little-endian float32 plane.
func (m *DisparityMap) WritePBM(w io.Writer) error {
	h := pbmio.Header{
		Magic: "P5", Width: m.Width, Height: m.Height,
		DataType: pbmio.Float, Endian: pbmio.Little,
	}
	if err := pbmio.WriteHeader(w, h); err != nil {
		return formatErrorf("writing disparity map header: %w", err)
	}
	raw := pbmio.EncodeFloat32Plane(m.Pix, pbmio.Little)
	if _, err := w.Write(raw); err != nil {
		return formatErrorf("writing disparity map plane: %w", err)
	}
	return nil
}

// ReadDisparityMap reads back a DisparityMap written by WritePBM (or any
// PBM stream whose header declares DataType: Float).
func ReadDisparityMap(r io.Reader) (*DisparityMap, error) {
	h, body, err := pbmio.ReadHeader(r)
	if err != nil {
		return nil, formatErrorf("reading disparity map header: %w", err)
	}
	raw, err := pbmio.ReadPlane(h, body)
	if err != nil {
		return nil, formatErrorf("reading disparity map plane: %w", err)
	}
	vals, err := pbmio.DecodeFloat32Plane(h, raw)
	if err != nil {
		return nil, formatErrorf("decoding disparity map plane: %w", err)
	}
	return &DisparityMap{Width: h.Width, Height: h.Height, Stride: h.Width, Pix: vals}, nil
}

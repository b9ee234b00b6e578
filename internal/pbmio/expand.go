package pbmio

import (
	"fmt"

	"github.com/gostereo/disparity/internal/yuv"
)

// ExpandYUVToRGB converts a packed YUV plane read by ReadPlane into
// interleaved RGB24 (3 bytes per pixel, top-down rows), expanding
// subsampled chroma to full resolution through the layout each DataType
// declares. The conversion uses the ITU-R BT.601 / PAL tables in
// internal/yuv.
func ExpandYUVToRGB(h Header, raw []byte) ([]byte, error) {
	n, err := h.PlaneBytes()
	if err != nil {
		return nil, err
	}
	if len(raw) < n {
		return nil, fmt.Errorf("pbmio: %s plane too short (%d bytes, want %d): %w", h.DataType, len(raw), n, ErrFormat)
	}

	var expand func(src, dst []uint8, width int)
	var srcRowBytes int
	switch h.DataType {
	case YUV444:
		expand, srcRowBytes = yuv.Expand444, h.Width*3
	case YUV422:
		expand, srcRowBytes = yuv.Expand422, h.Width*2
	case YUYV422:
		expand, srcRowBytes = yuv.ExpandYUYV422, h.Width*2
	case YUV411:
		expand, srcRowBytes = yuv.Expand411, h.Width*3/2
	default:
		return nil, fmt.Errorf("pbmio: ExpandYUVToRGB does not apply to DataType %s: %w", h.DataType, ErrFormat)
	}

	dst := make([]byte, h.Width*h.Height*3)
	for y := 0; y < h.Height; y++ {
		expand(raw[y*srcRowBytes:(y+1)*srcRowBytes], dst[y*h.Width*3:], h.Width)
	}
	return dst, nil
}

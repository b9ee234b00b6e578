package pbmio

import (
	"bufio"
	"fmt"
	"io"
	"math"
)

// PlaneBytes returns the byte length of the binary plane h describes:
// width*height*channels for the 8-bit-sample types, width*height*ElemSize()
// for the packed multi-byte types (Short, Int, Float, Double, which store
// one sample per pixel regardless of the image's logical channel count —
// disparity maps and other intermediate float planes are single-channel by
// construction), and the chroma-subsampled packed sizes for the YUV
// variants: 3 bytes/pixel for YUV444, 2 for YUV422/YUYV422, and 3 bytes
// per 2 pixels for YUV411. The subsampled layouts constrain the width: a
// 422 row pairs pixels and a 411 row groups them by four.
func (h Header) PlaneBytes() (int, error) {
	switch h.DataType {
	case YUV444:
		return h.Width * h.Height * 3, nil
	case YUV422, YUYV422:
		if h.Width%2 != 0 {
			return 0, fmt.Errorf("pbmio: %s width %d must be even: %w", h.DataType, h.Width, ErrFormat)
		}
		return h.Width * h.Height * 2, nil
	case YUV411:
		if h.Width%4 != 0 {
			return 0, fmt.Errorf("pbmio: YUV411 width %d must be a multiple of 4: %w", h.Width, ErrFormat)
		}
		return h.Width * h.Height * 3 / 2, nil
	case Char, RGB24:
		return h.Width * h.Height * h.Channels(), nil
	default:
		return h.Width * h.Height * h.DataType.ElemSize(), nil
	}
}

// ReadPlane reads the raw binary pixel plane following the header: exactly
// PlaneBytes() bytes.
func ReadPlane(h Header, r io.Reader) ([]byte, error) {
	n, err := h.PlaneBytes()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("pbmio: reading plane: %w", err)
	}
	return buf, nil
}

// DecodeFloat32Plane interprets raw as a sequence of width*height float32
// samples in h's byte order, per h.DataType == Float.
func DecodeFloat32Plane(h Header, raw []byte) ([]float32, error) {
	if h.DataType != Float {
		return nil, fmt.Errorf("pbmio: DecodeFloat32Plane requires DataType Float, got %s: %w", h.DataType, ErrFormat)
	}
	n := h.Width * h.Height
	if len(raw) < n*4 {
		return nil, fmt.Errorf("pbmio: float plane too short (%d bytes, want %d): %w", len(raw), n*4, ErrFormat)
	}
	order := h.Endian.byteOrder()
	out := make([]float32, n)
	for i := range out {
		bits := order.Uint32(raw[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}

// EncodeFloat32Plane serializes vals (length width*height) into raw bytes
// using endian's byte order, for DataType Float.
func EncodeFloat32Plane(vals []float32, endian Endian) []byte {
	order := endian.byteOrder()
	out := make([]byte, len(vals)*4)
	for i, v := range vals {
		order.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// WriteHeader writes the PBM magic line, one "# Key: Value" comment line
// per recognized, populated field in h, then the width/height/maxval
// triple, followed by the single separator byte PBM requires before the
// binary plane.
func WriteHeader(w io.Writer, h Header) error {
	bw := bufio.NewWriter(w)

	magic := h.Magic
	if magic == "" {
		magic = "P5"
	}
	fmt.Fprintf(bw, "%s\n", magic)
	fmt.Fprintf(bw, "# DataType: %s\n", h.DataType)
	fmt.Fprintf(bw, "# Endian: %s\n", endianName(h.Endian))
	if h.HasPinHole {
		for i := 0; i < 3; i++ {
			for j := 0; j < 4; j++ {
				fmt.Fprintf(bw, "# PinHoleParameterH%d%d: %g\n", i+1, j+1, h.PinHole[i][j])
			}
		}
	}
	if h.HasD1 {
		fmt.Fprintf(bw, "# DistortionParameterD1: %g\n", h.D1)
	}
	if h.HasD2 {
		fmt.Fprintf(bw, "# DistortionParameterD2: %g\n", h.D2)
	}

	maxVal := h.MaxVal
	if maxVal == 0 {
		maxVal = 255
	}
	fmt.Fprintf(bw, "%d %d\n%d\n", h.Width, h.Height, maxVal)
	return bw.Flush()
}

func endianName(e Endian) string {
	if e == Big {
		return "Big"
	}
	return "Little"
}

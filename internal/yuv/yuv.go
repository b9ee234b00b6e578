// Package yuv converts between RGB and the YUV-family pixel layouts the
// PBM loader recognizes (YUV444, YUV422, YUYV422, YUV411), using the
// ITU-R BT.601 / PAL coefficients:
//
//	Y = 0.299*R + 0.587*G + 0.114*B
//	U = 0.4921*(B - Y)
//	V = 0.877314*(R - Y)
//
// Conversion runs through process-wide lookup tables built on first use.
// The G channel's two chroma terms are kept in 10-bit fixed point so one
// table read per chroma byte and a single shift replace the per-pixel
// float math.
package yuv

import (
	"math"
	"sync"
)

const (
	yr = 0.299 // ITU-R BT.601, PAL
	yb = 0.114
	yg = 1.0 - yr - yb
	ku = 0.4921
	kv = 0.877314

	gShift = 10
)

var (
	tablesOnce sync.Once

	// YUV -> RGB: R = Y + rV[v], B = Y + bU[u],
	// G = Y - ((gU[u] + gV[v]) >> gShift).
	rV [256]int
	bU [256]int
	gU [256]int
	gV [256]int

	// RGB -> YUV chroma, indexed by 255 + (B-Y) resp. 255 + (R-Y).
	uBY [511]uint8
	vRY [511]uint8
)

func initTables() {
	for i := 0; i < 256; i++ {
		d := float64(i - 128)
		rV[i] = int(math.Round(d / kv))
		bU[i] = int(math.Round(d / ku))
		gU[i] = int(math.Round(yb / yg * d / ku * (1 << gShift)))
		gV[i] = int(math.Round(yr / yg * d / kv * (1 << gShift)))
	}
	for i := 0; i < 511; i++ {
		d := float64(i - 255)
		uBY[i] = clip(128 + int(math.Round(ku*d)))
		vRY[i] = clip(128 + int(math.Round(kv*d)))
	}
}

func clip(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// ToRGB converts one (Y, U, V) triple to (R, G, B).
func ToRGB(y, u, v uint8) (r, g, b uint8) {
	tablesOnce.Do(initTables)
	yi := int(y)
	r = clip(yi + rV[v])
	g = clip(yi - ((gU[u] + gV[v]) >> gShift))
	b = clip(yi + bU[u])
	return r, g, b
}

// YFromRGB returns the BT.601 luminance of (R, G, B).
func YFromRGB(r, g, b uint8) uint8 {
	return uint8(math.Round(yr*float64(r) + yg*float64(g) + yb*float64(b)))
}

// FromRGB converts one (R, G, B) triple to (Y, U, V).
func FromRGB(r, g, b uint8) (y, u, v uint8) {
	tablesOnce.Do(initTables)
	y = YFromRGB(r, g, b)
	u = uBY[255+int(b)-int(y)]
	v = vRY[255+int(r)-int(y)]
	return y, u, v
}

// Expand444 converts one packed YUV444 row ([U, Y, V] per pixel) of width
// pixels into interleaved RGB24. src holds width*3 bytes, dst receives
// width*3 bytes.
func Expand444(src, dst []uint8, width int) {
	tablesOnce.Do(initTables)
	for i := 0; i < width; i++ {
		u, y, v := src[i*3], src[i*3+1], src[i*3+2]
		dst[i*3], dst[i*3+1], dst[i*3+2] = ToRGB(y, u, v)
	}
}

// Expand422 converts one packed YUV422 row ([U, Y0], [V, Y1] per pixel
// pair) of width pixels into interleaved RGB24. width must be even; src
// holds width*2 bytes.
func Expand422(src, dst []uint8, width int) {
	tablesOnce.Do(initTables)
	for i := 0; i < width; i += 2 {
		u, y0 := src[i*2], src[i*2+1]
		v, y1 := src[i*2+2], src[i*2+3]
		dst[i*3], dst[i*3+1], dst[i*3+2] = ToRGB(y0, u, v)
		dst[i*3+3], dst[i*3+4], dst[i*3+5] = ToRGB(y1, u, v)
	}
}

// ExpandYUYV422 converts one packed YUYV422 row ([Y0, U], [Y1, V] per
// pixel pair) of width pixels into interleaved RGB24. width must be even;
// src holds width*2 bytes.
func ExpandYUYV422(src, dst []uint8, width int) {
	tablesOnce.Do(initTables)
	for i := 0; i < width; i += 2 {
		y0, u := src[i*2], src[i*2+1]
		y1, v := src[i*2+2], src[i*2+3]
		dst[i*3], dst[i*3+1], dst[i*3+2] = ToRGB(y0, u, v)
		dst[i*3+3], dst[i*3+4], dst[i*3+5] = ToRGB(y1, u, v)
	}
}

// Expand411 converts one packed YUV411 row ([U, Y0, Y1], [V, Y2, Y3] per
// group of four pixels) of width pixels into interleaved RGB24. width must
// be a multiple of 4; src holds width*3/2 bytes.
func Expand411(src, dst []uint8, width int) {
	tablesOnce.Do(initTables)
	for i := 0; i < width; i += 4 {
		off := i * 3 / 2
		u, y0, y1 := src[off], src[off+1], src[off+2]
		v, y2, y3 := src[off+3], src[off+4], src[off+5]
		dst[i*3], dst[i*3+1], dst[i*3+2] = ToRGB(y0, u, v)
		dst[i*3+3], dst[i*3+4], dst[i*3+5] = ToRGB(y1, u, v)
		dst[i*3+6], dst[i*3+7], dst[i*3+8] = ToRGB(y2, u, v)
		dst[i*3+9], dst[i*3+10], dst[i*3+11] = ToRGB(y3, u, v)
	}
}

// Package bmpio reads and writes the uncompressed BMP subset the engine's
// I/O layer accepts: 8-bit indexed, 24-bit BGR, and 32-bit BGRA files,
// with top-down or bottom-up row order signaled by the sign of the
// information header's height field. Both the 40-byte BITMAPINFOHEADER and
// the legacy 12-byte BITMAPCOREHEADER are recognized; compressed files are
// rejected with ErrCompressed. The writer emits bottom-up
// 40-byte-header files only.
package bmpio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrFormat is returned for a malformed or truncated BMP header.
var ErrFormat = errors.New("bmpio: malformed BMP header")

// ErrCompressed is returned when the information header carries a nonzero
// biCompression; only BI_RGB (uncompressed) files are supported.
var ErrCompressed = errors.New("bmpio: compressed BMP not supported")

// Header describes a parsed BMP file.
type Header struct {
	Width, Height int
	BitCount      int // 8, 24, or 32
	BottomUp      bool
	NColors       int // palette entries read (8-bit files only)
}

const (
	fileHeaderSize = 14
	infoHeaderSize = 40
	coreHeaderSize = 12
)

// Read parses a BMP stream and decodes its pixel data. pix holds the
// decoded rows in top-down order with the file's 4-byte row padding
// stripped: 1 interleaved channel (luminance) when an 8-bit file's palette
// is pure grayscale, 3 interleaved RGB channels otherwise (indexed color
// resolved through the palette, BGR/BGRA byte order swapped to RGB, alpha
// dropped).
func Read(r io.Reader) (h Header, pix []uint8, channels int, err error) {
	br := bufio.NewReaderSize(r, 32*1024)

	var magic [2]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return Header{}, nil, 0, fmt.Errorf("bmpio: reading magic: %w", err)
	}
	if magic[0] != 'B' || magic[1] != 'M' {
		return Header{}, nil, 0, fmt.Errorf("bmpio: magic %q is not a BMP file: %w", magic[:], ErrFormat)
	}

	// bfSize, bfReserved1/2, bfOffBits: read and discarded; the palette
	// and pixel data are consumed sequentially rather than via the
	// recorded offset.
	if _, err := io.CopyN(io.Discard, br, fileHeaderSize-2); err != nil {
		return Header{}, nil, 0, fmt.Errorf("bmpio: reading file header: %w", err)
	}

	infoSize, err := read32(br)
	if err != nil {
		return Header{}, nil, 0, fmt.Errorf("bmpio: reading header size: %w", err)
	}

	var paletteEntrySize int
	switch infoSize {
	case coreHeaderSize:
		w, err1 := read16(br)
		ht, err2 := read16(br)
		_, err3 := read16(br) // bcPlanes
		d, err4 := read16(br)
		if e := firstErr(err1, err2, err3, err4); e != nil {
			return Header{}, nil, 0, fmt.Errorf("bmpio: reading core header: %w", e)
		}
		h.Width = int(w)
		h.Height, h.BottomUp = splitHeight(int(int16(ht)))
		h.BitCount = int(d)
		if h.BitCount == 8 {
			h.NColors = 256
		}
		paletteEntrySize = 3 // RGBTRIPLE

	case infoHeaderSize:
		w, err1 := read32(br)
		ht, err2 := read32(br)
		_, err3 := read16(br) // biPlanes
		d, err4 := read16(br)
		comp, err5 := read32(br)
		if e := firstErr(err1, err2, err3, err4, err5); e != nil {
			return Header{}, nil, 0, fmt.Errorf("bmpio: reading info header: %w", e)
		}
		if comp != 0 {
			return Header{}, nil, 0, fmt.Errorf("bmpio: biCompression %d: %w", comp, ErrCompressed)
		}
		// biSizeImage, biXPixPerMeter, biYPixPerMeter.
		if _, err := io.CopyN(io.Discard, br, 12); err != nil {
			return Header{}, nil, 0, fmt.Errorf("bmpio: reading info header: %w", err)
		}
		clrUsed, err6 := read32(br)
		_, err7 := read32(br) // biClrImportant
		if e := firstErr(err6, err7); e != nil {
			return Header{}, nil, 0, fmt.Errorf("bmpio: reading info header: %w", e)
		}
		h.Width = int(int32(w))
		h.Height, h.BottomUp = splitHeight(int(int32(ht)))
		h.BitCount = int(d)
		h.NColors = int(clrUsed)
		if h.NColors == 0 && h.BitCount == 8 {
			h.NColors = 256
		}
		paletteEntrySize = 4 // RGBQUAD

	default:
		return Header{}, nil, 0, fmt.Errorf("bmpio: information header size %d: %w", infoSize, ErrFormat)
	}

	if h.Width <= 0 || h.Height <= 0 {
		return Header{}, nil, 0, fmt.Errorf("bmpio: non-positive dimensions %dx%d: %w", h.Width, h.Height, ErrFormat)
	}
	if h.BitCount != 8 && h.BitCount != 24 && h.BitCount != 32 {
		return Header{}, nil, 0, fmt.Errorf("bmpio: unsupported depth %d: %w", h.BitCount, ErrFormat)
	}

	var palette [][3]uint8
	if h.BitCount == 8 {
		palette = make([][3]uint8, h.NColors)
		entry := make([]byte, paletteEntrySize)
		for i := range palette {
			if _, err := io.ReadFull(br, entry); err != nil {
				return Header{}, nil, 0, fmt.Errorf("bmpio: reading palette entry %d: %w", i, err)
			}
			palette[i] = [3]uint8{entry[2], entry[1], entry[0]} // BGR(X) -> RGB
		}
	}

	rowBytes := (h.Width*h.BitCount/8 + 3) &^ 3
	raw := make([]byte, rowBytes*h.Height)
	if _, err := io.ReadFull(br, raw); err != nil {
		return Header{}, nil, 0, fmt.Errorf("bmpio: reading pixel data: %w", err)
	}

	pix, channels = decode(h, palette, raw, rowBytes)
	return h, pix, channels, nil
}

// decode unpads, reorders to top-down, and converts raw file rows into
// interleaved luminance or RGB.
func decode(h Header, palette [][3]uint8, raw []byte, rowBytes int) ([]uint8, int) {
	gray := h.BitCount == 8 && grayscalePalette(palette)

	channels := 3
	if gray {
		channels = 1
	}
	pix := make([]uint8, h.Width*h.Height*channels)

	for y := 0; y < h.Height; y++ {
		src := y
		if h.BottomUp {
			src = h.Height - 1 - y
		}
		srcRow := raw[src*rowBytes:]
		dstRow := pix[y*h.Width*channels:]

		switch {
		case gray:
			copy(dstRow[:h.Width], srcRow[:h.Width])
		case h.BitCount == 8:
			for x := 0; x < h.Width; x++ {
				c := palette[srcRow[x]]
				dstRow[x*3], dstRow[x*3+1], dstRow[x*3+2] = c[0], c[1], c[2]
			}
		default:
			n := h.BitCount / 8
			for x := 0; x < h.Width; x++ {
				dstRow[x*3] = srcRow[x*n+2]
				dstRow[x*3+1] = srcRow[x*n+1]
				dstRow[x*3+2] = srcRow[x*n]
			}
		}
	}
	return pix, channels
}

// grayscalePalette reports whether every palette entry i is the gray
// (i, i, i), in which case indexed pixels are already luminance values.
func grayscalePalette(palette [][3]uint8) bool {
	if len(palette) == 0 {
		return false
	}
	for i, c := range palette {
		if c[0] != uint8(i) || c[1] != uint8(i) || c[2] != uint8(i) {
			return false
		}
	}
	return true
}

// WriteGray writes an 8-bit indexed BMP with a 256-entry grayscale
// palette, bottom-up (positive biHeight). row(y) must return at least
// width luminance bytes for each y in [0, height), indexed top-down.
func WriteGray(w io.Writer, width, height int, row func(y int) []uint8) error {
	const nColors = 256
	rowBytes := (width + 3) &^ 3

	bw := bufio.NewWriter(w)
	writeFileAndInfoHeader(bw, width, height, 8, nColors, rowBytes)

	var entry [4]byte
	for i := 0; i < nColors; i++ {
		entry[0], entry[1], entry[2], entry[3] = uint8(i), uint8(i), uint8(i), 0
		bw.Write(entry[:])
	}

	pad := make([]byte, rowBytes-width)
	for y := height - 1; y >= 0; y-- {
		bw.Write(row(y)[:width])
		bw.Write(pad)
	}
	return bw.Flush()
}

// WriteRGB writes a 24-bit BGR BMP, bottom-up. row(y) must return at least
// width*3 interleaved RGB bytes for each y in [0, height), indexed
// top-down; channels are swapped to the file's BGR order on the way out.
func WriteRGB(w io.Writer, width, height int, row func(y int) []uint8) error {
	rowBytes := (width*3 + 3) &^ 3

	bw := bufio.NewWriter(w)
	writeFileAndInfoHeader(bw, width, height, 24, 0, rowBytes)

	line := make([]byte, rowBytes)
	for y := height - 1; y >= 0; y-- {
		src := row(y)
		for x := 0; x < width; x++ {
			line[x*3] = src[x*3+2]
			line[x*3+1] = src[x*3+1]
			line[x*3+2] = src[x*3]
		}
		bw.Write(line)
	}
	return bw.Flush()
}

func writeFileAndInfoHeader(bw *bufio.Writer, width, height, bitCount, nColors, rowBytes int) {
	dataSize := rowBytes * height
	offBits := fileHeaderSize + infoHeaderSize + 4*nColors

	bw.WriteString("BM")
	put32(bw, uint32(offBits+dataSize)) // bfSize
	put16(bw, 0)                        // bfReserved1
	put16(bw, 0)                        // bfReserved2
	put32(bw, uint32(offBits))          // bfOffBits

	put32(bw, infoHeaderSize)    // biSize
	put32(bw, uint32(width))     // biWidth
	put32(bw, uint32(height))    // biHeight (positive: bottom-up)
	put16(bw, 1)                 // biPlanes
	put16(bw, uint16(bitCount))  // biBitCount
	put32(bw, 0)                 // biCompression (BI_RGB)
	put32(bw, uint32(dataSize))  // biSizeImage
	put32(bw, 0)                 // biXPixPerMeter
	put32(bw, 0)                 // biYPixPerMeter
	put32(bw, uint32(nColors))   // biClrUsed
	put32(bw, 0)                 // biClrImportant
}

func splitHeight(h int) (height int, bottomUp bool) {
	if h > 0 {
		return h, true
	}
	return -h, false
}

func read16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func read32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func put16(bw *bufio.Writer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	bw.Write(b[:])
}

func put32(bw *bufio.Writer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	bw.Write(b[:])
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

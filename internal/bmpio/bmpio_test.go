package bmpio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestWriteReadGrayRoundTrip(t *testing.T) {
	const w, h = 5, 3
	src := make([]uint8, w*h)
	for i := range src {
		src[i] = uint8(i * 7)
	}

	var buf bytes.Buffer
	err := WriteGray(&buf, w, h, func(y int) []uint8 { return src[y*w : y*w+w] })
	if err != nil {
		t.Fatalf("WriteGray: %v", err)
	}

	hdr, pix, channels, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if hdr.Width != w || hdr.Height != h {
		t.Fatalf("dimensions %dx%d, want %dx%d", hdr.Width, hdr.Height, w, h)
	}
	if hdr.BitCount != 8 || !hdr.BottomUp {
		t.Errorf("BitCount=%d BottomUp=%v, want 8-bit bottom-up", hdr.BitCount, hdr.BottomUp)
	}
	if channels != 1 {
		t.Fatalf("channels = %d, want 1 (grayscale palette)", channels)
	}
	if !bytes.Equal(pix, src) {
		t.Errorf("pixels differ:\n got %v\nwant %v", pix, src)
	}
}

func TestWriteReadRGBRoundTrip(t *testing.T) {
	const w, h = 3, 2
	src := make([]uint8, w*h*3)
	for i := range src {
		src[i] = uint8(i * 11)
	}

	var buf bytes.Buffer
	err := WriteRGB(&buf, w, h, func(y int) []uint8 { return src[y*w*3 : (y+1)*w*3] })
	if err != nil {
		t.Fatalf("WriteRGB: %v", err)
	}

	hdr, pix, channels, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if hdr.Width != w || hdr.Height != h || hdr.BitCount != 24 {
		t.Fatalf("header %+v, want %dx%d 24-bit", hdr, w, h)
	}
	if channels != 3 {
		t.Fatalf("channels = %d, want 3", channels)
	}
	if !bytes.Equal(pix, src) {
		t.Errorf("pixels differ:\n got %v\nwant %v", pix, src)
	}
}

// buildBMP assembles a minimal 40-byte-header file by hand so Read can be
// exercised against layouts the writer never produces (top-down rows,
// 32-bit pixels, color palettes, compression).
func buildBMP(width, height int, bitCount int, compression uint32, palette [][4]byte, data []byte) []byte {
	var buf bytes.Buffer
	p32 := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }
	p16 := func(v uint16) { binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString("BM")
	offBits := 14 + 40 + 4*len(palette)
	p32(uint32(offBits + len(data)))
	p16(0)
	p16(0)
	p32(uint32(offBits))

	p32(40)
	p32(uint32(int32(width)))
	p32(uint32(int32(height)))
	p16(1)
	p16(uint16(bitCount))
	p32(compression)
	p32(uint32(len(data)))
	p32(0)
	p32(0)
	p32(uint32(len(palette)))
	p32(0)

	for _, e := range palette {
		buf.Write(e[:])
	}
	buf.Write(data)
	return buf.Bytes()
}

func TestReadTopDown32Bit(t *testing.T) {
	// 2x2 top-down BGRA: rows are already in output order, alpha dropped.
	data := []byte{
		10, 20, 30, 255, 40, 50, 60, 255, // row 0: B,G,R,A per pixel
		70, 80, 90, 0, 100, 110, 120, 0, // row 1
	}
	raw := buildBMP(2, -2, 32, 0, nil, data)

	hdr, pix, channels, err := Read(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if hdr.BottomUp {
		t.Error("negative height must parse as top-down")
	}
	if channels != 3 {
		t.Fatalf("channels = %d, want 3", channels)
	}
	want := []uint8{30, 20, 10, 60, 50, 40, 90, 80, 70, 120, 110, 100}
	if !bytes.Equal(pix, want) {
		t.Errorf("pixels:\n got %v\nwant %v", pix, want)
	}
}

func TestReadColorPaletteExpands(t *testing.T) {
	// Two-entry palette, neither entry gray: indexed pixels expand to RGB.
	palette := [][4]byte{
		{255, 0, 0, 0}, // entry 0: blue (B,G,R,X)
		{0, 0, 255, 0}, // entry 1: red
	}
	// 2x1 bottom-up, row padded to 4 bytes.
	data := []byte{0, 1, 0, 0}
	raw := buildBMP(2, 1, 8, 0, palette, data)

	_, pix, channels, err := Read(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if channels != 3 {
		t.Fatalf("channels = %d, want 3 for a color palette", channels)
	}
	want := []uint8{0, 0, 255, 255, 0, 0}
	if !bytes.Equal(pix, want) {
		t.Errorf("pixels %v, want %v", pix, want)
	}
}

func TestReadRejectsCompressed(t *testing.T) {
	raw := buildBMP(2, 2, 24, 1 /* BI_RLE8 */, nil, make([]byte, 16))
	_, _, _, err := Read(bytes.NewReader(raw))
	if !errors.Is(err, ErrCompressed) {
		t.Fatalf("err = %v, want ErrCompressed", err)
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	_, _, _, err := Read(bytes.NewReader([]byte("PNG\r\n")))
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
}

func TestReadRejectsUnsupportedDepth(t *testing.T) {
	raw := buildBMP(2, 2, 4, 0, nil, make([]byte, 8))
	_, _, _, err := Read(bytes.NewReader(raw))
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
}

func TestReadTruncatedPixelData(t *testing.T) {
	raw := buildBMP(4, 4, 24, 0, nil, make([]byte, 10))
	_, _, _, err := Read(bytes.NewReader(raw))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestBottomUpRowOrder(t *testing.T) {
	// 1x2 bottom-up gray: file's first row is the image's last.
	var buf bytes.Buffer
	rows := [][]uint8{{11}, {22}}
	err := WriteGray(&buf, 1, 2, func(y int) []uint8 { return rows[y] })
	if err != nil {
		t.Fatalf("WriteGray: %v", err)
	}
	_, pix, _, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if pix[0] != 11 || pix[1] != 22 {
		t.Errorf("rows came back reordered: %v", pix)
	}
}

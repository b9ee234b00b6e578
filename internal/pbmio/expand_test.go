package pbmio

import (
	"bytes"
	"errors"
	"testing"
)

func TestPlaneBytesPerDataType(t *testing.T) {
	cases := []struct {
		dt   DataType
		w, h int
		want int
	}{
		{Char, 6, 4, 24},
		{Short, 6, 4, 48},
		{Float, 6, 4, 96},
		{Double, 6, 4, 192},
		{RGB24, 6, 4, 72},
		{YUV444, 6, 4, 72},
		{YUV422, 6, 4, 48},
		{YUYV422, 6, 4, 48},
		{YUV411, 8, 4, 48},
	}
	for _, c := range cases {
		h := Header{Width: c.w, Height: c.h, DataType: c.dt}
		if c.dt == RGB24 {
			h.Magic = "P6"
		}
		got, err := h.PlaneBytes()
		if err != nil {
			t.Errorf("%s: PlaneBytes: %v", c.dt, err)
			continue
		}
		if got != c.want {
			t.Errorf("%s %dx%d: PlaneBytes = %d, want %d", c.dt, c.w, c.h, got, c.want)
		}
	}
}

func TestPlaneBytesRejectsRaggedSubsampledWidth(t *testing.T) {
	for _, c := range []struct {
		dt DataType
		w  int
	}{
		{YUV422, 5}, {YUYV422, 3}, {YUV411, 6},
	} {
		h := Header{Width: c.w, Height: 2, DataType: c.dt}
		if _, err := h.PlaneBytes(); !errors.Is(err, ErrFormat) {
			t.Errorf("%s width %d: err = %v, want ErrFormat", c.dt, c.w, err)
		}
	}
}

func TestExpandYUVToRGBNeutralChroma(t *testing.T) {
	// YUYV422 2x2 with chroma pinned at 128 expands to gray RGB triples.
	h := Header{Width: 2, Height: 2, DataType: YUYV422}
	raw := []byte{
		10, 128, 20, 128,
		30, 128, 40, 128,
	}
	rgb, err := ExpandYUVToRGB(h, raw)
	if err != nil {
		t.Fatalf("ExpandYUVToRGB: %v", err)
	}
	want := []byte{10, 10, 10, 20, 20, 20, 30, 30, 30, 40, 40, 40}
	if !bytes.Equal(rgb, want) {
		t.Errorf("rgb = %v, want %v", rgb, want)
	}
}

func TestExpandYUVToRGBReadPlaneRoundTrip(t *testing.T) {
	// A full header+plane read of a YUV411 stream: 4x1, six packed bytes.
	var buf bytes.Buffer
	buf.WriteString("P5\n# DataType: YUV411\n4 1\n255\n")
	buf.Write([]byte{128, 50, 60, 128, 70, 80})

	h, body, err := ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.DataType != YUV411 {
		t.Fatalf("DataType = %v, want YUV411", h.DataType)
	}
	raw, err := ReadPlane(h, body)
	if err != nil {
		t.Fatalf("ReadPlane: %v", err)
	}
	rgb, err := ExpandYUVToRGB(h, raw)
	if err != nil {
		t.Fatalf("ExpandYUVToRGB: %v", err)
	}
	want := []byte{50, 50, 50, 60, 60, 60, 70, 70, 70, 80, 80, 80}
	if !bytes.Equal(rgb, want) {
		t.Errorf("rgb = %v, want %v", rgb, want)
	}
}

func TestExpandYUVToRGBRejectsNonYUV(t *testing.T) {
	h := Header{Width: 2, Height: 2, DataType: Char}
	if _, err := ExpandYUVToRGB(h, make([]byte, 4)); !errors.Is(err, ErrFormat) {
		t.Errorf("err = %v, want ErrFormat", err)
	}
}

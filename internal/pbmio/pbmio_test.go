package pbmio

import (
	"bytes"
	"testing"
)

func TestWriteReadHeaderRoundTrip(t *testing.T) {
	h := Header{
		Magic:    "P5",
		Width:    64,
		Height:   32,
		MaxVal:   255,
		DataType: Float,
		Endian:   Big,
	}
	h.PinHole[0][0] = 800.5
	h.PinHole[2][3] = 1
	h.HasPinHole = true
	h.D1, h.HasD1 = 0.01, true
	h.D2, h.HasD2 = -0.002, true

	var buf bytes.Buffer
	if err := WriteHeader(&buf, h); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	got, _, err := ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}

	if got.Width != h.Width || got.Height != h.Height {
		t.Fatalf("dims = %dx%d, want %dx%d", got.Width, got.Height, h.Width, h.Height)
	}
	if got.DataType != Float {
		t.Errorf("DataType = %v, want Float", got.DataType)
	}
	if got.Endian != Big {
		t.Errorf("Endian = %v, want Big", got.Endian)
	}
	if got.PinHole[0][0] != 800.5 || got.PinHole[2][3] != 1 {
		t.Errorf("PinHole = %v, want H11=800.5 H34=1", got.PinHole)
	}
	if got.D1 != 0.01 || got.D2 != -0.002 {
		t.Errorf("D1,D2 = %v,%v, want 0.01,-0.002", got.D1, got.D2)
	}
}

func TestFloat32PlaneRoundTrip(t *testing.T) {
	h := Header{Width: 4, Height: 2, DataType: Float, Endian: Little}
	vals := []float32{1.5, -2.25, 0, 3.125, 7, -0.5, 100.25, 42}

	raw := EncodeFloat32Plane(vals, Little)
	got, err := DecodeFloat32Plane(h, raw)
	if err != nil {
		t.Fatalf("DecodeFloat32Plane: %v", err)
	}
	if len(got) != len(vals) {
		t.Fatalf("len = %d, want %d", len(got), len(vals))
	}
	for i := range vals {
		if got[i] != vals[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], vals[i])
		}
	}
}

func TestConvertLegacyDistortion(t *testing.T) {
	d1, d2 := ConvertLegacyDistortion(2, 3, 10)
	if d1 != 200 {
		t.Errorf("d1 = %v, want 200 (2*10^2)", d1)
	}
	if d2 != 30000 {
		t.Errorf("d2 = %v, want 30000 (3*10^4)", d2)
	}
}

func TestResolveLegacyDistortionFromHeader(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("P5\n# PinHoleParameterH11: 10\n# DistortionParameterA: 2\n# DistortionParameterB: 3\n8 8\n255\n")

	h, _, err := ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	h.ResolveLegacyDistortion()
	if h.D1 != 200 || h.D2 != 30000 {
		t.Errorf("D1,D2 = %v,%v, want 200,30000", h.D1, h.D2)
	}
}

func TestReadPlaneExactBytes(t *testing.T) {
	h := Header{Width: 3, Height: 2, DataType: Char, Magic: "P5"}
	body := []byte{1, 2, 3, 4, 5, 6}
	plane, err := ReadPlane(h, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("ReadPlane: %v", err)
	}
	if !bytes.Equal(plane, body) {
		t.Errorf("plane = %v, want %v", plane, body)
	}
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	_, _, err := ReadHeader(bytes.NewReader([]byte("XX\n8 8\n255\n")))
	if err == nil {
		t.Fatal("expected error for bad magic")
	}
}

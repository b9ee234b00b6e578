package stereo

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gostereo/disparity/internal/bmpio"
)

func TestBMPGrayRoundTrip(t *testing.T) {
	im := NewImage(6, 3, Gray)
	for i := range im.Pix {
		im.Pix[i] = uint8(i * 13)
	}

	var buf bytes.Buffer
	if err := im.WriteBMP(&buf); err != nil {
		t.Fatalf("WriteBMP: %v", err)
	}
	got, err := ReadBMP(&buf)
	if err != nil {
		t.Fatalf("ReadBMP: %v", err)
	}
	if got.Width != im.Width || got.Height != im.Height || got.Format != Gray {
		t.Fatalf("got %dx%d format %v, want %dx%d Gray", got.Width, got.Height, got.Format, im.Width, im.Height)
	}
	if !bytes.Equal(got.Pix, im.Pix) {
		t.Errorf("pixels differ after round trip")
	}
}

func TestBMPColorRoundTrip(t *testing.T) {
	im := NewImage(4, 2, RGB)
	for i := range im.Pix {
		im.Pix[i] = uint8(i * 9)
	}

	var buf bytes.Buffer
	if err := im.WriteBMP(&buf); err != nil {
		t.Fatalf("WriteBMP: %v", err)
	}
	got, err := ReadBMP(&buf)
	if err != nil {
		t.Fatalf("ReadBMP: %v", err)
	}
	if got.Format != RGB {
		t.Fatalf("format = %v, want RGB", got.Format)
	}
	if !bytes.Equal(got.Pix, im.Pix) {
		t.Errorf("pixels differ after round trip")
	}
}

func TestReadBMPCompressedIsFormatError(t *testing.T) {
	// Hand-built header with biCompression = 1; the error must carry both
	// this package's Kind taxonomy and bmpio's sentinel.
	raw := []byte{
		'B', 'M',
		0, 0, 0, 0, 0, 0, 0, 0, 54, 0, 0, 0,
		40, 0, 0, 0,
		2, 0, 0, 0,
		2, 0, 0, 0,
		1, 0,
		24, 0,
		1, 0, 0, 0, // biCompression
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	_, err := ReadBMP(bytes.NewReader(raw))
	if !errors.Is(err, bmpio.ErrCompressed) {
		t.Fatalf("err = %v, want to wrap bmpio.ErrCompressed", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindFormat {
		t.Fatalf("err = %v, want KindFormat", err)
	}
}

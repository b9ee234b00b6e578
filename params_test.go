package stereo

import (
	"strings"
	"testing"
)

func TestDefaultParametersValid(t *testing.T) {
	if err := DefaultParameters().Validate(); err != nil {
		t.Fatalf("DefaultParameters invalid: %v", err)
	}
}

func TestValidateRejectsEvenWindowSize(t *testing.T) {
	p := DefaultParameters()
	p.WindowSize = 10
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for even window_size")
	}
}

func TestValidateRejectsDisparityMinBelowOne(t *testing.T) {
	p := DefaultParameters()
	p.DisparitySearchWidth = p.DisparityMax + 1
	if err := p.Validate(); err == nil {
		t.Fatal("expected error when disparity_search_width exceeds disparity_max")
	}

	p = DefaultParameters()
	p.DisparityMax = 5
	p.DisparitySearchWidth = 5
	if got := p.DisparityMin(); got != 1 {
		t.Fatalf("DisparityMin() = %d, want 1", got)
	}
}

func TestParametersStringParseRoundTrip(t *testing.T) {
	p := DefaultParameters()
	p.DisparitySearchWidth = 32
	p.DisparityMax = 48
	p.DisparityInconsistency = 3
	p.GrainSize = 50

	got, err := ParseParameters(strings.NewReader(p.String()))
	if err != nil {
		t.Fatalf("ParseParameters: %v", err)
	}
	if got.DisparitySearchWidth != 32 || got.DisparityMax != 48 || got.DisparityInconsistency != 3 || got.GrainSize != 50 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	// Fields absent from the legacy quad fall back to DefaultParameters.
	if got.WindowSize != DefaultParameters().WindowSize {
		t.Fatalf("WindowSize = %d, want default %d", got.WindowSize, DefaultParameters().WindowSize)
	}
}

func TestParseParametersRejectsShortInput(t *testing.T) {
	if _, err := ParseParameters(strings.NewReader("64 64")); err == nil {
		t.Fatal("expected error for truncated parameter quad")
	}
}

func TestParseParametersRejectsNonNumeric(t *testing.T) {
	if _, err := ParseParameters(strings.NewReader("64 64 2 nope")); err == nil {
		t.Fatal("expected error for non-numeric field")
	}
}

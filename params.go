package stereo

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gostereo/disparity/internal/engine"
)

// EngineKind selects which of the two aggregation algorithms a Match
// call uses.
type EngineKind int

const (
	// SAD selects the box-filter sum-of-absolute-differences engine.
	SAD EngineKind = iota
	// GuidedFilter selects the edge-preserving guided-filter engine;
	// Epsilon and Blend are read only in this mode.
	GuidedFilter
)

// Parameters is the full engine configuration.
// The zero value is not valid; use DefaultParameters or set every field
// explicitly and call Validate.
type Parameters struct {
	// Engine selects SadEngine or GfEngine.
	Engine EngineKind

	// WindowSize is the square aggregation window's side length; must be
	// odd and >= 3.
	WindowSize int

	// DisparitySearchWidth is the number of disparity hypotheses tested
	// per pixel; must be >= 1.
	DisparitySearchWidth int

	// DisparityMax is the maximum disparity value; must be >=
	// DisparitySearchWidth.
	DisparityMax int

	// DisparityInconsistency is the back-match agreement tolerance, in
	// pixels; must be >= 0.
	DisparityInconsistency int

	// DoHorizontalBackMatch enables the right->left consistency filter.
	DoHorizontalBackMatch bool
	// DoVerticalBackMatch enables the top->bottom consistency filter.
	DoVerticalBackMatch bool

	// GrainSize is the number of rows per parallel band; must be >= 1.
	GrainSize int

	// Epsilon is the guided-filter regularization term (GfEngine only).
	Epsilon float32
	// Blend softly commits the selected disparity toward the
	// second-best hypothesis, in [0,1) (GfEngine only).
	Blend float32

	// Threshold is the per-pixel cost's saturation cap; 0 means
	// "use DefaultParameters' value" when passed through
	// resolveThreshold, so a caller-constructed Parameters with a bare
	// Threshold of 0 still gets sane aggregation rather than every cost
	// collapsing to zero.
	Threshold uint8

	// BackMatchSameStep: true (the default) makes the horizontal- and
	// vertical-back trackers observe the cost at the same presented
	// disparity as the forward tracker, with no one-step lag between
	// them. See DESIGN.md for the rationale.
	BackMatchSameStep bool
}

// DefaultParameters returns the stock configuration: a 64-wide search
// range capped at disparity 64, inconsistency tolerance 2, grain size
// 100, and BackMatchSameStep enabled.
func DefaultParameters() Parameters {
	return Parameters{
		WindowSize:             11,
		DisparitySearchWidth:   64,
		DisparityMax:           64,
		DisparityInconsistency: 2,
		GrainSize:              100,
		Threshold:              20,
		BackMatchSameStep:      true,
	}
}

// DisparityMin returns disparity_min = disparity_max - disparity_search_width + 1.
func (p Parameters) DisparityMin() int {
	return p.DisparityMax - p.DisparitySearchWidth + 1
}

// Validate checks every field's range constraints, returning a KindConfig
// error describing the first violation found. DisparityMin() must be
// >= 1, so the engine's sentinel "0 means invalid" is never confusable
// with a real match.
func (p Parameters) Validate() error {
	if p.WindowSize < 3 || p.WindowSize%2 == 0 {
		return configErrorf("window_size %d must be odd and >= 3", p.WindowSize)
	}
	if p.DisparitySearchWidth < 1 {
		return configErrorf("disparity_search_width %d must be >= 1", p.DisparitySearchWidth)
	}
	if p.DisparityMax < p.DisparitySearchWidth {
		return configErrorf("disparity_max %d must be >= disparity_search_width %d", p.DisparityMax, p.DisparitySearchWidth)
	}
	if p.DisparityInconsistency < 0 {
		return configErrorf("disparity_inconsistency %d must be >= 0", p.DisparityInconsistency)
	}
	if p.GrainSize < 1 {
		return configErrorf("grain_size %d must be >= 1", p.GrainSize)
	}
	if p.Epsilon < 0 {
		return configErrorf("epsilon %g must be >= 0", p.Epsilon)
	}
	if p.Blend < 0 || p.Blend >= 1 {
		return configErrorf("blend %g must be in [0,1)", p.Blend)
	}
	if p.DisparityMin() < 1 {
		return configErrorf("disparity_min %d must be >= 1 (disparity 0 is reserved for \"invalid\")", p.DisparityMin())
	}
	return nil
}

// toEngineParams maps the public Parameters onto internal/engine's
// decoupled configuration struct.
func (p Parameters) toEngineParams() engine.Params {
	ep := engine.Params{
		WindowSize:             p.WindowSize,
		DisparityMin:           p.DisparityMin(),
		DisparityMax:           p.DisparityMax,
		DisparityInconsistency: p.DisparityInconsistency,
		HorizontalBackMatch:    p.DoHorizontalBackMatch,
		VerticalBackMatch:      p.DoVerticalBackMatch,
		BackMatchSameStep:      p.BackMatchSameStep,
		Epsilon:                p.Epsilon,
	}
	if p.Engine == GuidedFilter {
		ep.Blend = p.Blend
	}
	return ep
}

func (p Parameters) resolveThreshold() uint8 {
	if p.Threshold == 0 {
		return DefaultParameters().Threshold
	}
	return p.Threshold
}

// String renders Parameters as the legacy whitespace-separated quad
// "disparitySearchWidth disparityMax disparityInconsistency grainSize"
// used by older parameter files.
func (p Parameters) String() string {
	return fmt.Sprintf("%d %d %d %d", p.DisparitySearchWidth, p.DisparityMax, p.DisparityInconsistency, p.GrainSize)
}

// ParseParameters reads the legacy whitespace-separated quad produced by
// String, starting from DefaultParameters for every other field.
func ParseParameters(r io.Reader) (Parameters, error) {
	p := DefaultParameters()
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	fields := []*int{&p.DisparitySearchWidth, &p.DisparityMax, &p.DisparityInconsistency, &p.GrainSize}
	for _, f := range fields {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return Parameters{}, formatErrorf("parameters: reading input: %w", err)
			}
			return Parameters{}, formatErrorf("parameters: unexpected end of input")
		}
		v, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
		if err != nil {
			return Parameters{}, formatErrorf("parameters: %q: %w", sc.Text(), err)
		}
		*f = v
	}
	return p, nil
}

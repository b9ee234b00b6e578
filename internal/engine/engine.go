// Package engine implements the scanline driver shared by the SAD and
// guided-filter disparity engines: for each output row, D aggregators (one
// per disparity hypothesis, each wrapping a box or guided filter) are fed
// one cost row at a time and persist their incremental window state across
// rows; the aggregated costs for all D hypotheses are then presented to a
// pair of per-row trackers (forward and horizontal-back), and finalize
// applies the back-match consistency checks before writing the disparity.
package engine

import (
	"github.com/gostereo/disparity/internal/pixdiff"
	"github.com/gostereo/disparity/internal/track"
)

// Params collects the subset of the engine's configuration that the
// scanline driver and trackers need. The root package's Parameters type
// maps onto this one; internal packages stay decoupled from the public API.
type Params struct {
	WindowSize             int
	DisparityMin           int
	DisparityMax           int
	DisparityInconsistency int
	HorizontalBackMatch    bool
	VerticalBackMatch      bool
	BackMatchSameStep      bool

	// Epsilon is read by GfAggregator only. Blend is applied by the shared
	// Scaffold whenever it is nonzero; the root package sets it only for
	// the guided-filter engine.
	Epsilon float32
	Blend   float32
}

// SearchWidth is the number of disparity hypotheses tested per pixel.
func (p Params) SearchWidth() int { return p.DisparityMax - p.DisparityMin + 1 }

// RowSource reads one interleaved 8-bit pixel row at a time. Row y must
// return a slice of length width*channels; the slice is read-only and may
// be reused by the caller between calls. For the top image in trinocular
// mode, y can run up to disparity_max rows above any row actually being
// matched; implementations must return an all-zero row rather than panic
// for y outside [0, height) so the vertical neighbor cost saturates
// naturally instead of needing a second bounds check in the engine.
type RowSource interface {
	Row(y int) []uint8
}

// Output writes one float32 disparity row at a time. The returned slice
// from Row is the destination for that row's values, pre-sized to the
// engine's output width and reused across calls at the caller's discretion.
type Output interface {
	Row(y int) []float32
}

// Aggregator accumulates a per-disparity scanline cost window and reports
// the aggregated cost row once window_size rows have been pushed. One
// Aggregator instance exists per disparity hypothesis and persists across
// output rows: column sums are reused across rows, never across
// disparities.
type Aggregator interface {
	// PushRow feeds one row of raw per-pixel costs (length = image width)
	// and, for GfEngine, the matching guide row (reference-image luminance,
	// same length; ignored by SadAggregator). ready is true once the
	// vertical window is full; agg then holds outWidth aggregated values.
	PushRow(cost, guide []float32) (agg []float32, ready bool)
	Reset()
}

// Config bundles the fixed geometry an Aggregator/Scaffold is built for.
type Config struct {
	Params    Params
	Width     int // input row width in pixels
	Channels  int // channels per pixel (1 for gray, 3 for RGB)
	Threshold uint8
}

// OutWidth returns the aggregated row width (Width - WindowSize + 1).
func (c Config) OutWidth() int {
	w := c.Width - c.Params.WindowSize + 1
	if w < 0 {
		return 0
	}
	return w
}

// ColOffset is the horizontal shift between a raw image column and its
// corresponding aggregated output column: windowSize/2.
func (c Config) ColOffset() int { return c.Params.WindowSize / 2 }

// AggregatorFactory builds the D aggregators an engine needs, one per
// disparity hypothesis, so SadEngine and GfEngine can share Scaffold.
type AggregatorFactory func(cfg Config) Aggregator

// Scaffold runs the per-row, per-disparity driver shared by the SAD and
// guided-filter engines for one row band. It owns D persistent aggregators
// (left/right cost) plus the bounded-depth history needed for vertical
// back-match, and is safe to reuse across bands run on the same goroutine
// (via Reset) but not to share across goroutines.
type Scaffold struct {
	cfg Config

	leftAggs []Aggregator // one per disparity step, persists across rows

	leftTracker  *track.Tracker
	rightTracker *track.Tracker

	costRow   []float32
	guideRow  []float32
	zeroPixel []uint8 // reused stand-in for out-of-range neighbor pixels

	// topTrackers is a ring of per-row trackers backing the vertical
	// consistency check, symmetric to rightTracker's column extension:
	// where the horizontal-back tracker is keyed by the column a disparity
	// points into (c+d), the tracker in slot r%len is keyed by the row it
	// points into (r = v-d) and is fed the same aggregated costs the
	// forward tracker sees. A target row r receives updates while rows
	// r+disparityMin .. r+disparityMax are processed, so at most
	// SearchWidth rows are live at once and the ring stays bounded
	// independent of image height. The ring is band-local: target rows
	// whose contributing rows fall before the band's read range see a
	// partial cost stream and degrade toward "pass" rather than reaching
	// into another worker's band. See DESIGN.md.
	topTrackers []*track.Tracker
}

// NewScaffold builds a Scaffold for the given configuration using factory
// to construct each of the D per-disparity aggregators.
func NewScaffold(cfg Config, factory AggregatorFactory) *Scaffold {
	d := cfg.Params.SearchWidth()
	outW := cfg.OutWidth()

	leftAggs := make([]Aggregator, d)
	for i := range leftAggs {
		leftAggs[i] = factory(cfg)
	}

	rightTrackerLen := outW + d

	tops := make([]*track.Tracker, d)
	for i := range tops {
		tops[i] = track.New(outW)
	}

	return &Scaffold{
		cfg:          cfg,
		leftAggs:     leftAggs,
		leftTracker:  track.New(outW),
		rightTracker: track.New(rightTrackerLen),
		costRow:      make([]float32, cfg.Width),
		guideRow:     make([]float32, cfg.Width),
		zeroPixel:    make([]uint8, cfg.Channels),
		topTrackers:  tops,
	}
}

// Reset clears all persistent state so the Scaffold can be reused for a new
// band without reallocating its buffers.
func (s *Scaffold) Reset() {
	for _, a := range s.leftAggs {
		a.Reset()
	}
	for _, t := range s.topTrackers {
		t.Reset()
	}
}

// topTracker returns the ring slot holding the vertical-back tracker for
// target row r (r may be negative near an image or band start).
func (s *Scaffold) topTracker(r int) *track.Tracker {
	i := r % len(s.topTrackers)
	if i < 0 {
		i += len(s.topTrackers)
	}
	return s.topTrackers[i]
}

// RunRow processes one output row: left is the reference-image row source,
// right is the match-image row source (shifted per disparity), top is nil
// in binocular mode or the second match-image row source (shifted
// vertically) in trinocular mode. y is the row index into the row sources;
// outRow receives OutWidth() disparities, 0 where invalid.
//
// RunRow must be called for consecutive rows in increasing order; it is the
// caller's (Scaffold of internal/band) responsibility to feed exactly
// WindowSize-1 rows of overlap before the first output row of a band.
func (s *Scaffold) RunRow(left, right, top RowSource, y int, outRow []float32) {
	p := s.cfg.Params
	ch := s.cfg.Channels
	outW := s.cfg.OutWidth()

	leftRow := left.Row(y)
	s.leftTracker.Reset()
	s.rightTracker.Reset()
	if p.VerticalBackMatch {
		// Row y-disparityMin becomes the newest live target row on this
		// pass; its ring slot last served row y-disparityMax-1, whose
		// final update and consultation both happened at row y-1.
		s.topTracker(y - p.DisparityMin).Reset()
	}

	rightRow := right.Row(y)
	s.computeGuideRow(leftRow, ch)

	// When BackMatchSameStep is false, the back-match trackers observe
	// each disparity's cost one step behind the left tracker; pendingAgg
	// holds the one update not yet applied to them.
	var pendingAgg []float32
	pendingDIdx := -1

	lastReady := false
	for dIdx := 0; dIdx < p.SearchWidth(); dIdx++ {
		actualD := p.DisparityMax - dIdx

		s.computeCostRow(leftRow, rightRow, top, y, actualD, ch)

		agg, ready := s.leftAggs[dIdx].PushRow(s.costRow, s.guideRow)
		if !ready {
			continue
		}
		lastReady = true
		for c := 0; c < outW; c++ {
			s.leftTracker.Update(c, dIdx, agg[c])
		}

		if p.BackMatchSameStep {
			s.updateBackTrackers(y, dIdx, agg)
			continue
		}
		if pendingDIdx >= 0 {
			s.updateBackTrackers(y, pendingDIdx, pendingAgg)
		}
		pendingAgg, pendingDIdx = agg, dIdx
	}
	if !p.BackMatchSameStep && pendingDIdx >= 0 {
		s.updateBackTrackers(y, pendingDIdx, pendingAgg)
	}

	if !lastReady {
		for i := range outRow {
			outRow[i] = 0
		}
		return
	}

	for c := 0; c < outW; c++ {
		dIdx, delta := s.leftTracker.Select(c)

		valid := true
		if p.HorizontalBackMatch {
			rc := c + dIdx
			if rc >= s.rightTracker.Len() {
				valid = false
			} else {
				diff := dIdx - s.rightTracker.DBest(rc)
				if diff < 0 {
					diff = -diff
				}
				valid = diff <= p.DisparityInconsistency
			}
		}

		if valid && p.VerticalBackMatch {
			// The tracker for row y-actualD has, by now, observed the
			// costs presented at step dIdx and after (steps before dIdx
			// reach it only once later rows are processed), including
			// this row's own update at dIdx, so its column is always
			// initialized here.
			actualD := p.DisparityMax - dIdx
			diff := dIdx - s.topTracker(y-actualD).DBest(c)
			if diff < 0 {
				diff = -diff
			}
			if diff > p.DisparityInconsistency {
				valid = false
			}
		}

		if !valid {
			outRow[c] = 0
			continue
		}

		// The blend parameter softly commits toward the second-best
		// hypothesis; the back-match checks above always use
		// the unblended integer disparity, since blending is a final
		// cosmetic adjustment to the selected output, not a re-derivation
		// of which match was chosen.
		dOut := float32(dIdx)
		if p.Blend > 0 {
			secondD, _ := s.leftTracker.SecondBest(c)
			dOut = (1-p.Blend)*float32(dIdx) + p.Blend*float32(secondD)
		}
		outRow[c] = float32(p.DisparityMax) - dOut - delta
	}
}

// updateBackTrackers feeds one disparity step's aggregated costs to both
// consistency trackers: the horizontal-back tracker keyed by column c+d,
// and the vertical-back tracker for row y-d keyed by column c. Both see
// the same R the forward tracker saw.
func (s *Scaffold) updateBackTrackers(y, dIdx int, agg []float32) {
	p := s.cfg.Params
	if p.HorizontalBackMatch {
		for c, R := range agg {
			rc := c + dIdx
			if rc < s.rightTracker.Len() {
				s.rightTracker.Update(rc, dIdx, R)
			}
		}
	}
	if p.VerticalBackMatch {
		t := s.topTracker(y - (p.DisparityMax - dIdx))
		for c, R := range agg {
			t.Update(c, dIdx, R)
		}
	}
}

// computeCostRow fills s.costRow[:width] with the per-pixel matching cost
// at disparity actualD for row y: binocular PixelDiff.Cost against the
// right image, or Cost2 combining the right and (vertically shifted) top
// image in trinocular mode. Columns whose shifted neighbor falls outside
// the image are compared against a zero pixel, the cheapest way to produce
// a large (but still saturation-capped) cost without branching the tracker
// logic on a ragged valid-column span.
func (s *Scaffold) computeCostRow(leftRow []uint8, rightRow []uint8, top RowSource, y, actualD, ch int) {
	w := s.cfg.Width
	thresh := s.cfg.Threshold
	var topRow []uint8
	if top != nil {
		topRow = top.Row(y - actualD)
	}
	for u := 0; u < w; u++ {
		rx := u - actualD
		leftPix := leftRow[u*ch : u*ch+ch]

		rightPix := s.zeroPixel
		if rx >= 0 && rx < w {
			rightPix = rightRow[rx*ch : rx*ch+ch]
		}

		if top == nil {
			s.costRow[u] = float32(pixdiff.Cost(leftPix, rightPix, thresh))
			continue
		}

		topPix := s.zeroPixel
		if rx >= 0 && rx < w {
			topPix = topRow[u*ch : u*ch+ch]
		}
		s.costRow[u] = float32(pixdiff.Cost2(leftPix, rightPix, topPix, thresh))
	}
}

// computeGuideRow fills s.guideRow[:width] with the reference image's
// luminance (first channel, or the mean of channels for color guides) used
// by GfEngine. SadEngine's aggregator ignores this slice.
func (s *Scaffold) computeGuideRow(leftRow []uint8, ch int) {
	w := s.cfg.Width
	for u := 0; u < w; u++ {
		if ch == 1 {
			s.guideRow[u] = float32(leftRow[u])
			continue
		}
		var sum int
		for c := 0; c < ch; c++ {
			sum += int(leftRow[u*ch+c])
		}
		s.guideRow[u] = float32(sum) / float32(ch)
	}
}

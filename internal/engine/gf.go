package engine

import (
	"github.com/gostereo/disparity/internal/boxfilter"
	"github.com/gostereo/disparity/internal/guided"
)

// GfAggregator aggregates a per-disparity cost plane with the guided
// filter: four separable box filters accumulate the
// window sums of G, G*G, C, and G*C, then guided.Solve/Apply evaluate the
// per-window linear fit at the window's center guide pixel.
type GfAggregator struct {
	w   int
	eps float32

	sepG, sepGG, sepC, sepGC *boxfilter.Separable2D
	intG, intGG, intC, intGC []int32

	// guideRing mirrors Separable2D's own ring-buffer bookkeeping (same
	// next/filled pattern) to retain the raw guide rows needed to evaluate
	// the fit at the window's center pixel, which the box-summed channels
	// alone cannot reconstruct.
	guideRing  [][]float32
	ringNext   int
	ringFilled int

	out []float32
}

// NewGfAggregator constructs a GfAggregator for the given geometry,
// reading epsilon from cfg.Params.Epsilon. It satisfies AggregatorFactory.
func NewGfAggregator(cfg Config) Aggregator {
	w := cfg.Params.WindowSize
	outW := boxfilter.OutLength(cfg.Width, w)

	ring := make([][]float32, w)
	for i := range ring {
		ring[i] = make([]float32, cfg.Width)
	}

	return &GfAggregator{
		w:     w,
		eps:   cfg.Params.Epsilon,
		sepG:  boxfilter.NewSeparable2D(cfg.Width, w),
		sepGG: boxfilter.NewSeparable2D(cfg.Width, w),
		sepC:  boxfilter.NewSeparable2D(cfg.Width, w),
		sepGC: boxfilter.NewSeparable2D(cfg.Width, w),
		intG:  make([]int32, cfg.Width),
		intGG: make([]int32, cfg.Width),
		intC:  make([]int32, cfg.Width),
		intGC: make([]int32, cfg.Width),

		guideRing: ring,
		out:       make([]float32, outW),
	}
}

func (a *GfAggregator) Reset() {
	a.sepG.Reset()
	a.sepGG.Reset()
	a.sepC.Reset()
	a.sepGC.Reset()
	a.ringNext = 0
	a.ringFilled = 0
}

func (a *GfAggregator) PushRow(cost, guide []float32) ([]float32, bool) {
	for i, g := range guide {
		gi := int32(g)
		ci := int32(cost[i])
		a.intG[i] = gi
		a.intGG[i] = gi * gi
		a.intC[i] = ci
		a.intGC[i] = gi * ci
	}

	copy(a.guideRing[a.ringNext], guide)
	a.ringNext = (a.ringNext + 1) % a.w
	if a.ringFilled < a.w {
		a.ringFilled++
	}

	sumG, ready := a.sepG.PushRow(a.intG)
	sumGG, _ := a.sepGG.PushRow(a.intGG)
	sumC, _ := a.sepC.PushRow(a.intC)
	sumGC, _ := a.sepGC.PushRow(a.intGC)
	if !ready {
		return nil, false
	}

	centerRowIdx := (a.ringNext + (a.w-1)/2) % a.w
	centerRow := a.guideRing[centerRowIdx]
	centerColOffset := (a.w - 1) / 2
	area := float32(a.w * a.w)

	for i := range a.out {
		c := guided.Solve(float32(sumG[i]), float32(sumC[i]), float32(sumGG[i]), float32(sumGC[i]), area, a.eps)
		a.out[i] = c.Apply(centerRow[i+centerColOffset])
	}
	return a.out, true
}

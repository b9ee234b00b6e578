package engine

import "github.com/gostereo/disparity/internal/boxfilter"

// SadAggregator aggregates a per-disparity cost plane with a separable 2-D
// box filter. It ignores the guide row entirely.
type SadAggregator struct {
	sep     *boxfilter.Separable2D
	intRow  []int32
	outCost []float32
}

// NewSadAggregator constructs a SadAggregator for the given geometry. It
// satisfies AggregatorFactory.
func NewSadAggregator(cfg Config) Aggregator {
	sep := boxfilter.NewSeparable2D(cfg.Width, cfg.Params.WindowSize)
	return &SadAggregator{
		sep:     sep,
		intRow:  make([]int32, cfg.Width),
		outCost: make([]float32, sep.OutWidth()),
	}
}

func (a *SadAggregator) Reset() { a.sep.Reset() }

func (a *SadAggregator) PushRow(cost, _ []float32) ([]float32, bool) {
	for i, c := range cost {
		a.intRow[i] = int32(c)
	}
	sums, ready := a.sep.PushRow(a.intRow)
	if !ready {
		return nil, false
	}
	for i, s := range sums {
		a.outCost[i] = float32(s)
	}
	return a.outCost, true
}

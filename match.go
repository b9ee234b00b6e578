package stereo

import (
	"log/slog"

	"github.com/gostereo/disparity/internal/band"
	"github.com/gostereo/disparity/internal/engine"
	"github.com/gostereo/disparity/internal/scratch"
)

// Stats accumulates row-band scheduler counters across one Match or
// MatchTrinocular call, for callers that want cheap observability
// without wiring a profiler.
type Stats struct {
	Bands         int32
	RowsProcessed int64
}

// Option configures optional, ambient behavior of Match/MatchTrinocular:
// logging and statistics. Without WithLogger, internal/band and
// internal/scratch fall back to slog.Default(); all of their diagnostics
// are emitted at debug level.
type Option func(*options)

type options struct {
	logger *slog.Logger
	stats  *Stats
}

// WithLogger routes band-dispatch and pool-growth diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStats fills stats with band/row counters once the call returns.
func WithStats(stats *Stats) Option {
	return func(o *options) { o.stats = stats }
}

func resolveOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Match computes a binocular disparity map: left is the reference image,
// right is the matching image (same dimensions), both already rectified
// so corresponding points lie on the same scanline.
func Match(left, right *Image, params Parameters, opts ...Option) (*DisparityMap, error) {
	return matchImpl(left, right, nil, params, opts)
}

// MatchTrinocular computes a disparity map using a third (top) image for
// vertical epipolar matching in addition to the horizontal right image,
// combining both neighbor costs in a single pass.
func MatchTrinocular(left, right, top *Image, params Parameters, opts ...Option) (*DisparityMap, error) {
	return matchImpl(left, right, top, params, opts)
}

func matchImpl(left, right, top *Image, params Parameters, optFns []Option) (*DisparityMap, error) {
	if left == nil || right == nil {
		violatef("left and right images must be non-nil")
	}
	if left.Width != right.Width || left.Height != right.Height {
		violatef("left %dx%d and right %dx%d dimensions must match", left.Width, left.Height, right.Width, right.Height)
	}
	if top != nil && (top.Width != left.Width || top.Height != left.Height) {
		violatef("top %dx%d dimensions must match left %dx%d", top.Width, top.Height, left.Width, left.Height)
	}
	if left.Channels() != right.Channels() || (top != nil && top.Channels() != left.Channels()) {
		violatef("left, right, and top images must share the same channel count")
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	if left.Height < params.WindowSize {
		return nil, configErrorf("image height %d is smaller than window_size %d", left.Height, params.WindowSize)
	}

	o := resolveOptions(optFns)

	cfg := engine.Config{
		Params:    params.toEngineParams(),
		Width:     left.Width,
		Channels:  left.Channels(),
		Threshold: params.resolveThreshold(),
	}

	var topSource engine.RowSource
	if top != nil {
		topSource = top
	}

	out := NewDisparityMap(left.Width, left.Height)
	colOffset := cfg.ColOffset()
	outW := cfg.OutWidth()
	dst := &dispOutput{dm: out, colOffset: colOffset, outW: outW}

	factory := engineFactory(params)
	pool := scratch.NewPool(factory, o.logger)
	plan := band.Plan(left.Height, params.GrainSize, params.WindowSize)

	var bandStats *band.Stats
	if o.stats != nil {
		bandStats = &band.Stats{}
	}

	band.Run(cfg, plan, pool, left, right, topSource, dst, o.logger, bandStats)

	if o.stats != nil {
		o.stats.Bands = bandStats.Bands.Load()
		o.stats.RowsProcessed = bandStats.RowsProcessed.Load()
	}

	return out, nil
}

// engineFactory selects SadAggregator or GfAggregator per params.Engine.
func engineFactory(params Parameters) engine.AggregatorFactory {
	if params.Engine == GuidedFilter {
		return engine.NewGfAggregator
	}
	return engine.NewSadAggregator
}

// dispOutput adapts a DisparityMap's full-width rows to
// internal/engine.Output's narrower aggregated-row contract: each write
// lands at [colOffset, colOffset+outW) within the destination row, the
// margins left at their zero-initialized value.
type dispOutput struct {
	dm        *DisparityMap
	colOffset int
	outW      int
}

func (o *dispOutput) Row(y int) []float32 {
	full := o.dm.Row(y)
	return full[o.colOffset : o.colOffset+o.outW]
}

package engine

import "testing"

// rowGrid is a RowSource backed by a dense 2-D grid of single-channel
// pixels, returning an all-zero row for out-of-range y per the RowSource
// contract.
type rowGrid struct {
	rows  [][]uint8
	width int
}

func (g rowGrid) Row(y int) []uint8 {
	if y < 0 || y >= len(g.rows) {
		return make([]uint8, g.width)
	}
	return g.rows[y]
}

func newGrid(height, width int, f func(v, u int) uint8) rowGrid {
	rows := make([][]uint8, height)
	for v := range rows {
		row := make([]uint8, width)
		for u := range row {
			row[u] = f(v, u)
		}
		rows[v] = row
	}
	return rowGrid{rows: rows, width: width}
}

func runFullImage(t *testing.T, cfg Config, factory AggregatorFactory, left, right, top RowSource, height int) [][]float32 {
	t.Helper()
	s := NewScaffold(cfg, factory)
	outW := cfg.OutWidth()
	result := make([][]float32, height)
	for y := 0; y < height; y++ {
		row := make([]float32, outW)
		s.RunRow(left, right, top, y, row)
		result[y] = row
	}
	return result
}

func TestSadEngineFlatDisparity(t *testing.T) {
	const height, width = 64, 80
	const shift = 5

	// Textured so the cost surface has a unique minimum at d=shift instead
	// of a flat tie.
	left := newGrid(height, width, func(v, u int) uint8 {
		return uint8((u*7 + v*13) % 256)
	})
	right := newGrid(height, width, func(v, u int) uint8 {
		uu := u + shift
		if uu >= width {
			uu = width - 1
		}
		return uint8((uu*7 + v*13) % 256)
	})

	cfg := Config{
		Params: Params{
			WindowSize:          7,
			DisparityMin:        1,
			DisparityMax:        10,
			HorizontalBackMatch: false,
			VerticalBackMatch:   false,
			BackMatchSameStep:   true,
		},
		Width:     width,
		Channels:  1,
		Threshold: 255,
	}

	out := runFullImage(t, cfg, NewSadAggregator, left, right, nil, height)

	// The integer selection must land on shift everywhere; the parabolic
	// refinement can move the reported value by up to half a pixel where
	// the wrapping texture makes the neighbor costs asymmetric.
	margin := cfg.Params.WindowSize - 1
	outW := cfg.OutWidth()
	for y := margin; y < height; y++ {
		for c := 10; c < outW-10; c++ {
			got := out[y][c]
			if got < shift-0.5 || got > shift+0.5 {
				t.Fatalf("row %d col %d: disparity = %v, want %v within subpixel range", y, c, got, float32(shift))
			}
		}
	}
}

func TestSadEngineRowsBeforeWindowAreZero(t *testing.T) {
	const height, width = 20, 40
	left := newGrid(height, width, func(v, u int) uint8 { return uint8(u) })
	right := newGrid(height, width, func(v, u int) uint8 { return uint8(u) })

	cfg := Config{
		Params: Params{
			WindowSize:   7,
			DisparityMin: 1,
			DisparityMax: 3,
		},
		Width:     width,
		Channels:  1,
		Threshold: 255,
	}

	out := runFullImage(t, cfg, NewSadAggregator, left, right, nil, height)
	for y := 0; y < cfg.Params.WindowSize-1; y++ {
		for c, v := range out[y] {
			if v != 0 {
				t.Fatalf("row %d col %d: disparity = %v, want 0 before the window fills", y, c, v)
			}
		}
	}
}

func TestSadEngineHorizontalBackMatchRejectsOcclusion(t *testing.T) {
	const height, width = 40, 60
	const shift = 4
	const stripeCol = 30

	left := newGrid(height, width, func(v, u int) uint8 {
		return uint8((u*11 + v*17) % 256)
	})
	right := newGrid(height, width, func(v, u int) uint8 {
		if u == stripeCol {
			// Occluded in right: no corresponding left column agrees.
			return 255 - uint8((u*11+v*17)%256)
		}
		uu := u + shift
		if uu >= width {
			uu = width - 1
		}
		return uint8((uu*11 + v*17) % 256)
	})

	cfg := Config{
		Params: Params{
			WindowSize:             7,
			DisparityMin:           1,
			DisparityMax:           8,
			HorizontalBackMatch:    true,
			DisparityInconsistency: 0,
			BackMatchSameStep:      true,
		},
		Width:     width,
		Channels:  1,
		Threshold: 255,
	}

	out := runFullImage(t, cfg, NewSadAggregator, left, right, nil, height)

	margin := cfg.Params.WindowSize - 1
	offset := cfg.ColOffset()
	outW := cfg.OutWidth()
	for y := margin; y < height; y++ {
		for c := 10; c < outW-10; c++ {
			u := c + offset
			got := out[y][c]
			if u >= stripeCol+shift-offset && u <= stripeCol+shift+offset {
				// The window of left column u meets right column u-shift's
				// window around the occluded stripe: either outcome is
				// acceptable.
				continue
			}
			if got < shift-0.5 || got > shift+0.5 {
				t.Fatalf("row %d col %d (u=%d): disparity = %v, want %v within subpixel range", y, c, u, got, float32(shift))
			}
		}
	}
}

func TestSadEngineVerticalBackMatchRejectsInconsistentTop(t *testing.T) {
	const height, width = 50, 60
	const shift = 5

	// The top image agrees with a vertical disparity of shift everywhere
	// except rows [20, 33), which are consistent with disparity 2 instead.
	// The right image is left untouched and horizontal back-match stays
	// off, so only the vertical check can reject anything. Inside the
	// stripe the forward tracker still settles on shift (the tied costs
	// for 2 and shift arrive in decreasing-disparity order, so shift wins
	// the tie), but the top-row tracker sees the same tie in increasing
	// row order, locks onto 2 first, and the finalize check catches the
	// disagreement.
	left := newGrid(height, width, func(v, u int) uint8 {
		return uint8((u*7 + v*13) % 256)
	})
	right := newGrid(height, width, func(v, u int) uint8 {
		return uint8((u*7 + shift*7 + v*13) % 256)
	})
	top := newGrid(height, width, func(r, u int) uint8 {
		src := r + shift
		if r >= 20 && r < 33 {
			src = r + 2
		}
		return uint8((u*7 + src*13) % 256)
	})

	cfg := Config{
		Params: Params{
			WindowSize:             7,
			DisparityMin:           1,
			DisparityMax:           10,
			VerticalBackMatch:      true,
			DisparityInconsistency: 0,
			BackMatchSameStep:      true,
		},
		Width:     width,
		Channels:  1,
		Threshold: 20,
	}

	out := runFullImage(t, cfg, NewSadAggregator, left, right, top, height)

	outW := cfg.OutWidth()
	// Rows whose vertical reference window lies fully inside the
	// inconsistent stripe must be rejected.
	for _, y := range []int{32, 33, 34} {
		for c := 10; c < outW-10; c++ {
			if got := out[y][c]; got != 0 {
				t.Fatalf("row %d col %d: disparity = %v, want 0 (vertical reject)", y, c, got)
			}
		}
	}
	// Rows whose vertical references are untouched keep the true disparity.
	for _, y := range []int{15, 45} {
		for c := 10; c < outW-10; c++ {
			got := out[y][c]
			if got == 0 || got < shift-0.5 || got > shift+0.5 {
				t.Fatalf("row %d col %d: disparity = %v, want %v within subpixel range", y, c, got, float32(shift))
			}
		}
	}
}

func TestGfEngineConstantGuideMatchesSadOnConstantCost(t *testing.T) {
	// S6: a constant guide and a constant cost plane should make GfEngine
	// select the same disparity as SadEngine, since GuidedFilter degenerates
	// to a box-mean filter for a constant guide (internal/guided's defining
	// property), and a box-mean of a constant plane is that same constant
	// everywhere, so the cost ranking across disparities is preserved.
	const height, width = 32, 48
	const shift = 3

	// The reference image serves as both the matching input and the guide,
	// so holding it constant makes the guide constant while the cost
	// surface still varies (through the textured right image), which is
	// what exercises guided.Solve's degenerate-to-mean path for real.
	left := newGrid(height, width, func(v, u int) uint8 { return 128 })
	right := newGrid(height, width, func(v, u int) uint8 {
		uu := u + shift
		if uu >= width {
			uu = width - 1
		}
		return uint8((uu*5 + v*3) % 256)
	})

	sadCfg := Config{
		Params: Params{
			WindowSize:   5,
			DisparityMin: 1,
			DisparityMax: 6,
		},
		Width:     width,
		Channels:  1,
		Threshold: 255,
	}
	sadOut := runFullImage(t, sadCfg, NewSadAggregator, left, right, nil, height)

	gfCfg := sadCfg
	gfCfg.Params.Epsilon = 0.01
	gfOut := runFullImage(t, gfCfg, NewGfAggregator, left, right, nil, height)

	margin := sadCfg.Params.WindowSize - 1
	outW := sadCfg.OutWidth()
	for y := margin; y < height; y++ {
		for c := 5; c < outW-5; c++ {
			diff := sadOut[y][c] - gfOut[y][c]
			if diff < 0 {
				diff = -diff
			}
			if diff > 1e-3 {
				t.Fatalf("row %d col %d: sad=%v gf=%v, want equal for constant guide", y, c, sadOut[y][c], gfOut[y][c])
			}
		}
	}
}

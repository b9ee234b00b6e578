// Package pixdiff computes a saturation-capped absolute-difference matching
// cost between pixels. It is the innermost per-pixel cost used by both the
// SAD and guided-filter disparity engines.
package pixdiff

// absTable holds |v| for v in [-255, 255], precomputed once at init.
// Pixel channel values are always in [0,255], so a difference is always in
// this range; negative-index access is emulated with a fixed offset, as in
// a C lookup table.
var absTable [255 + 255 + 1]uint8

const absOffset = 255

func init() {
	for i := -255; i <= 255; i++ {
		v := i
		if v < 0 {
			v = -v
		}
		absTable[absOffset+i] = uint8(v)
	}
}

// abs8 returns |v| for v in [-255, 255] using the precomputed table.
func abs8(v int) uint8 {
	return absTable[absOffset+v]
}

// PixelDiff evaluates min(|x-y|, tau) against a fixed reference pixel x,
// summed component-wise for multi-channel pixels. The cap tau limits the
// influence of outliers (occlusions, specularities) so a single bad pixel
// cannot dominate a window sum.
type PixelDiff struct {
	ref    []uint8
	thresh uint8
}

// New constructs a PixelDiff for reference pixel channels ref and saturation
// threshold thresh. ref is copied; the caller's slice may be reused.
func New(ref []uint8, thresh uint8) PixelDiff {
	r := make([]uint8, len(ref))
	copy(r, ref)
	return PixelDiff{ref: r, thresh: thresh}
}

// Channels returns the number of channels this PixelDiff was built for.
func (p PixelDiff) Channels() int { return len(p.ref) }

// Diff returns sum_c min(|ref_c - y_c|, thresh). y must have the same
// channel count as the reference pixel.
func (p PixelDiff) Diff(y []uint8) int {
	sum := 0
	thresh := int(p.thresh)
	for i, rc := range p.ref {
		d := int(abs8(int(rc) - int(y[i])))
		if d > thresh {
			d = thresh
		}
		sum += d
	}
	return sum
}

// Diff2 returns Diff(y) + Diff(z). Used by the trinocular engine to combine
// the horizontal (right-image) and vertical (top-image) neighbor
// contributions for a pixel in a single pass.
func (p PixelDiff) Diff2(y, z []uint8) int {
	return p.Diff(y) + p.Diff(z)
}

// Cost returns sum_c min(|x_c - y_c|, thresh) for two same-length pixels
// with no intervening allocation, for engines that re-derive the reference
// pixel on every call (a new PixelDiff per disparity hypothesis would
// allocate per pixel, which the per-row cost loop cannot afford).
func Cost(x, y []uint8, thresh uint8) int {
	sum := 0
	t := int(thresh)
	for i, xc := range x {
		d := int(abs8(int(xc) - int(y[i])))
		if d > t {
			d = t
		}
		sum += d
	}
	return sum
}

// Cost2 returns Cost(x, y, thresh) + Cost(x, z, thresh).
func Cost2(x, y, z []uint8, thresh uint8) int {
	return Cost(x, y, thresh) + Cost(x, z, thresh)
}

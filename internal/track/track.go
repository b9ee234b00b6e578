// Package track implements the per-column match-minimum tracker used by
// both disparity engines: as aggregated costs for successive disparity
// hypotheses stream past a column, it maintains the running best cost and
// its disparity index, the costs immediately neighboring that minimum (for
// parabolic subpixel refinement), and the second-best cost/disparity (for
// guided-filter blending).
//
// Disparities are presented to Update as a zero-based step index counting
// in the engine's scan order, not the physical disparity value; callers
// convert back via disparityMax - stepIndex - delta, matching the
// convention used throughout the engine.
package track

import "math"

type column struct {
	initialized bool

	rMin    float32
	dBest   int
	prevCost float32

	leftNeighbor  float32
	rightNeighbor float32
	haveLeft      bool
	haveRight     bool
	awaitingRight bool

	secondBestCost float32
	secondBestD    int
}

// Tracker holds per-column running-minimum state for one scanline pass. A
// single Tracker instance is reused (via Reset) across rows to avoid
// per-row allocation.
type Tracker struct {
	cols []column
}

// New constructs a Tracker with n columns.
func New(n int) *Tracker {
	t := &Tracker{cols: make([]column, n)}
	t.Reset()
	return t
}

// Reset clears all per-column state so the tracker can be reused for a new
// scanline. It does not reallocate.
func (t *Tracker) Reset() {
	for i := range t.cols {
		t.cols[i] = column{secondBestCost: math.MaxFloat32}
	}
}

// Len returns the number of tracked columns.
func (t *Tracker) Len() int { return len(t.cols) }

// Update presents a new candidate aggregated cost R for step index d at
// column c. If R improves on the column's running minimum, the minimum,
// its disparity index, and the neighbor-cost bookkeeping needed for
// parabolic refinement are updated; ties keep the earlier (already
// recorded) disparity, which is what makes the "first update wins"
// tie-break hold without extra state. Update returns true exactly when
// this call changed the running minimum (the per-column mask bit used by
// the horizontal/vertical back-match trackers, which are just other
// Tracker instances fed the same cost at a shifted column).
func (t *Tracker) Update(c, d int, R float32) bool {
	col := &t.cols[c]

	if col.awaitingRight {
		col.rightNeighbor = R
		col.haveRight = true
		col.awaitingRight = false
	}

	changed := false
	switch {
	case !col.initialized:
		col.initialized = true
		col.rMin = R
		col.dBest = d
		col.leftNeighbor = R // no left neighbor yet; denominator test handles this
		col.haveLeft = false
		col.awaitingRight = true
		col.secondBestCost = math.MaxFloat32
		col.secondBestD = d
		changed = true
	case R < col.rMin:
		col.secondBestCost = col.rMin
		col.secondBestD = col.dBest
		col.leftNeighbor = col.prevCost
		col.haveLeft = true
		col.rMin = R
		col.dBest = d
		col.haveRight = false // previous minimum's neighbor is stale now
		col.awaitingRight = true
		changed = true
	case R < col.secondBestCost:
		col.secondBestCost = R
		col.secondBestD = d
	}

	col.prevCost = R
	return changed
}

// DBest returns the step index attaining the running minimum for column c.
func (t *Tracker) DBest(c int) int { return t.cols[c].dBest }

// RMin returns the running minimum cost for column c.
func (t *Tracker) RMin(c int) float32 { return t.cols[c].rMin }

// SecondBest returns the step index and cost of the second-lowest
// aggregated cost observed for column c, used by GfEngine's blend option.
func (t *Tracker) SecondBest(c int) (d int, cost float32) {
	col := &t.cols[c]
	return col.secondBestD, col.secondBestCost
}

// Select returns the step index at the running minimum and a parabolic
// subpixel offset delta in [-0.5, 0.5] computed from the minimum and its
// two neighboring costs. If either neighbor is unavailable (minimum at the
// very first or very last disparity presented) or the three costs do not
// form a convex triple, delta is 0 and the integer step index is reported
// as-is.
func (t *Tracker) Select(c int) (d int, delta float32) {
	col := &t.cols[c]
	if !col.haveLeft || !col.haveRight {
		return col.dBest, 0
	}

	rm1 := col.leftNeighbor
	r0 := col.rMin
	rp1 := col.rightNeighbor

	denom := rm1 - 2*r0 + rp1
	if denom <= 0 {
		return col.dBest, 0
	}

	delta = (rm1 - rp1) / (2 * denom)
	if delta > 0.5 {
		delta = 0.5
	} else if delta < -0.5 {
		delta = -0.5
	}
	return col.dBest, delta
}

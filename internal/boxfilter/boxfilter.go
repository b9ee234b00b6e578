// Package boxfilter implements the incremental sliding-window sum that
// underlies both the SAD cost aggregator and the guided filter's window
// statistics. The 1-D filter advances by one addition and one subtraction
// per output position; the 2-D separable filter composes two 1-D passes
// while keeping only w rows of intermediate state materialized, so memory
// stays bounded independent of image height.
package boxfilter

// Sum1D computes the incremental sliding-window sum over in with window
// width w. out must have length len(in)-w+1; out[i] = sum(in[i:i+w]).
// If w <= 0 or len(in) < w, out is left untouched (zero-length result).
func Sum1D(in []int32, w int, out []int32) {
	if w <= 0 || len(in) < w || len(out) == 0 {
		return
	}
	var sum int32
	for i := 0; i < w; i++ {
		sum += in[i]
	}
	out[0] = sum
	for i := w; i < len(in); i++ {
		sum += in[i] - in[i-w]
		out[i-w+1] = sum
	}
}

// OutLength returns the output length of a 1-D box filter of window width w
// applied to an input of length n, or 0 if the window does not fit.
func OutLength(n, w int) int {
	if w <= 0 || n < w {
		return 0
	}
	return n - w + 1
}

// Separable2D maintains the incremental state for a 2-D box-sum filter: a
// horizontal pass applied to each incoming row, and a vertical running sum
// across the last w horizontally-filtered rows. Only w rows of
// intermediate state are ever held, regardless of image height.
//
// The zero value is not usable; construct with NewSeparable2D.
type Separable2D struct {
	w       int
	inWidth int
	outW    int

	hRows  [][]int32 // ring buffer of the last w horizontally-filtered rows
	next   int        // index in hRows where the next row will be written
	filled int        // number of rows pushed so far (caps at w)

	colSums []int32 // current vertical running sum, length outW
	hBuf    []int32 // scratch for the horizontal pass of the incoming row
}

// NewSeparable2D constructs a Separable2D for a window of width w applied to
// rows of width inWidth.
func NewSeparable2D(inWidth, w int) *Separable2D {
	outW := OutLength(inWidth, w)
	hRows := make([][]int32, w)
	for i := range hRows {
		hRows[i] = make([]int32, outW)
	}
	return &Separable2D{
		w:       w,
		inWidth: inWidth,
		outW:    outW,
		hRows:   hRows,
		colSums: make([]int32, outW),
		hBuf:    make([]int32, outW),
	}
}

// OutWidth returns the width of each output row (inWidth - w + 1).
func (s *Separable2D) OutWidth() int { return s.outW }

// Reset clears accumulated row state so the filter can be reused for a new
// scanline or disparity pass without reallocating its buffers.
func (s *Separable2D) Reset() {
	s.next = 0
	s.filled = 0
	for i := range s.colSums {
		s.colSums[i] = 0
	}
}

// PushRow feeds one new input row (length inWidth) into the filter. Once w
// rows have been pushed, ready is true and sums holds the 2-D box sum for
// the output row ending at the row just pushed (sums is a window onto the
// filter's internal state and is only valid until the next PushRow call).
func (s *Separable2D) PushRow(in []int32) (sums []int32, ready bool) {
	if s.outW == 0 {
		return nil, false
	}

	// Horizontal pass into scratch, then store into the ring buffer slot
	// that is about to be evicted (or the next free slot while filling).
	Sum1D(in, s.w, s.hBuf)

	slot := s.hRows[s.next]
	if s.filled >= s.w {
		// Evicting hRows[s.next]: subtract it before overwriting.
		for i := range s.colSums {
			s.colSums[i] -= slot[i]
		}
	}
	copy(slot, s.hBuf)
	for i := range s.colSums {
		s.colSums[i] += slot[i]
	}

	s.next = (s.next + 1) % s.w
	if s.filled < s.w {
		s.filled++
	}

	if s.filled < s.w {
		return nil, false
	}
	return s.colSums, true
}

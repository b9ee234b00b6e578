// Package guided implements the per-window linear regression at the heart
// of the guided filter: given box-filtered first and second moments of a
// guide image and a cost image, derive the (a, b) coefficients that make
// a*guide + b the best local linear fit to cost, then evaluate that fit at
// the guide image's window-center pixel. The surrounding box-sum
// accumulation is provided by internal/boxfilter; this package is the pure
// per-window math plus thin row-wise helpers.
package guided

// Coeffs holds the per-window linear coefficients (a, b) such that
// a*G + b approximates the cost C within that window.
type Coeffs struct {
	A float32
	B float32
}

// Solve derives guided-filter coefficients for one window from its box-sum
// statistics: sumG, sumC, sumGG (sum of G*G), sumGC (sum of G*C), each over
// n = windowSize*windowSize samples, regularized by eps (units of squared
// intensity). If the regularized guide variance is non-positive (constant
// guide with eps=0), a is 0 and b falls back to the plain cost mean — this
// is what makes the filter degenerate to a box-mean filter for a constant
// guide, per the engine's defining property.
func Solve(sumG, sumC, sumGG, sumGC, n, eps float32) Coeffs {
	muG := sumG / n
	muC := sumC / n
	corrGC := sumGC / n
	varG := sumGG/n - muG*muG

	denom := varG + eps
	var a float32
	if denom > 0 {
		a = (corrGC - muG*muC) / denom
	}
	b := muC - a*muG
	return Coeffs{A: a, B: b}
}

// Apply evaluates a*g + b for the guide value g at the window's center
// pixel, producing the smoothed cost at that pixel.
func (c Coeffs) Apply(g float32) float32 {
	return c.A*g + c.B
}

// SolveRow computes coefficients for every column of a row of box-sums. All
// slices (sumG, sumC, sumGG, sumGC, outA, outB) must have equal length.
func SolveRow(sumG, sumC, sumGG, sumGC []float32, windowArea, eps float32, outA, outB []float32) {
	for i := range sumG {
		c := Solve(sumG[i], sumC[i], sumGG[i], sumGC[i], windowArea, eps)
		outA[i] = c.A
		outB[i] = c.B
	}
}

// SmoothRow evaluates a[i]*guideCenter[i] + b[i] for every column, producing
// the guided-filter output row. All slices must have equal length.
func SmoothRow(a, b, guideCenter, out []float32) {
	for i := range a {
		out[i] = a[i]*guideCenter[i] + b[i]
	}
}

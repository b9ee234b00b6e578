// Package rectify implements the pre-matching resampling stage: a per-row
// table of fractional source coordinates (precomputed once from a
// homography and camera intrinsics) drives 7-bit fixed-point bilinear
// interpolation at apply time. The table precompute runs once per
// geometry; apply is a tight per-row loop over each row's tabulated
// valid-column span.
package rectify

// Mat33 is a row-major 3x3 matrix, used for the homography (H^-1, transposed)
// and the camera intrinsic / inverse-intrinsic matrices.
type Mat33 [3][3]float64

// Identity returns the 3x3 identity matrix.
func Identity() Mat33 {
	return Mat33{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func mulMat33Vec(m Mat33, x, y float64) (px, py, pw float64) {
	px = m[0][0]*x + m[0][1]*y + m[0][2]
	py = m[1][0]*x + m[1][1]*y + m[1][2]
	pw = m[2][0]*x + m[2][1]*y + m[2][2]
	return
}

func mulMat33(a, b Mat33) Mat33 {
	var out Mat33
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// Intrinsic is the camera's forward pixel-projection model: K maps
// normalized (undistorted) camera coordinates to pixel coordinates, and
// D1/D2 are the second- and fourth-order radial distortion coefficients
// applied before K.
type Intrinsic struct {
	K      Mat33
	D1, D2 float64
}

// IdentityIntrinsic returns an Intrinsic with no distortion and an
// identity projection.
func IdentityIntrinsic() Intrinsic {
	return Intrinsic{K: Identity()}
}

// apply distorts and projects a normalized point (x, y) into pixel
// coordinates using the camera's radial distortion and intrinsic matrix.
func (in Intrinsic) apply(x, y float64) (px, py float64) {
	r2 := x*x + y*y
	factor := 1 + in.D1*r2 + in.D2*r2*r2
	xd, yd := x*factor, y*factor
	px = in.K[0][0]*xd + in.K[0][1]*yd + in.K[0][2]
	py = in.K[1][0]*xd + in.K[1][1]*yd + in.K[1][2]
	return
}

// fracRow holds one output row's tabulated source coordinates. us/vs are
// the integer source pixel for each tabulated output column (starting at
// LeftMost); du/dv are 7-bit fixed-point fractional offsets in [0,127].
type fracRow struct {
	LeftMost int
	Us, Vs   []int32
	Du, Dv   []uint8
}

func (r fracRow) span() int { return len(r.Us) }

// Table is a precomputed rectification table: for every output pixel
// it records the source pixel and fractional offset needed for bilinear
// resampling, or omits the column entirely when the mapped source point
// falls outside the input by less than one pixel of margin.
type Table struct {
	inWidth, inHeight   int
	outWidth, outHeight int
	rows                []fracRow
}

// OutWidth and OutHeight report the geometry this table was built for.
func (t *Table) OutWidth() int  { return t.outWidth }
func (t *Table) OutHeight() int { return t.outHeight }

// ValidSpan returns the half-open [leftmost, leftmost+len) column range
// tabulated for output row v; Apply does not write columns outside this
// span.
func (t *Table) ValidSpan(v int) (leftmost, length int) {
	r := t.rows[v]
	return r.LeftMost, r.span()
}

// Initialize precomputes a RectifyTable mapping every output pixel (u, v)
// to a fractional source coordinate via (x, y, w) = hInv * kInv * (u, v, 1),
// normalized by w, then distorted and reprojected into pixel space by
// intrinsic. Columns whose source point does not land at least one pixel
// inside the input bounds are omitted from the row's tabulated span.
func Initialize(hInv, kInv Mat33, intrinsic Intrinsic, inWidth, inHeight, outWidth, outHeight int) *Table {
	m := mulMat33(hInv, kInv)

	t := &Table{
		inWidth: inWidth, inHeight: inHeight,
		outWidth: outWidth, outHeight: outHeight,
		rows: make([]fracRow, outHeight),
	}

	for v := 0; v < outHeight; v++ {
		row := fracRow{LeftMost: -1}
		for u := 0; u < outWidth; u++ {
			px, py, pw := mulMat33Vec(m, float64(u), float64(v))
			if pw == 0 {
				continue
			}
			x, y := px/pw, py/pw
			mx, my := intrinsic.apply(x, y)

			if mx < 0 || mx > float64(inWidth-2) || my < 0 || my > float64(inHeight-2) {
				continue
			}

			us := int32(floor64(mx))
			vs := int32(floor64(my))
			du := uint8(floor64((mx - floor64(mx)) * 128.0))
			dv := uint8(floor64((my - floor64(my)) * 128.0))

			if row.LeftMost < 0 {
				row.LeftMost = u
			}
			row.Us = append(row.Us, us)
			row.Vs = append(row.Vs, vs)
			row.Du = append(row.Du, du)
			row.Dv = append(row.Dv, dv)
		}
		if row.LeftMost < 0 {
			row.LeftMost = 0
		}
		t.rows[v] = row
	}
	return t
}

func floor64(f float64) float64 {
	i := int64(f)
	if f < 0 && float64(i) != f {
		i--
	}
	return float64(i)
}

package stereo

import "github.com/gostereo/disparity/internal/rectify"

// Mat33 is a row-major 3x3 matrix: a homography, its inverse transpose, or
// a camera intrinsic matrix.
type Mat33 = rectify.Mat33

// Intrinsic is the camera's forward pixel-projection model used by
// Rectifier.Initialize: K plus the second- and fourth-order radial
// distortion coefficients D1, D2.
type Intrinsic = rectify.Intrinsic

// IdentityMat33 returns the 3x3 identity matrix.
func IdentityMat33() Mat33 { return rectify.Identity() }

// IdentityIntrinsic returns an Intrinsic with no distortion and an
// identity pixel projection.
func IdentityIntrinsic() Intrinsic { return rectify.IdentityIntrinsic() }

// Rectifier applies the bilinear resampling transform that precedes
// matching: initialize once with the rectification
// geometry, then Apply to resample one input image per output call.
type Rectifier struct {
	table *rectify.Table
}

// NewRectifier precomputes a RectifyTable mapping every output pixel
// (u, v) to a fractional source coordinate via hInv (the transpose of the
// inverse homography) and kInv (the inverse camera intrinsic matrix),
// distorted and reprojected by intrinsic.
func NewRectifier(hInv, kInv Mat33, intrinsic Intrinsic, inWidth, inHeight, outWidth, outHeight int) *Rectifier {
	return &Rectifier{table: rectify.Initialize(hInv, kInv, intrinsic, inWidth, inHeight, outWidth, outHeight)}
}

// OutWidth and OutHeight report the geometry this Rectifier was built for.
func (r *Rectifier) OutWidth() int  { return r.table.OutWidth() }
func (r *Rectifier) OutHeight() int { return r.table.OutHeight() }

// Apply resamples in into out over output rows [rowStart, rowEnd); pass
// rowEnd of 0 to resample through OutHeight(), letting callers parallelize
// by band. in and out must share the same channel count; out is assumed
// pre-zeroed so columns outside each row's valid span are left at zero.
func (r *Rectifier) Apply(in, out *Image, rowStart, rowEnd int) {
	if in.Channels() != out.Channels() {
		violatef("rectifier input (%d ch) and output (%d ch) must share channel count", in.Channels(), out.Channels())
	}
	rectify.Apply(r.table, rectifySource{in}, rectifyDest{out}, rowStart, rowEnd)
}

type rectifySource struct{ im *Image }

func (s rectifySource) Row(y int) []uint8 { return s.im.Row(y) }
func (s rectifySource) Channels() int     { return s.im.Channels() }

type rectifyDest struct{ im *Image }

func (d rectifyDest) Row(y int) []uint8 { return d.im.Row(y) }

// Package stereo implements the rectified stereo disparity engine: given
// two or three rectified raster-scan image streams from a binocular or
// trinocular rig, it produces a dense per-pixel disparity map with
// subpixel refinement and left/right (and top/bottom) consistency
// checks, using bounded memory independent of image height.
//
// The public surface is a thin entrypoint: Parameters and
// Image/DisparityMap are plain data, Match/MatchTrinocular validate and
// wire internal/engine,
// internal/band, and internal/scratch together, and NewRectifier wraps
// internal/rectify for the separate rectification stage.
package stereo

import (
	"errors"
	"fmt"
)

// Kind classifies an error returned by this package. Contract
// violations are not represented here: contract
// violations (mismatched iterator lengths, nil outputs) are programmer
// errors and panic rather than returning an error value.
type Kind int

const (
	// KindConfig marks an impossible Parameters combination.
	KindConfig Kind = iota
	// KindFormat marks a malformed header while loading rectified
	// inputs or calibration data.
	KindFormat
	// KindResource marks an allocation failure in the scratch pool.
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindFormat:
		return "format"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with its Kind. Unwrap exposes the cause,
// so errors.Is/As also find any sentinel error wrapped inside it.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("stereo: %s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) error {
	return &Error{Kind: KindConfig, Err: fmt.Errorf(format, args...)}
}

func formatErrorf(format string, args ...any) error {
	return &Error{Kind: KindFormat, Err: fmt.Errorf(format, args...)}
}

// ErrUnsupportedChannels describes an Image whose channel count is neither
// 1 (gray) nor 3 (RGB). PixelFormat only yields those two counts, so no
// function in this package returns it.
var ErrUnsupportedChannels = errors.New("stereo: image must be 1 or 3 channels")

// contractViolation is the panic value for programmer errors (mismatched
// iterator lengths, nil outputs): identifiable in a recover, unlike an
// ad-hoc index-out-of-range.
type contractViolation string

func (c contractViolation) String() string { return string(c) }

func violatef(format string, args ...any) {
	panic(contractViolation(fmt.Sprintf(format, args...)))
}

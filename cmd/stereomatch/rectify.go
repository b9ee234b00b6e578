package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"github.com/gostereo/disparity"
	"github.com/gostereo/disparity/internal/pbmio"
)

var rectifyFlags struct {
	calib      string
	homography string
	output     string
	outWidth   int
	outHeight  int
	preview    string
}

var rectifyCmd = &cobra.Command{
	Use:   "rectify <input.pbm>",
	Short: "Apply a rectification table to one image",
	Args:  cobra.ExactArgs(1),
	RunE:  runRectify,
}

func init() {
	rectifyCmd.Flags().StringVar(&rectifyFlags.calib, "calib", "", "calibration PBM header supplying PinHoleParameterHij/DistortionParameterD1/D2 (required)")
	rectifyCmd.Flags().StringVar(&rectifyFlags.homography, "homography", "", "comma-separated row-major 3x3 homography inverse (default: identity)")
	rectifyCmd.Flags().StringVarP(&rectifyFlags.output, "output", "o", "", "output PBM (required)")
	rectifyCmd.Flags().IntVar(&rectifyFlags.outWidth, "out-width", 0, "output width (0 = same as input)")
	rectifyCmd.Flags().IntVar(&rectifyFlags.outHeight, "out-height", 0, "output height (0 = same as input)")
	rectifyCmd.Flags().StringVar(&rectifyFlags.preview, "preview", "", "write a half-size PNG preview of the rectified image")
	rootCmd.AddCommand(rectifyCmd)
}

func runRectify(cmd *cobra.Command, args []string) error {
	if rectifyFlags.calib == "" || rectifyFlags.output == "" {
		return fmt.Errorf("rectify: --calib and -o/--output are required")
	}

	in, err := readImageFile(args[0])
	if err != nil {
		return fmt.Errorf("rectify: reading input image: %w", err)
	}

	calib, err := readCalibHeader(rectifyFlags.calib)
	if err != nil {
		return fmt.Errorf("rectify: %w", err)
	}

	k := pinHoleToMat33(calib)
	kInv, err := invert3x3(k)
	if err != nil {
		return fmt.Errorf("rectify: inverting calibration matrix: %w", err)
	}
	intrinsic := stereo.Intrinsic{K: k, D1: calib.D1, D2: calib.D2}

	hInv := stereo.IdentityMat33()
	if rectifyFlags.homography != "" {
		hInv, err = parseMat33(rectifyFlags.homography)
		if err != nil {
			return fmt.Errorf("rectify: parsing --homography: %w", err)
		}
	}

	outWidth, outHeight := rectifyFlags.outWidth, rectifyFlags.outHeight
	if outWidth == 0 {
		outWidth = in.Width
	}
	if outHeight == 0 {
		outHeight = in.Height
	}

	rect := stereo.NewRectifier(hInv, kInv, intrinsic, in.Width, in.Height, outWidth, outHeight)
	out := stereo.NewImage(outWidth, outHeight, in.Format)
	rect.Apply(in, out, 0, outHeight)

	logger.Info("rectified", "in_width", in.Width, "in_height", in.Height, "out_width", outWidth, "out_height", outHeight)

	f, err := os.Create(rectifyFlags.output)
	if err != nil {
		return fmt.Errorf("rectify: %w", err)
	}
	defer f.Close()
	if err := out.WritePBM(f); err != nil {
		return fmt.Errorf("rectify: writing %s: %w", rectifyFlags.output, err)
	}

	if rectifyFlags.preview != "" {
		if err := writePreviewPNG(out, rectifyFlags.preview); err != nil {
			return fmt.Errorf("rectify: writing preview: %w", err)
		}
	}
	return nil
}

func readCalibHeader(path string) (pbmio.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return pbmio.Header{}, err
	}
	defer f.Close()
	h, _, err := pbmio.ReadHeader(f)
	if err != nil {
		return pbmio.Header{}, err
	}
	h.ResolveLegacyDistortion()
	return h, nil
}

func pinHoleToMat33(h pbmio.Header) stereo.Mat33 {
	var m stereo.Mat33
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = h.PinHole[i][j]
		}
	}
	if m == (stereo.Mat33{}) {
		return stereo.IdentityMat33()
	}
	return m
}

func parseMat33(csv string) (stereo.Mat33, error) {
	parts := strings.Split(csv, ",")
	if len(parts) != 9 {
		return stereo.Mat33{}, fmt.Errorf("want 9 comma-separated values, got %d", len(parts))
	}
	var m stereo.Mat33
	for idx, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return stereo.Mat33{}, fmt.Errorf("value %d (%q): %w", idx, p, err)
		}
		m[idx/3][idx%3] = v
	}
	return m, nil
}

// invert3x3 inverts a camera intrinsic matrix via the cofactor/adjugate
// method (a 3x3 matrix never benefits from an LU solver's generality).
func invert3x3(m stereo.Mat33) (stereo.Mat33, error) {
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	if det == 0 {
		return stereo.Mat33{}, fmt.Errorf("singular matrix")
	}
	invDet := 1 / det
	var out stereo.Mat33
	out[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) * invDet
	out[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) * invDet
	out[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) * invDet
	out[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) * invDet
	out[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) * invDet
	out[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) * invDet
	out[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) * invDet
	out[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) * invDet
	out[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) * invDet
	return out, nil
}

// writePreviewPNG downsamples out to half size with x/image/draw's
// Catmull-Rom scaler and writes it as a PNG, so a rectification result can be eyeballed
// without a PBM viewer; never on the matching hot path.
func writePreviewPNG(out *stereo.Image, path string) error {
	dst := image.NewRGBA(image.Rect(0, 0, (out.Width+1)/2, (out.Height+1)/2))
	src := imageToStdlib(out)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, dst)
}

func imageToStdlib(im *stereo.Image) image.Image {
	if im.Format == stereo.Gray {
		return &image.Gray{Pix: im.Pix, Stride: im.Stride, Rect: image.Rect(0, 0, im.Width, im.Height)}
	}
	rgba := image.NewRGBA(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		srcRow := im.Row(y)
		for x := 0; x < im.Width; x++ {
			i := rgba.PixOffset(x, y)
			rgba.Pix[i+0] = srcRow[x*3+0]
			rgba.Pix[i+1] = srcRow[x*3+1]
			rgba.Pix[i+2] = srcRow[x*3+2]
			rgba.Pix[i+3] = 255
		}
	}
	return rgba
}

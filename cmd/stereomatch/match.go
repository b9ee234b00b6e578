package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gostereo/disparity"
)

var matchFlags struct {
	top          string
	paramsPath   string
	output       string
	engine       string
	epsilon      float64
	blend        float64
	horizontal   bool
	vertical     bool
	disparityMax int
	searchWidth  int
	windowSize   int
}

var matchCmd = &cobra.Command{
	Use:   "match <left> <right> -o <disparity.pbm>",
	Short: "Compute a disparity map from a rectified stereo pair (or triple); inputs are PBM or BMP",
	Args:  cobra.ExactArgs(2),
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchFlags.top, "top", "", "optional top image for trinocular matching")
	matchCmd.Flags().StringVar(&matchFlags.paramsPath, "params", "", "legacy parameter file (disparitySearchWidth disparityMax disparityInconsistency grainSize)")
	matchCmd.Flags().StringVarP(&matchFlags.output, "output", "o", "", "output disparity PBM (required)")
	matchCmd.Flags().StringVar(&matchFlags.engine, "engine", "sad", "aggregation engine: sad or gf")
	matchCmd.Flags().Float64Var(&matchFlags.epsilon, "epsilon", 0, "guided-filter regularization (gf engine only)")
	matchCmd.Flags().Float64Var(&matchFlags.blend, "blend", 0, "second-best blend factor in [0,1)")
	matchCmd.Flags().BoolVar(&matchFlags.horizontal, "horizontal-backmatch", true, "enable right->left consistency filter")
	matchCmd.Flags().BoolVar(&matchFlags.vertical, "vertical-backmatch", false, "enable top->bottom consistency filter (requires --top)")
	matchCmd.Flags().IntVar(&matchFlags.disparityMax, "disparity-max", 0, "override disparity_max (0 = use --params or default)")
	matchCmd.Flags().IntVar(&matchFlags.searchWidth, "search-width", 0, "override disparity_search_width (0 = use --params or default)")
	matchCmd.Flags().IntVar(&matchFlags.windowSize, "window-size", 0, "override window_size (0 = default)")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	if matchFlags.output == "" {
		return fmt.Errorf("match: -o/--output is required")
	}

	params, err := loadParameters()
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}
	if matchFlags.engine == "gf" {
		params.Engine = stereo.GuidedFilter
	} else if matchFlags.engine != "sad" {
		return fmt.Errorf("match: unknown --engine %q (want sad or gf)", matchFlags.engine)
	}
	params.Epsilon = float32(matchFlags.epsilon)
	params.Blend = float32(matchFlags.blend)
	params.DoHorizontalBackMatch = matchFlags.horizontal
	params.DoVerticalBackMatch = matchFlags.vertical
	if matchFlags.disparityMax > 0 {
		params.DisparityMax = matchFlags.disparityMax
	}
	if matchFlags.searchWidth > 0 {
		params.DisparitySearchWidth = matchFlags.searchWidth
	}
	if matchFlags.windowSize > 0 {
		params.WindowSize = matchFlags.windowSize
	}

	left, err := readImageFile(args[0])
	if err != nil {
		return fmt.Errorf("match: reading left image: %w", err)
	}
	right, err := readImageFile(args[1])
	if err != nil {
		return fmt.Errorf("match: reading right image: %w", err)
	}

	var top *stereo.Image
	if matchFlags.top != "" {
		top, err = readImageFile(matchFlags.top)
		if err != nil {
			return fmt.Errorf("match: reading top image: %w", err)
		}
	}

	var stats stereo.Stats
	opts := []stereo.Option{stereo.WithLogger(logger), stereo.WithStats(&stats)}

	var dm *stereo.DisparityMap
	if top != nil {
		dm, err = stereo.MatchTrinocular(left, right, top, params, opts...)
	} else {
		dm, err = stereo.Match(left, right, params, opts...)
	}
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}

	logger.Info("matched", "bands", stats.Bands, "rows", stats.RowsProcessed)

	out, err := os.Create(matchFlags.output)
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}
	defer out.Close()
	if err := dm.WritePBM(out); err != nil {
		return fmt.Errorf("match: writing %s: %w", matchFlags.output, err)
	}
	return nil
}

func loadParameters() (stereo.Parameters, error) {
	if matchFlags.paramsPath == "" {
		return stereo.DefaultParameters(), nil
	}
	f, err := os.Open(matchFlags.paramsPath)
	if err != nil {
		return stereo.Parameters{}, err
	}
	defer f.Close()
	return stereo.ParseParameters(f)
}

func readImageFile(path string) (*stereo.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".bmp") {
		return stereo.ReadBMP(f)
	}
	return stereo.ReadImage(f)
}

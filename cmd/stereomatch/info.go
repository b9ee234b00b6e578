package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gostereo/disparity/internal/bmpio"
	"github.com/gostereo/disparity/internal/pbmio"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Print a PBM or BMP header's dimensions and metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".bmp") {
		return printBMPInfo(path, f)
	}

	h, _, err := pbmio.ReadHeader(f)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	h.ResolveLegacyDistortion()

	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Magic:      %s\n", h.Magic)
	fmt.Printf("Dimensions: %d x %d\n", h.Width, h.Height)
	fmt.Printf("DataType:   %s\n", h.DataType)
	fmt.Printf("Endian:     %s\n", endianString(h))
	fmt.Printf("Channels:   %d\n", h.Channels())
	if h.HasPinHole {
		fmt.Println("PinHole:")
		for i := 0; i < 3; i++ {
			fmt.Printf("  %g %g %g %g\n", h.PinHole[i][0], h.PinHole[i][1], h.PinHole[i][2], h.PinHole[i][3])
		}
	}
	if h.HasD1 || h.HasD2 {
		fmt.Printf("Distortion: D1=%g D2=%g\n", h.D1, h.D2)
	}
	return nil
}

func printBMPInfo(path string, f *os.File) error {
	h, _, channels, err := bmpio.Read(f)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	order := "top-down"
	if h.BottomUp {
		order = "bottom-up"
	}
	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Magic:      BM\n")
	fmt.Printf("Dimensions: %d x %d\n", h.Width, h.Height)
	fmt.Printf("Depth:      %d-bit (%s)\n", h.BitCount, order)
	fmt.Printf("Channels:   %d\n", channels)
	if h.NColors > 0 {
		fmt.Printf("Palette:    %d entries\n", h.NColors)
	}
	return nil
}

func endianString(h pbmio.Header) string {
	if h.Endian == pbmio.Big {
		return "Big"
	}
	return "Little"
}

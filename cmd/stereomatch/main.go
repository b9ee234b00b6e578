// Command stereomatch is the CLI driver for the disparity engine: it runs
// matching over PBM stereo pairs/triples, applies a rectification table to
// a single image, or prints a PBM header's calibration metadata.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/diamondgrid/internal/palette"
	"github.com/MeKo-Tech/diamondgrid/internal/rng"
)

var palettesCmd = &cobra.Command{
	Use:   "palettes [seed]",
	Short: "List the candidate palettes, or show the one a seed picks",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPalettes,
}

func init() {
	rootCmd.AddCommand(palettesCmd)
}

func runPalettes(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	pals, err := loadPalettes()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listPalettes(out, pals)
	}

	opts, err := imageOptions()
	if err != nil {
		return err
	}
	return showSeedPalette(out, rng.Seed(args[0]), opts.Noise, pals, opts.Params.PaletteSize)
}

func listPalettes(w io.Writer, pals []palette.Palette) error {
	for i, p := range pals {
		if _, err := fmt.Fprintf(w, "%3d  %s\n", i, strings.Join(p.Hex(), " ")); err != nil {
			return err
		}
	}
	return nil
}

// seedPalette picks the palette a render of seed uses without generating the grid.
func seedPalette(seed rng.Seed, kind rng.NoiseKind, pals []palette.Palette, size int) (palette.Palette, error) {
	ctx, err := rng.New(seed, kind)
	if err != nil {
		return nil, err
	}
	return palette.Select(ctx, pals, size)
}

// showSeedPalette prints the palette that renders of seed use.
func showSeedPalette(w io.Writer, seed rng.Seed, kind rng.NoiseKind, pals []palette.Palette, size int) error {
	p, err := seedPalette(seed, kind, pals, size)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "seed %s: %s\n", seed, strings.Join(p.Hex(), " "))
	return err
}

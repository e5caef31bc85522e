package cmd

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/MeKo-Tech/diamondgrid/internal/colorutil"
	"github.com/MeKo-Tech/diamondgrid/internal/diamond"
	"github.com/MeKo-Tech/diamondgrid/internal/palette"
	"github.com/MeKo-Tech/diamondgrid/internal/pipeline"
	"github.com/MeKo-Tech/diamondgrid/internal/rng"
)

// imageOptions reads the shared image parameters from viper.
func imageOptions() (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()

	w, h, err := parsePair(viper.GetString("render.size"))
	if err != nil {
		return opts, fmt.Errorf("invalid --size: %w", err)
	}
	cols, rows, err := parsePair(viper.GetString("render.grid"))
	if err != nil {
		return opts, fmt.Errorf("invalid --grid: %w", err)
	}

	opts.Params = diamond.Params{
		Width:          w,
		Height:         h,
		Columns:        cols,
		Rows:           rows,
		NoiseFrequency: viper.GetFloat64("render.noise_frequency"),
		NoiseAmplitude: viper.GetFloat64("render.noise_amplitude"),
		PaletteSize:    viper.GetInt("render.palette_size"),
	}
	if err := opts.Params.Validate(); err != nil {
		return opts, err
	}

	if opts.Noise, err = rng.ParseNoiseKind(viper.GetString("render.noise")); err != nil {
		return opts, err
	}
	if opts.Renderer, err = pipeline.ParseBackend(viper.GetString("render.renderer")); err != nil {
		return opts, err
	}
	if opts.Background, err = parseBackground(viper.GetString("render.background")); err != nil {
		return opts, err
	}
	opts.OutputDir = viper.GetString("output-dir")

	return opts, nil
}

func loadPalettes() ([]palette.Palette, error) {
	path := viper.GetString("render.palettes")
	pals, err := palette.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load palettes: %w", err)
	}
	if path != "" {
		cmdLog().Debug("Loaded palettes", "path", path, "count", len(pals))
	}
	return pals, nil
}

// parsePair parses "a,b" into two positive integers.
func parsePair(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected two comma-separated values, got %q", s)
	}

	var vals [2]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid value %q: %w", part, err)
		}
		if v <= 0 {
			return 0, 0, fmt.Errorf("value %d must be positive", v)
		}
		vals[i] = v
	}
	return vals[0], vals[1], nil
}

func parseBackground(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, "transparent") {
		return nil, nil
	}
	c, err := colorutil.ParseHex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --background: %w", err)
	}
	return c, nil
}

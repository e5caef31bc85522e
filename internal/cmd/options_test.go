package cmd

import (
	"bytes"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/diamondgrid/internal/catalog"
	"github.com/MeKo-Tech/diamondgrid/internal/diamond"
	"github.com/MeKo-Tech/diamondgrid/internal/palette"
	"github.com/MeKo-Tech/diamondgrid/internal/pipeline"
	"github.com/MeKo-Tech/diamondgrid/internal/rng"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		in      string
		a, b    int
		wantErr bool
	}{
		{in: "2048,2048", a: 2048, b: 2048},
		{in: " 13 , 22 ", a: 13, b: 22},
		{in: "10", wantErr: true},
		{in: "1,2,3", wantErr: true},
		{in: "a,2", wantErr: true},
		{in: "0,2", wantErr: true},
		{in: "4,-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, b, err := parsePair(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.a, a)
			assert.Equal(t, tt.b, b)
		})
	}
}

func TestParseBackground(t *testing.T) {
	for _, in := range []string{"", "none", "Transparent", "  "} {
		c, err := parseBackground(in)
		require.NoError(t, err, in)
		assert.Nil(t, c, in)
	}

	c, err := parseBackground("#ffffff")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, c)

	_, err = parseBackground("chartreuse")
	require.Error(t, err)
}

func TestListPalettes(t *testing.T) {
	pals, err := palette.Default()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, listPalettes(&buf, pals))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, len(pals))
	assert.True(t, strings.HasPrefix(lines[0], "  0  #"))
}

func TestShowSeedPaletteMatchesSelect(t *testing.T) {
	pals, err := palette.Default()
	require.NoError(t, err)

	ctx, err := rng.New("20481322", rng.NoiseSimplex)
	require.NoError(t, err)
	want, err := palette.Select(ctx, pals, 5)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, showSeedPalette(&buf, "20481322", rng.NoiseSimplex, pals, 5))
	assert.Equal(t, "seed 20481322: "+strings.Join(want.Hex(), " ")+"\n", buf.String())
}

func TestPrintEntry(t *testing.T) {
	e := catalog.Entry{
		Seed:      "7",
		Noise:     "perlin",
		Params:    diamond.DefaultParams(),
		Palette:   []string{"#000000", "#ffffff"},
		Format:    "svg",
		Renderer:  "gg",
		Path:      "renders/diamonds-7.svg",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, printEntry(&buf, e))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "seed:       7\n"), out)
	assert.Contains(t, out, "size:       2048x2048\n")
	assert.Contains(t, out, "grid:       13x22\n")
	assert.Contains(t, out, "palette:    #000000 #ffffff\n")
	assert.Contains(t, out, "renderer:   gg\n")
	assert.Contains(t, out, "background: transparent\n")
	assert.Contains(t, out, "created:    2026-01-02 03:04:05\n")
}

func TestReproduceOptionsRestoresRecordedOutput(t *testing.T) {
	base := pipeline.DefaultOptions()
	base.OutputDir = "elsewhere"
	base.Renderer = pipeline.BackendVector
	base.Background = nil

	params := diamond.DefaultParams()
	params.Width, params.Height = 640, 480
	params.NoiseAmplitude = 0.5

	e := catalog.Entry{
		Seed:       "99",
		Noise:      "perlin",
		Params:     params,
		Format:     "svg",
		Renderer:   "gg",
		Background: "#102030",
	}

	opts, err := reproduceOptions(base, e)
	require.NoError(t, err)
	assert.Equal(t, params, opts.Params)
	assert.Equal(t, rng.NoisePerlin, opts.Noise)
	assert.Equal(t, pipeline.FormatSVG, opts.Format)
	assert.Equal(t, pipeline.BackendGG, opts.Renderer)
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}, opts.Background)
	assert.Equal(t, "elsewhere", opts.OutputDir)

	base.Background = color.White
	e.Background = ""
	opts, err = reproduceOptions(base, e)
	require.NoError(t, err)
	assert.Nil(t, opts.Background, "a transparent render stays transparent")

	e.Renderer = "cairo"
	_, err = reproduceOptions(base, e)
	require.ErrorIs(t, err, pipeline.ErrUnknownBackend)
}

func TestSeedPaletteMatchesRender(t *testing.T) {
	pals, err := palette.Default()
	require.NoError(t, err)

	opts := pipeline.DefaultOptions()
	opts.Params.Width, opts.Params.Height = 64, 64
	gen, err := pipeline.NewGenerator(opts, pals, nil)
	require.NoError(t, err)

	grid, err := gen.Build("31337")
	require.NoError(t, err)

	got, err := seedPalette("31337", rng.NoiseSimplex, pals, opts.Params.PaletteSize)
	require.NoError(t, err)
	assert.Equal(t, grid.Palette, got)
}

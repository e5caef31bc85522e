package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/gift"

	"github.com/MeKo-Tech/diamondgrid/internal/diamond"
	"github.com/MeKo-Tech/diamondgrid/internal/palette"
	"github.com/MeKo-Tech/diamondgrid/internal/raster"
	"github.com/MeKo-Tech/diamondgrid/internal/rng"
)

// Format is an output file format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// Backend selects the raster surface used for PNG output.
type Backend string

const (
	BackendVector Backend = "vector"
	BackendGG     Backend = "gg"
)

var (
	ErrUnknownFormat  = errors.New("unknown output format")
	ErrUnknownBackend = errors.New("unknown renderer backend")
)

// ParseFormat accepts "png" or "svg" in any case. An empty string means PNG.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPNG, nil
	case FormatPNG, FormatSVG:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ParseBackend accepts "vector" or "gg" in any case. An empty string means vector.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendVector, nil
	case BackendVector, BackendGG:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// FileName returns the output file name for seed, e.g. "diamonds-42.png".
func FileName(seed rng.Seed, format Format) string {
	return fmt.Sprintf("diamonds-%s.%s", seed, format)
}

// ThumbName returns the thumbnail file name for seed.
func ThumbName(seed rng.Seed) string {
	return fmt.Sprintf("diamonds-%s_thumb.png", seed)
}

// Options configures a Generator.
type Options struct {
	Params     diamond.Params
	Noise      rng.NoiseKind
	Format     Format
	Renderer   Backend
	Background color.Color // nil keeps the image transparent
	OutputDir  string
	ThumbSize  int // longest thumbnail edge in pixels, 0 disables thumbnails
	Recorder   Recorder
}

// DefaultOptions returns options for the reference render.
func DefaultOptions() Options {
	return Options{
		Params:    diamond.DefaultParams(),
		Noise:     rng.NoiseSimplex,
		Format:    FormatPNG,
		Renderer:  BackendVector,
		OutputDir: ".",
	}
}

// Result describes one finished render.
type Result struct {
	Seed     rng.Seed
	Noise    rng.NoiseKind
	Params   diamond.Params
	Palette  palette.Palette
	Format   Format
	Renderer Backend
	// Background is the fill behind the diamonds, nil when transparent.
	Background color.Color
	Path       string
	ThumbPath  string
}

// Recorder receives every render written to disk.
type Recorder interface {
	Record(Result) error
}

// Generator wires seed, palette selection, grid generation and drawing into a single step.
type Generator struct {
	opts     Options
	palettes []palette.Palette
	logger   *slog.Logger
}

// NewGenerator validates opts against the candidate palettes.
func NewGenerator(opts Options, palettes []palette.Palette, logger *slog.Logger) (*Generator, error) {
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	var err error
	if opts.Noise, err = rng.ParseNoiseKind(string(opts.Noise)); err != nil {
		return nil, err
	}
	if opts.Format, err = ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	if opts.Renderer, err = ParseBackend(string(opts.Renderer)); err != nil {
		return nil, err
	}
	if opts.ThumbSize < 0 {
		return nil, fmt.Errorf("%w: thumbnail size %d must not be negative", diamond.ErrInvalidConfig, opts.ThumbSize)
	}
	if err := palette.Validate(palettes, opts.Params.PaletteSize); err != nil {
		return nil, fmt.Errorf("%w: %w", diamond.ErrInvalidConfig, err)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	return &Generator{opts: opts, palettes: palettes, logger: logger}, nil
}

// Options returns the effective options.
func (g *Generator) Options() Options { return g.opts }

// Build derives the whole grid for seed without drawing it.
func (g *Generator) Build(seed rng.Seed) (*diamond.Grid, error) {
	ctx, err := rng.New(seed, g.opts.Noise)
	if err != nil {
		return nil, err
	}

	pal, err := palette.Select(ctx, g.palettes, g.opts.Params.PaletteSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", diamond.ErrInvalidConfig, err)
	}

	grid, err := diamond.Generate(ctx, pal, g.opts.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate diamonds: %w", err)
	}

	g.log().Debug("Built diamond grid", "seed", seed, "palette", pal.String(), "descriptors", grid.Len())
	return grid, nil
}

// Encode draws the render for seed in format and streams it to w.
func (g *Generator) Encode(seed rng.Seed, format Format, w io.Writer) error {
	format, err := ParseFormat(string(format))
	if err != nil {
		return err
	}

	g.log().Info("Rendering diamonds", "seed", seed, "noise", g.opts.Noise, "format", format)
	grid, err := g.Build(seed)
	if err != nil {
		return err
	}
	_, err = g.encode(grid, format, w)
	return err
}

// encode writes grid to w and returns the raster image when one was drawn.
func (g *Generator) encode(grid *diamond.Grid, format Format, w io.Writer) (image.Image, error) {
	p := g.opts.Params

	if format == FormatSVG {
		c := raster.NewSVGCanvas(w, p.Width, p.Height, g.opts.Background)
		raster.Render(grid, c)
		return nil, c.Close()
	}

	img := g.rasterize(grid)
	if err := png.Encode(w, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return img, nil
}

func (g *Generator) rasterize(grid *diamond.Grid) *image.RGBA {
	p := g.opts.Params

	if g.opts.Renderer == BackendGG {
		c := raster.NewGGCanvas(p.Width, p.Height, g.opts.Background)
		raster.Render(grid, c)
		return c.Image()
	}

	c := raster.NewCanvas(p.Width, p.Height, g.opts.Background)
	raster.Render(grid, c)
	return c.Image()
}

// Generate renders seed into the output directory and returns the file path.
// Existing files are kept unless force is set. ctx is checked before the grid
// is built and again before drawing; a started draw runs to completion.
func (g *Generator) Generate(ctx context.Context, seed rng.Seed, force bool) (string, error) {
	if seed == "" || strings.ContainsAny(string(seed), `/\`) {
		return "", fmt.Errorf("%w: seed %q cannot be used in a file name", diamond.ErrInvalidConfig, seed)
	}

	finalPath := filepath.Join(g.opts.OutputDir, FileName(seed, g.opts.Format))
	if !force {
		if _, err := os.Stat(finalPath); err == nil {
			g.log().Info("Render already exists; skipping", "seed", seed, "path", finalPath)
			return finalPath, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	g.log().Info("Rendering diamonds", "seed", seed, "noise", g.opts.Noise, "format", g.opts.Format)
	grid, err := g.Build(seed)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	img, err := g.encode(grid, g.opts.Format, &buf)
	if err != nil {
		return "", err
	}

	g.log().Info("Writing render", "seed", seed, "path", finalPath)
	if err := writeFileAtomic(finalPath, buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to write render: %w", err)
	}

	res := Result{
		Seed:       seed,
		Noise:      g.opts.Noise,
		Params:     g.opts.Params,
		Palette:    grid.Palette,
		Format:     g.opts.Format,
		Renderer:   g.opts.Renderer,
		Background: g.opts.Background,
		Path:       finalPath,
	}

	if g.opts.ThumbSize > 0 {
		if img == nil {
			img = g.rasterize(grid)
		}
		thumbPath := filepath.Join(g.opts.OutputDir, ThumbName(seed))
		if err := writeThumbnail(thumbPath, img, g.opts.ThumbSize); err != nil {
			return "", err
		}
		g.log().Debug("Wrote thumbnail", "seed", seed, "path", thumbPath)
		res.ThumbPath = thumbPath
	}

	if g.opts.Recorder != nil {
		if err := g.opts.Recorder.Record(res); err != nil {
			return "", fmt.Errorf("failed to record render: %w", err)
		}
	}

	return finalPath, nil
}

// Thumbnail scales img so its longest edge is size pixels.
func Thumbnail(img image.Image, size int) *image.NRGBA {
	b := img.Bounds()
	w, h := size, 0
	if b.Dy() > b.Dx() {
		w, h = 0, size
	}

	filter := gift.New(gift.Resize(w, h, gift.LanczosResampling))
	dst := image.NewNRGBA(filter.Bounds(b))
	filter.Draw(dst, img)
	return dst
}

func writeThumbnail(path string, img image.Image, size int) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Thumbnail(img, size)); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	return nil
}

// writeFileAtomic writes into a temp file next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".diamondgrid-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()        // nolint:errcheck
		os.Remove(tmpName) // nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) // nolint:errcheck
		return err
	}
	return os.Rename(tmpName, path)
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}

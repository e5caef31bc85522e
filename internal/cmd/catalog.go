package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/diamondgrid/internal/catalog"
	"github.com/MeKo-Tech/diamondgrid/internal/pipeline"
	"github.com/MeKo-Tech/diamondgrid/internal/rng"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect recorded renders and reproduce them",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded renders, newest first",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <seed>",
	Short: "Show the most recent render of a seed",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogShow,
}

var catalogReproduceCmd = &cobra.Command{
	Use:   "reproduce <seed>",
	Short: "Render a seed again with its recorded parameters",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogReproduce,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd, catalogShowCmd, catalogReproduceCmd)

	catalogCmd.PersistentFlags().String("db", "renders.db", "Catalog database path")
	catalogListCmd.Flags().Int("limit", 20, "Maximum number of renders to list (0 lists all)")

	if err := viper.BindPFlag("catalog.db", catalogCmd.PersistentFlags().Lookup("db")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
	if err := viper.BindPFlag("catalog.limit", catalogListCmd.Flags().Lookup("limit")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func openCatalog() (*catalog.Reader, error) {
	if logger == nil {
		initLogging()
	}
	return catalog.OpenReader(viper.GetString("catalog.db"))
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	r, err := openCatalog()
	if err != nil {
		return err
	}
	defer r.Close() // nolint:errcheck

	entries, err := r.List(viper.GetInt("catalog.limit"))
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s %-7s %-4s %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Seed, e.Noise, e.Format, e.Path)
	}
	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	r, err := openCatalog()
	if err != nil {
		return err
	}
	defer r.Close() // nolint:errcheck

	e, err := r.Lookup(args[0])
	if err != nil {
		return err
	}
	return printEntry(cmd.OutOrStdout(), e)
}

func printEntry(w io.Writer, e catalog.Entry) error {
	p := e.Params
	background := e.Background
	if background == "" {
		background = "transparent"
	}
	_, err := fmt.Fprintf(w, `seed:       %s
noise:      %s
size:       %dx%d
grid:       %dx%d
frequency:  %g
amplitude:  %g
palette:    %s
format:     %s
renderer:   %s
background: %s
path:       %s
created:    %s
`, e.Seed, e.Noise, p.Width, p.Height, p.Columns, p.Rows, p.NoiseFrequency, p.NoiseAmplitude,
		strings.Join(e.Palette, " "), e.Format, e.Renderer, background, e.Path, e.CreatedAt.Format("2006-01-02 15:04:05"))
	return err
}

// runCatalogReproduce renders a recorded seed into --output-dir using the
// recorded parameters instead of the current flags.
func runCatalogReproduce(cmd *cobra.Command, args []string) error {
	r, err := openCatalog()
	if err != nil {
		return err
	}
	e, err := r.Lookup(args[0])
	r.Close() // nolint:errcheck
	if err != nil {
		return err
	}

	base, err := imageOptions()
	if err != nil {
		return err
	}
	opts, err := reproduceOptions(base, e)
	if err != nil {
		return err
	}
	pals, err := loadPalettes()
	if err != nil {
		return err
	}

	pal, err := seedPalette(rng.Seed(e.Seed), opts.Noise, pals, opts.Params.PaletteSize)
	if err != nil {
		return err
	}
	if got := strings.Join(pal.Hex(), ","); got != strings.Join(e.Palette, ",") {
		logger.Warn("Palette differs from the recorded render; the palette source has changed",
			"seed", e.Seed, "recorded", strings.Join(e.Palette, ","), "now", got)
	}

	gen, err := pipeline.NewGenerator(opts, pals, logger)
	if err != nil {
		return err
	}

	path, err := gen.Generate(context.Background(), rng.Seed(e.Seed), true)
	if err != nil {
		return err
	}
	logger.Info("Reproduced render", "seed", e.Seed, "path", path)
	return nil
}

// reproduceOptions overrides everything that affects the output of e. Only
// the output directory and the recorder come from base.
func reproduceOptions(base pipeline.Options, e catalog.Entry) (pipeline.Options, error) {
	opts := base
	opts.Params = e.Params

	var err error
	if opts.Noise, err = rng.ParseNoiseKind(e.Noise); err != nil {
		return opts, err
	}
	if opts.Format, err = pipeline.ParseFormat(e.Format); err != nil {
		return opts, err
	}
	if opts.Renderer, err = pipeline.ParseBackend(e.Renderer); err != nil {
		return opts, err
	}
	if opts.Background, err = parseBackground(e.Background); err != nil {
		return opts, err
	}
	return opts, nil
}

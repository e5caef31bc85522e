package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/diamondgrid/internal/catalog"
	"github.com/MeKo-Tech/diamondgrid/internal/pipeline"
	"github.com/MeKo-Tech/diamondgrid/internal/rng"
	"github.com/MeKo-Tech/diamondgrid/internal/worker"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render diamond grid images",
	Long: `Render one image for --seed (a fresh seed when empty), or --count images with
fresh seeds in parallel. Files are named diamonds-<seed>.<format>.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("seed", "s", "", "Seed to render (default: a fresh random seed)")
	renderCmd.Flags().IntP("count", "n", 1, "Number of images to render with fresh seeds (ignored with --seed)")
	renderCmd.Flags().StringP("format", "f", "png", "Output format: png or svg")
	renderCmd.Flags().Int("thumbnail", 0, "Also write a PNG thumbnail with this longest edge (0 disables)")
	renderCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	renderCmd.Flags().Bool("progress", true, "Show progress bar during batch rendering")
	renderCmd.Flags().Bool("force", false, "Re-render even if the output file exists")
	renderCmd.Flags().String("catalog", "", "SQLite catalog to record renders in (disabled when empty)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"render.seed", "seed"},
		{"render.count", "count"},
		{"render.format", "format"},
		{"render.thumbnail", "thumbnail"},
		{"render.workers", "workers"},
		{"render.progress", "progress"},
		{"render.force", "force"},
		{"render.catalog", "catalog"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, renderCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	seedFlag := viper.GetString("render.seed")
	count := viper.GetInt("render.count")
	workers := viper.GetInt("render.workers")
	showProgress := viper.GetBool("render.progress")
	force := viper.GetBool("render.force")
	catalogPath := viper.GetString("render.catalog")

	opts, err := imageOptions()
	if err != nil {
		return err
	}
	if opts.Format, err = pipeline.ParseFormat(viper.GetString("render.format")); err != nil {
		return err
	}
	opts.ThumbSize = viper.GetInt("render.thumbnail")

	if count < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", count)
	}

	pals, err := loadPalettes()
	if err != nil {
		return err
	}

	if catalogPath != "" {
		cat, err := catalog.New(catalogPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := cat.Close(); err != nil {
				logger.Error("Failed to close catalog", "path", catalogPath, "error", err)
			}
		}()
		opts.Recorder = cat
	}

	gen, err := pipeline.NewGenerator(opts, pals, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if seedFlag != "" || count == 1 {
		seed := rng.ParseSeed(seedFlag)
		logger.Info("Rendering", "seed", seed, "size", fmt.Sprintf("%dx%d", opts.Params.Width, opts.Params.Height),
			"grid", fmt.Sprintf("%dx%d", opts.Params.Columns, opts.Params.Rows), "noise", opts.Noise)

		path, err := gen.Generate(ctx, seed, force)
		if err != nil {
			return fmt.Errorf("failed to render seed %s: %w", seed, err)
		}
		logger.Info("Render complete", "seed", seed, "path", path)
		return nil
	}

	return runBatchRender(ctx, gen, count, workers, showProgress, force)
}

func runBatchRender(ctx context.Context, gen worker.Generator, count, workers int, showProgress, force bool) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	tasks := worker.TasksForSeeds(worker.FreshSeeds(count), force)
	logger.Info("Starting batch render", "count", len(tasks), "workers", workers)

	progress := worker.NewProgress(len(tasks), showProgress)
	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  gen,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Error("Render failed", "seed", r.Task.Seed, "error", r.Err)
			continue
		}
		logger.Debug("Rendered", "seed", r.Task.Seed, "path", r.Path, "elapsed", r.Elapsed)
	}
	logger.Info(progress.Summary())

	if failed > 0 {
		return fmt.Errorf("%d of %d renders failed", failed, len(tasks))
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/diamondgrid/internal/catalog"
	"github.com/MeKo-Tech/diamondgrid/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve renders over HTTP, rendering missing seeds on demand",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("cache-dir", "", "Directory for cached renders (defaults to --output-dir)")
	serveCmd.Flags().Bool("disable-cache", false, "Always re-render (still writes to disk)")
	serveCmd.Flags().Int("max-concurrent-renders", runtime.NumCPU(), "Max concurrent renders (default: number of CPUs)")
	serveCmd.Flags().Duration("render-timeout", time.Minute, "Timeout per render")
	serveCmd.Flags().String("cache-control", "public, max-age=31536000, immutable", "Cache-Control header for served renders")
	serveCmd.Flags().String("catalog", "", "SQLite catalog to record renders in and serve under /catalog")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.cache_dir", "cache-dir")
	mustBind("serve.disable_cache", "disable-cache")
	mustBind("serve.max_concurrent_renders", "max-concurrent-renders")
	mustBind("serve.render_timeout", "render-timeout")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.catalog", "catalog")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	cacheDir := viper.GetString("serve.cache_dir")
	if cacheDir == "" {
		cacheDir = viper.GetString("output-dir")
	}
	maxConc := viper.GetInt("serve.max_concurrent_renders")
	catalogPath := viper.GetString("serve.catalog")

	opts, err := imageOptions()
	if err != nil {
		return err
	}
	pals, err := loadPalettes()
	if err != nil {
		return err
	}

	var catHandler *server.CatalogHandler
	if catalogPath != "" {
		w, err := catalog.New(catalogPath)
		if err != nil {
			return err
		}
		defer w.Close() // nolint:errcheck
		w.SetBatchSize(1)
		opts.Recorder = w

		catHandler, err = server.NewCatalogHandler(catalogPath, logger)
		if err != nil {
			return err
		}
		defer catHandler.Close() // nolint:errcheck
	}

	od, err := server.NewOnDemandRenders(opts, pals, server.OnDemandConfig{
		CacheDir:             cacheDir,
		CacheControl:         viper.GetString("serve.cache_control"),
		MaxConcurrentRenders: maxConc,
		RenderTimeout:        viper.GetDuration("serve.render_timeout"),
		DisableCache:         viper.GetBool("serve.disable_cache"),
	}, logger)
	if err != nil {
		return err
	}

	logger.Info("render server listening",
		"addr", addr,
		"cache_dir", cacheDir,
		"max_concurrent_renders", maxConc,
		"catalog", catalogPath,
	)

	srv := &http.Server{Addr: addr, Handler: server.NewRouter(od, catHandler), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

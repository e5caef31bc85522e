package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/diamondgrid/internal/palette"
	"github.com/MeKo-Tech/diamondgrid/internal/pipeline"
	"github.com/MeKo-Tech/diamondgrid/internal/rng"
)

// OnDemandConfig configures on-demand rendering.
type OnDemandConfig struct {
	CacheDir             string
	CacheControl         string
	MaxConcurrentRenders int
	// RenderTimeout is checked before the grid is built and again before it is
	// drawn. A draw that has started runs to completion.
	RenderTimeout time.Duration
	DisableCache  bool
}

// OnDemandRenders renders seeds on request and caches the files on disk.
type OnDemandRenders struct {
	base     pipeline.Options
	palettes []palette.Palette
	cfg      OnDemandConfig
	logger   *slog.Logger
	sem      chan struct{}
	locks    sync.Map
	gens     sync.Map

	activeRenders  atomic.Int32
	queuedRenders  atomic.Int32
	totalRendered  atomic.Int64
	totalFailed    atomic.Int64
	cacheHits      atomic.Int64
	currentRenders sync.Map // seed file name -> start time
}

// RenderStatus is the JSON body of the status endpoint.
type RenderStatus struct {
	ActiveRenders int      `json:"active_renders"`
	QueuedRenders int      `json:"queued_renders"`
	TotalRendered int64    `json:"total_rendered"`
	TotalFailed   int64    `json:"total_failed"`
	CacheHits     int64    `json:"cache_hits"`
	MaxConcurrent int      `json:"max_concurrent"`
	Current       []string `json:"current"`
}

var seedPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// NewOnDemandRenders prepares a renderer for base options. The output directory
// of base is replaced by cfg.CacheDir.
func NewOnDemandRenders(base pipeline.Options, palettes []palette.Palette, cfg OnDemandConfig, logger *slog.Logger) (*OnDemandRenders, error) {
	if cfg.CacheDir == "" {
		cfg.CacheDir = "./renders"
	}
	if cfg.MaxConcurrentRenders <= 0 {
		cfg.MaxConcurrentRenders = 1
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = time.Minute
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	base.OutputDir = cfg.CacheDir

	t := &OnDemandRenders{
		base:     base,
		palettes: palettes,
		cfg:      cfg,
		logger:   logger,
		sem:      make(chan struct{}, cfg.MaxConcurrentRenders),
	}

	// Fail at startup rather than on the first request.
	if _, err := t.getGenerator(base.Format); err != nil {
		return nil, err
	}
	return t, nil
}

// Status returns a snapshot of the render counters.
func (t *OnDemandRenders) Status() RenderStatus {
	current := []string{}
	t.currentRenders.Range(func(key, _ any) bool {
		current = append(current, key.(string))
		return true
	})
	sort.Strings(current)

	return RenderStatus{
		ActiveRenders: int(t.activeRenders.Load()),
		QueuedRenders: int(t.queuedRenders.Load()),
		TotalRendered: t.totalRendered.Load(),
		TotalFailed:   t.totalFailed.Load(),
		CacheHits:     t.cacheHits.Load(),
		MaxConcurrent: t.cfg.MaxConcurrentRenders,
		Current:       current,
	}
}

func (t *OnDemandRenders) serveStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	if err := json.NewEncoder(w).Encode(t.Status()); err != nil {
		t.log().Error("failed to encode status", "error", err)
	}
}

func (t *OnDemandRenders) serveRandom(w http.ResponseWriter, r *http.Request, format string) {
	f, err := pipeline.ParseFormat(format)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	target := fmt.Sprintf("/render/%s.%s", rng.NewSeed(), f)
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, target, http.StatusFound)
}

func (t *OnDemandRenders) serveRender(w http.ResponseWriter, r *http.Request, file string) {
	seed, format, ok := parseRenderFile(file)
	if !ok {
		http.NotFound(w, r)
		return
	}

	filename := pipeline.FileName(seed, format)
	fullPath := filepath.Join(t.cfg.CacheDir, filename)

	w.Header().Set("Cache-Control", t.cfg.CacheControl)

	if !t.cfg.DisableCache && fileExists(fullPath) {
		t.cacheHits.Add(1)
		http.ServeFile(w, r, fullPath)
		return
	}

	mu := t.getLock(filename)
	mu.Lock()
	defer mu.Unlock()

	// Another request may have rendered it while we waited for the lock.
	if !t.cfg.DisableCache && fileExists(fullPath) {
		t.cacheHits.Add(1)
		http.ServeFile(w, r, fullPath)
		return
	}

	t.queuedRenders.Add(1)
	select {
	case t.sem <- struct{}{}:
		t.queuedRenders.Add(-1)
		defer func() { <-t.sem }()
	case <-r.Context().Done():
		t.queuedRenders.Add(-1)
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}

	gen, err := t.getGenerator(format)
	if err != nil {
		t.log().Error("failed to init generator", "format", format, "error", err)
		http.Error(w, "failed to init generator", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.cfg.RenderTimeout)
	defer cancel()

	start := time.Now()
	t.activeRenders.Add(1)
	t.currentRenders.Store(filename, start)

	_, err = gen.Generate(ctx, seed, t.cfg.DisableCache)

	t.activeRenders.Add(-1)
	t.currentRenders.Delete(filename)

	if err != nil {
		t.totalFailed.Add(1)
		t.log().Error("failed to render", "seed", seed, "format", format, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		http.Error(w, fmt.Sprintf("failed to render seed %s: %v", seed, err), status)
		return
	}
	t.totalRendered.Add(1)
	t.log().Info("rendered on-demand", "seed", seed, "format", format, "ms", time.Since(start).Milliseconds())

	http.ServeFile(w, r, fullPath)
}

func (t *OnDemandRenders) getGenerator(format pipeline.Format) (*pipeline.Generator, error) {
	if v, ok := t.gens.Load(format); ok {
		return v.(*pipeline.Generator), nil
	}

	opts := t.base
	opts.Format = format
	g, err := pipeline.NewGenerator(opts, t.palettes, t.logger)
	if err != nil {
		return nil, err
	}

	actual, _ := t.gens.LoadOrStore(format, g)
	return actual.(*pipeline.Generator), nil
}

func (t *OnDemandRenders) getLock(key string) *sync.Mutex {
	if v, ok := t.locks.Load(key); ok {
		return v.(*sync.Mutex)
	}
	mu := &sync.Mutex{}
	actual, _ := t.locks.LoadOrStore(key, mu)
	return actual.(*sync.Mutex)
}

func (t *OnDemandRenders) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}

// parseRenderFile splits "42.png" into seed and format. Seeds are limited to
// a filename-safe alphabet.
func parseRenderFile(file string) (rng.Seed, pipeline.Format, bool) {
	i := strings.LastIndexByte(file, '.')
	if i <= 0 {
		return "", "", false
	}

	name, ext := file[:i], file[i+1:]
	if !seedPattern.MatchString(name) || ext == "" {
		return "", "", false
	}
	format, err := pipeline.ParseFormat(ext)
	if err != nil {
		return "", "", false
	}
	return rng.Seed(name), format, true
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	if err != nil {
		return false
	}
	return !st.IsDir()
}

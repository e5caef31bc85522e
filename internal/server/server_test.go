package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/diamondgrid/internal/catalog"
	"github.com/MeKo-Tech/diamondgrid/internal/palette"
	"github.com/MeKo-Tech/diamondgrid/internal/pipeline"
)

func testBase() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Params.Width = 96
	opts.Params.Height = 96
	return opts
}

func newTestServer(t *testing.T, base pipeline.Options, cfg OnDemandConfig, cat *CatalogHandler) (*OnDemandRenders, *httptest.Server) {
	t.Helper()
	pals, err := palette.Default()
	require.NoError(t, err)

	if cfg.CacheDir == "" {
		cfg.CacheDir = t.TempDir()
	}
	od, err := NewOnDemandRenders(base, pals, cfg, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(NewRouter(od, cat))
	t.Cleanup(ts.Close)
	return od, ts
}

func noRedirect(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	client := &http.Client{CheckRedirect: noRedirect, Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestParseRenderFile(t *testing.T) {
	tests := []struct {
		file       string
		ok         bool
		seed       string
		wantFormat pipeline.Format
	}{
		{file: "42.png", ok: true, seed: "42", wantFormat: pipeline.FormatPNG},
		{file: "abc_1-2.SVG", ok: true, seed: "abc_1-2", wantFormat: pipeline.FormatSVG},
		{file: "42.gif"},
		{file: "42"},
		{file: ".png"},
		{file: "42.png."},
		{file: "a.b.png"},
		{file: "..%2f.png"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			seed, format, ok := parseRenderFile(tt.file)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.seed, seed.String())
				assert.Equal(t, tt.wantFormat, format)
			}
		})
	}
}

func TestRenderAndCache(t *testing.T) {
	cacheDir := t.TempDir()
	od, ts := newTestServer(t, testBase(), OnDemandConfig{CacheDir: cacheDir, CacheControl: "max-age=60"}, nil)

	resp, body := get(t, ts.URL+"/render/42.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "max-age=60", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	onDisk, err := os.ReadFile(filepath.Join(cacheDir, "diamonds-42.png"))
	require.NoError(t, err)
	assert.Equal(t, onDisk, body)

	resp, again := get(t, ts.URL+"/render/42.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, body, again)

	st := od.Status()
	assert.Equal(t, int64(1), st.TotalRendered)
	assert.Equal(t, int64(1), st.CacheHits)
	assert.Zero(t, st.ActiveRenders)
}

func TestRenderSVG(t *testing.T) {
	_, ts := newTestServer(t, testBase(), OnDemandConfig{}, nil)

	resp, body := get(t, ts.URL+"/render/7.svg")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "image/svg+xml")
	assert.Equal(t, testBase().Params.DescriptorCount(), strings.Count(string(body), "<polygon"))
}

func TestRenderRejectsBadPaths(t *testing.T) {
	_, ts := newTestServer(t, testBase(), OnDemandConfig{}, nil)

	for _, p := range []string{"/render/42.gif", "/render/bad.seed.png", "/render/42", "/nothing"} {
		resp, _ := get(t, ts.URL+p)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
	}
}

func TestRenderConcurrentSameSeed(t *testing.T) {
	od, ts := newTestServer(t, testBase(), OnDemandConfig{MaxConcurrentRenders: 2}, nil)

	var wg sync.WaitGroup
	codes := make([]int, 6)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := http.Get(ts.URL + "/render/1234.png")
			if err != nil {
				return
			}
			resp.Body.Close()
			codes[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	for _, c := range codes {
		assert.Equal(t, http.StatusOK, c)
	}
	st := od.Status()
	assert.Equal(t, int64(1), st.TotalRendered, "one render per seed")
	assert.Equal(t, int64(5), st.CacheHits)
}

func TestDisableCacheRerenders(t *testing.T) {
	od, ts := newTestServer(t, testBase(), OnDemandConfig{DisableCache: true}, nil)

	get(t, ts.URL+"/render/5.png")
	get(t, ts.URL+"/render/5.png")

	st := od.Status()
	assert.Equal(t, int64(2), st.TotalRendered)
	assert.Zero(t, st.CacheHits)
}

func TestRandomRedirects(t *testing.T) {
	_, ts := newTestServer(t, testBase(), OnDemandConfig{}, nil)

	resp, _ := get(t, ts.URL+"/random.svg")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Regexp(t, regexp.MustCompile(`^/render/\d+\.svg$`), resp.Header.Get("Location"))

	resp, _ = get(t, ts.URL+"/")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/random.png", resp.Header.Get("Location"))

	resp, _ = get(t, ts.URL+"/random.bmp")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusAndHealth(t *testing.T) {
	_, ts := newTestServer(t, testBase(), OnDemandConfig{MaxConcurrentRenders: 3}, nil)

	get(t, ts.URL+"/render/11.png")

	resp, body := get(t, ts.URL+"/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var st RenderStatus
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, int64(1), st.TotalRendered)
	assert.Equal(t, 3, st.MaxConcurrent)
	assert.Empty(t, st.Current)

	resp, body = get(t, ts.URL+"/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t, testBase(), OnDemandConfig{}, nil)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, ts.URL+"/render/1.png", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "GET, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
}

func TestNewOnDemandRendersValidates(t *testing.T) {
	pals, err := palette.Default()
	require.NoError(t, err)

	base := testBase()
	base.Params.Rows = 1
	_, err = NewOnDemandRenders(base, pals, OnDemandConfig{CacheDir: t.TempDir()}, nil)
	require.Error(t, err)
}

func TestCatalogEndpoints(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "renders.db")

	w, err := catalog.New(dbPath)
	require.NoError(t, err)
	w.SetBatchSize(1)
	t.Cleanup(func() { w.Close() })

	cat, err := NewCatalogHandler(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	base := testBase()
	base.Recorder = w
	_, ts := newTestServer(t, base, OnDemandConfig{CacheDir: filepath.Join(dir, "cache")}, cat)

	resp, _ := get(t, ts.URL+"/render/77.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, ts.URL+"/catalog/77")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var e CatalogEntry
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "77", e.Seed)
	assert.Equal(t, "png", e.Format)
	assert.Equal(t, "vector", e.Renderer)
	assert.Empty(t, e.Background)
	assert.Equal(t, base.Params, e.Params)
	assert.Len(t, e.Palette, 5)

	resp, body = get(t, ts.URL+"/catalog?limit=10")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []CatalogEntry
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	resp, _ = get(t, ts.URL+"/catalog/78")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/catalog?limit=x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

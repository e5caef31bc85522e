package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/MeKo-Tech/diamondgrid/internal/catalog"
	"github.com/MeKo-Tech/diamondgrid/internal/diamond"
)

// CatalogHandler serves recorded renders from a catalog database as JSON.
type CatalogHandler struct {
	reader *catalog.Reader
	logger *slog.Logger
}

// CatalogEntry is the JSON form of a catalog row.
type CatalogEntry struct {
	Seed       string         `json:"seed"`
	Noise      string         `json:"noise"`
	Params     diamond.Params `json:"params"`
	Palette    []string       `json:"palette"`
	Format     string         `json:"format"`
	Renderer   string         `json:"renderer"`
	Background string         `json:"background,omitempty"`
	Path       string         `json:"path"`
	ThumbPath  string         `json:"thumb_path,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

// NewCatalogHandler opens the catalog at path for reading.
func NewCatalogHandler(path string, logger *slog.Logger) (*CatalogHandler, error) {
	reader, err := catalog.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return &CatalogHandler{reader: reader, logger: logger}, nil
}

func (h *CatalogHandler) serveList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.reader.List(limit)
	if err != nil {
		h.log().Error("Failed to list renders", "error", err)
		http.Error(w, "failed to list renders", http.StatusInternalServerError)
		return
	}

	out := make([]CatalogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, toCatalogEntry(e))
	}
	h.writeJSON(w, out)
}

func (h *CatalogHandler) serveLookup(w http.ResponseWriter, r *http.Request, seed string) {
	e, err := h.reader.Lookup(seed)
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, "render not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log().Error("Failed to look up render", "seed", seed, "error", err)
		http.Error(w, "failed to look up render", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, toCatalogEntry(e))
}

func (h *CatalogHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log().Error("Failed to write response", "error", err)
	}
}

// Close closes the catalog reader.
func (h *CatalogHandler) Close() error {
	return h.reader.Close()
}

func (h *CatalogHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func toCatalogEntry(e catalog.Entry) CatalogEntry {
	return CatalogEntry{
		Seed:       e.Seed,
		Noise:      e.Noise,
		Params:     e.Params,
		Palette:    e.Palette,
		Format:     e.Format,
		Renderer:   e.Renderer,
		Background: e.Background,
		Path:       e.Path,
		ThumbPath:  e.ThumbPath,
		CreatedAt:  e.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

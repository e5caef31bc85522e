// Package server exposes on-demand diamond renders over HTTP.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the render endpoints, plus the catalog endpoints when
// catalog is non-nil.
func NewRouter(renders *OnDemandRenders, catalog *CatalogHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withCORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/random.png", http.StatusFound)
	})

	r.Get("/status", renders.serveStatus)
	r.Get("/random.{format}", func(w http.ResponseWriter, r *http.Request) {
		renders.serveRandom(w, r, chi.URLParam(r, "format"))
	})
	r.Get("/render/{file}", func(w http.ResponseWriter, r *http.Request) {
		renders.serveRender(w, r, chi.URLParam(r, "file"))
	})

	if catalog != nil {
		r.Get("/catalog", catalog.serveList)
		r.Get("/catalog/{seed}", func(w http.ResponseWriter, r *http.Request) {
			catalog.serveLookup(w, r, chi.URLParam(r, "seed"))
		})
	}

	return r
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Package site serves the embedded standings page and the project readme.
package site

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Error constants.
var (
	ErrRender = errors.New("readme render failed")
)

// Register attaches the standings page and the readme root to mux. The
// standings page is embedded; the readme is read from the working directory
// and rendered once at startup, matching how the service is deployed (binary
// next to its README.md).
func Register(_ context.Context, mux *http.ServeMux, basePath string) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET "+basePath+"/leaderboard/index", handleIndex)

	readme := renderReadme()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(readme)
	})
}

// handleIndex serves the embedded standings page.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, siteFS, "index.html")
}

// renderReadme converts README.md to HTML. A missing or unreadable readme
// degrades to a minimal landing page rather than failing startup.
func renderReadme() []byte {
	src, err := os.ReadFile("README.md")
	if err != nil {
		return []byte("<!doctype html><title>leaderboard</title><p>leaderboard service</p>")
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return []byte("<!doctype html><title>leaderboard</title><p>leaderboard service</p>")
	}
	return buf.Bytes()
}

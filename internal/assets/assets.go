// Package assets serves the embedded management UI.
package assets

import (
	"embed"
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

//go:embed ui
var files embed.FS

const (
	// IndexPage is served for the UI root.
	IndexPage = "index.html"
	// NotFoundPage is served, with status 404, for unknown paths and for
	// short names that don't resolve.
	NotFoundPage = "404.html"
)

// Asset is an embedded file and its content type.
type Asset struct {
	Content     []byte
	ContentType string
}

// Get looks up an asset by its path relative to the UI root.
func Get(name string) (Asset, bool) {
	name = strings.TrimPrefix(name, "/")
	if name == "" || !fs.ValidPath(name) {
		return Asset{}, false
	}

	content, err := fs.ReadFile(files, path.Join("ui", name))
	if err != nil {
		return Asset{}, false
	}
	return Asset{Content: content, ContentType: contentType(name, content)}, true
}

func contentType(name string, content []byte) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(content)
}

// Serve writes the named asset, or the not-found page when it is missing.
// An empty name serves the index page.
func Serve(w http.ResponseWriter, r *http.Request, name string) error {
	if name == "" || strings.HasSuffix(name, "/") {
		name += IndexPage
	}
	asset, ok := Get(name)
	if !ok {
		return ServeNotFound(w, r)
	}
	write(w, http.StatusOK, asset)
	return nil
}

// ServeNotFound writes the not-found page with status 404. It has the
// signature of an httpx.HandlerFunc.
func ServeNotFound(w http.ResponseWriter, r *http.Request) error {
	const op = "assets.ServeNotFound"

	asset, ok := Get(NotFoundPage)
	if !ok {
		return errx.E(op, errx.NotFound, errors.New("fallback page "+NotFoundPage+" is not embedded"))
	}
	write(w, http.StatusNotFound, asset)
	return nil
}

func write(w http.ResponseWriter, status int, asset Asset) {
	h := w.Header()
	h.Set("Content-Type", asset.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(asset.Content)))
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(asset.Content)
}

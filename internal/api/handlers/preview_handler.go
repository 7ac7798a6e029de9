package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/luxequeer/deployer/internal/publish"
)

// PreviewHandler serves the site tree as it would be published.
type PreviewHandler struct {
	site billy.Filesystem
}

func NewPreviewHandler(site billy.Filesystem) *PreviewHandler {
	return &PreviewHandler{site: site}
}

// Serve answers GET /preview/*. Directories resolve to their index.html.
func (h *PreviewHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
	if name == "" {
		name = "index.html"
	}

	fi, err := h.site.Stat(name)
	if err == nil && fi.IsDir() {
		name = path.Join(name, "index.html")
		fi, err = h.site.Stat(name)
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data, err := util.ReadFile(h.site, name)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	modTime := time.Time{}
	if fi != nil {
		modTime = fi.ModTime()
	}
	w.Header().Set("Content-Type", publish.ContentType(name, data))
	http.ServeContent(w, r, name, modTime, bytes.NewReader(data))
}

package rest

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/frahmantamala/pisda/internal/transport"
)

// spaHandler serves the built web client. Paths that do not name a file fall
// back to index.html so that client-side routes survive a reload.
type spaHandler struct {
	*transport.BaseHandler
	dir string
}

func newSPAHandler(dir string) *spaHandler {
	return &spaHandler{BaseHandler: transport.NewBaseHandler(nil), dir: dir}
}

func (s *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	full := filepath.Join(s.dir, filepath.FromSlash(clean))
	if info, err := os.Stat(full); err == nil && !info.IsDir() {
		http.ServeFile(w, r, full)
		return
	}

	index := filepath.Join(s.dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		s.WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, index)
}

// storageHandler serves uploaded files. Directory listings are not exposed.
func storageHandler(prefix, dir string) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func apiNotFound(base *transport.BaseHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base.WriteJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": "API endpoint not found",
			"path":  r.URL.Path,
		})
	}
}

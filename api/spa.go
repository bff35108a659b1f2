package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SPA serves the built frontend bundle from dir. Paths that do not match
// a real file fall back to index.html so client-side routing works.
// API paths never reach this handler through the router, but a 404 guard
// is kept so a stray match cannot leak index.html as an API answer.
func SPA(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		name := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		info, err := os.Stat(name)
		if err != nil || info.IsDir() {
			http.ServeFile(w, r, index)
			return
		}

		fileServer.ServeHTTP(w, r)
	})
}

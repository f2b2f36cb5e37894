package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/visra-dev/visrabackend/media"
)

// AssetServer serves stored binaries (originals, thumbnails, query images,
// export artifacts) through the media store's path guard.
// example usage in main.go:
//
//	r.Get("/media/*", handlers.AssetServer(store))
//
// where the request path after /api/media/ is the store-relative asset path.
func AssetServer(store media.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relativePath := strings.TrimPrefix(r.URL.Path, "/api/media/")
		if relativePath == "" || strings.Contains(relativePath, "..") {
			http.Error(w, "Invalid asset path", http.StatusBadRequest)
			return
		}

		fullPath, err := store.GetFullPath(relativePath)
		if err != nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		cacheDuration := 24 * time.Hour
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheDuration.Seconds())))
		w.Header().Set("Expires", time.Now().Add(cacheDuration).Format(http.TimeFormat))

		http.ServeFile(w, r, fullPath)
	}
}

package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/webapp/internal/storage"
	"go.uber.org/zap"
)

// ImageReader opens stored images.
type ImageReader interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// UploadsRouter serves stored recipe images under /uploads/*.
func UploadsRouter(r chi.Router, images ImageReader, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(chi.URLParam(r, "*"))
		if name == "" || strings.Contains(name, "..") {
			http.NotFound(w, r)
			return
		}
		key := storage.ImagePrefix + name

		obj, err := images.Get(r.Context(), key)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				http.NotFound(w, r)
				return
			}
			logger.Error("failed to open image", zap.String("object_key", key), zap.Error(err))
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
			return
		}
		defer obj.Close()

		w.Header().Set("Content-Type", storage.ImageContentType(key))
		w.Header().Set("Cache-Control", storage.ImageCacheControl)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if _, err := io.Copy(w, obj); err != nil {
			logger.Warn("failed to stream image", zap.String("object_key", key), zap.Error(err))
		}
	})
}

package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	// ImagePrefix is the key prefix under which recipe images are stored.
	ImagePrefix = "uploads/"

	// ImageCacheControl is set on stored images. Keys are never reused.
	ImageCacheControl = "public, max-age=86400, immutable"
)

var allowedImageExtensions = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

// AllowedImage reports whether filename has an accepted image extension
// (png, jpg, jpeg or gif, any case).
func AllowedImage(filename string) bool {
	_, ok := allowedImageExtensions[extension(filename)]
	return ok
}

// ImageContentType returns the MIME type for an accepted image filename or key.
func ImageContentType(filename string) string {
	if contentType, ok := allowedImageExtensions[extension(filename)]; ok {
		return contentType
	}
	return "application/octet-stream"
}

// NewImageKey returns a fresh object key for an uploaded image. The random
// prefix keeps two uploads with the same filename from overwriting each other.
func NewImageKey(filename string) string {
	return ImagePrefix + uuid.NewString() + "-" + SanitizeFilename(filename)
}

// SanitizeFilename reduces a client-supplied filename to a safe base name made
// of ASCII letters, digits, dots, dashes and underscores.
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune('_')
		}
	}

	name := strings.TrimLeft(b.String(), "._")
	if name == "" {
		return "image"
	}
	return name
}

func extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

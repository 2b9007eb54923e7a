// backend/internal/adapters/out/gcs/helper_repository_gcs.go
package gcs

import (
	"strings"
)

// sanitizePathSegment makes s safe as one object path segment.
func sanitizePathSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return strings.Trim(s, ". ")
}

// extensionByMIME returns the file extension of an accepted image type, or "".
func extensionByMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ""
}

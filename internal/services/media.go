package services

import (
	"mime"
	"path/filepath"
	"strings"
)

const MediaTypePDF = "application/pdf"

var extensionMediaTypes = map[string]string{
	".pdf":  MediaTypePDF,
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".heic": "image/heic",
}

// ResolveMediaType returns the declared media type, or one inferred from the
// filename extension when the client declared nothing useful.
func ResolveMediaType(filename, declared string) string {
	normalized := NormalizeMediaType(declared)
	if normalized != "" && normalized != "application/octet-stream" {
		return normalized
	}
	if mt, ok := extensionMediaTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mt
	}
	return normalized
}

// NormalizeMediaType lowercases a media type and drops its parameters.
func NormalizeMediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	return strings.ToLower(contentType)
}

func IsSupportedMediaType(mediaType string) bool {
	return mediaType == MediaTypePDF || (strings.HasPrefix(mediaType, "image/") && len(mediaType) > len("image/"))
}

package media

import (
	"fmt"
	"path/filepath"
	"strings"
)

// videoTypes is the full set of formats the relay accepts. Anything outside
// this table is rejected; there is no octet-stream or mp4 fallback.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".m4v":  "video/x-m4v",
}

// UnsupportedFormatError names the extension that failed resolution.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return "unsupported video format: file has no extension"
	}
	return fmt.Sprintf("unsupported video format: %s", e.Ext)
}

// ResolveContentType maps a filename's extension (case-insensitive) to its
// canonical video content type.
func ResolveContentType(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := videoTypes[ext]
	if !ok {
		return "", &UnsupportedFormatError{Ext: ext}
	}
	return contentType, nil
}

// IsVideoType reports whether a client-declared content type already
// identifies a video. Declared video types are trusted verbatim.
func IsVideoType(contentType string) bool {
	return strings.HasPrefix(contentType, "video/")
}

// Package mimex maps file extensions to MIME content types for object-store
// uploads and downloads. Unknown extensions fall back to a coarse hint
// (image/video/audio) and finally to application/octet-stream.
package mimex

import (
	"path/filepath"
	"strings"
)

const DefaultType = "application/octet-stream"

var byExtension = map[string]string{
	// text and code
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".csv":  "text/csv",
	".js":   "text/javascript",
	".ts":   "text/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".go":   "text/plain",
	".py":   "text/plain",
	".sh":   "text/plain",

	// images
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",

	// documents
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",

	// archives
	".zip": "application/zip",
	".tar": "application/x-tar",
	".gz":  "application/gzip",
	".7z":  "application/x-7z-compressed",
	".rar": "application/vnd.rar",

	// audio / video
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
}

// byHint provides a coarse fallback when the extension is unknown but the
// caller knows the containing folder's media category.
var byHint = map[string]string{
	"image": "image/*",
	"video": "video/*",
	"audio": "audio/*",
}

// TypeByName returns the MIME type for the given file name.
func TypeByName(name string) string {
	return TypeByNameWithHint(name, "")
}

// TypeByNameWithHint resolves the MIME type for name, consulting hint
// (image/video/audio) when the extension is unrecognized.
func TypeByNameWithHint(name, hint string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := byExtension[ext]; ok {
		return ct
	}
	if ct, ok := byHint[strings.ToLower(hint)]; ok {
		return ct
	}
	return DefaultType
}

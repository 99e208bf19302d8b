package constants

import "strings"

// Format describes the decoded source type of an input document.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// Input bounds. Documents outside these limits are rejected before any
// pipeline stage runs.
const (
	MinDimensionPx = 100
	MaxDimensionPx = 10000
	MaxImageBytes  = 10 << 20 // 10MB
	MaxPDFBytes    = 50 << 20 // 50MB
	MaxPDFPages    = 50
)

// imageExts holds the accepted raster extensions.
var imageExts = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"tif":  {},
	"tiff": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to its format, or "" when the
// extension is not supported.
func MapExtToFormat(ext string) string {
	if ext == "pdf" {
		return PDF
	}
	if _, ok := imageExts[ext]; ok {
		return IMAGE
	}
	return ""
}

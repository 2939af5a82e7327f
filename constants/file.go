package constants

import (
	"bytes"
	"strings"
)

// Document formats understood by the extraction pipeline.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// AllowedExtensions holds the file extensions accepted for extraction.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

var (
	magicPDF  = []byte{0x25, 0x50, 0x44, 0x46} // %PDF
	magicPNG  = []byte{0x89, 0x50, 0x4E, 0x47}
	magicJPEG = []byte{0xFF, 0xD8, 0xFF}
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to PDF or IMAGE. Unknown extensions map to "".
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png":
		return IMAGE
	default:
		return ""
	}
}

// SniffFormat inspects the leading bytes of a file. Returns "" when no known signature matches.
func SniffFormat(head []byte) string {
	switch {
	case bytes.HasPrefix(head, magicPDF):
		return PDF
	case bytes.HasPrefix(head, magicPNG), bytes.HasPrefix(head, magicJPEG):
		return IMAGE
	default:
		return ""
	}
}

// DetectFormat prefers the magic number over the extension when they disagree.
func DetectFormat(ext string, head []byte) string {
	if f := SniffFormat(head); f != "" {
		return f
	}
	return MapExtToFormat(ext)
}

package constants

import "strings"

// FileFormat is the coarse input class that picks an extraction strategy.
type FileFormat string

const (
	PDF   FileFormat = "PDF"
	IMAGE FileFormat = "IMAGE"
	TEXT  FileFormat = "TEXT"
)

// imageExts are the image extensions we accept for OCR. HEIC and HEIF go
// through a PNG conversion step before tesseract sees them.
var imageExts = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"heic": {},
	"heif": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to its extraction format.
// Returns "" for anything we do not support. The match is purely
// extension-based; no magic-byte sniffing.
func MapExtToFormat(ext string) FileFormat {
	switch e := NormalizeExt(ext); {
	case e == "pdf":
		return PDF
	case e == "txt":
		return TEXT
	default:
		if _, ok := imageExts[NormalizeExt(ext)]; ok {
			return IMAGE
		}
		return ""
	}
}

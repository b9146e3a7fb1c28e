package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/UVARAJAND/Receipt-Analyzer/constants"
)

func isHEIC(path string) bool {
	switch constants.NormalizeExt(filepath.Ext(path)) {
	case "heic", "heif":
		return true
	}
	return false
}

// convertHEICToPNG renders a HEIC/HEIF file to a temporary PNG and returns
// its path plus a cleanup func. The caller always runs cleanup, even on error.
func (e *Extractor) convertHEICToPNG(ctx context.Context, in string) (string, func(), error) {
	cleanup := func() {}
	if e.cfg.HeicConverter == "" {
		return "", cleanup, fmt.Errorf("HEIC input needs a converter: set OCR_HEIC_CONVERTER to heif-convert, magick or sips")
	}

	tmpDir, err := os.MkdirTemp("", "ra-heic-*")
	if err != nil {
		return "", cleanup, err
	}
	cleanup = func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	var args []string
	switch e.cfg.HeicConverter {
	case "heif-convert", "magick":
		args = []string{in, out}
	case "sips":
		args = []string{"-s", "format", "png", in, "--out", out}
	default:
		return "", cleanup, fmt.Errorf("unknown HEIC converter %q", e.cfg.HeicConverter)
	}

	if _, errb, err := e.runner.Run(ctx, e.cfg.HeicConverter, args...); err != nil {
		return "", cleanup, fmt.Errorf("%s: %w (%s)", e.cfg.HeicConverter, err, errb)
	}
	if _, err := os.Stat(out); err != nil {
		return "", cleanup, fmt.Errorf("HEIC conversion produced no output: %v", err)
	}
	return out, cleanup, nil
}

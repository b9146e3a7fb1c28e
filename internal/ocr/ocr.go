package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/UVARAJAND/Receipt-Analyzer/internal/common"
	"github.com/UVARAJAND/Receipt-Analyzer/constants"
)

// MinPDFTextLenDefault is the plausibility threshold for a PDF's native text
// layer. Anything shorter is treated as a scanned PDF and routed through OCR.
// A genuine text layer shorter than this will trigger a needless OCR pass;
// the value is a tunable, not a correctness guarantee.
const MinPDFTextLenDefault = 10

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit
	MinPDFTextLen int    // default MinPDFTextLenDefault

	// HeicConverter names the binary used to turn HEIC/HEIF input into PNG:
	// one of "heif-convert", "magick" or "sips". Empty disables HEIC input.
	HeicConverter string
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType constants.FileFormat
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr" | "plain-text"
	Language   string
	Duration   time.Duration
	Warnings   []string
}

// Extractor turns an input file into text. Construct one at process start
// and reuse it; per-call construction wastes nothing here but callers should
// still treat it as process-wide state so the exec Runner can be shared.
type Extractor struct {
	cfg       Config
	runner    Runner
	textLayer func(path string) (string, int, error)
	logger    *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinPDFTextLen <= 0 {
		cfg.MinPDFTextLen = MinPDFTextLenDefault
	}
	return &Extractor{cfg: cfg, runner: execRunner{log: logger}, textLayer: pdfTextLayer, logger: logger}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting text extraction", "path", path, "ext", ext)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.TEXT:
		res, err := e.extractPlainText(path)
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Error("unsupported extension", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("%w: %q", common.ErrUnsupportedType, ext)
	}
}

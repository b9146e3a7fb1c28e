package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UVARAJAND/Receipt-Analyzer/constants"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/llm"
	"github.com/UVARAJAND/Receipt-Analyzer/internal/ocr"
)

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// Record is the structured result of one processed upload.
// RawText mirrors Description on purpose: API consumers read raw_text for
// the model-produced summary, so both fields carry the same value.
type Record struct {
	VendorName  string  `json:"vendor_name"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	RawText     string  `json:"raw_text"`
}

// Processor composes text extraction, model field extraction, and amount
// sanitization into one synchronous call. Any stage failure propagates;
// there is no partial recovery.
type Processor struct {
	text   TextExtractor
	fields llm.FieldExtractor
	logger *slog.Logger
}

func NewProcessor(text TextExtractor, fields llm.FieldExtractor, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{text: text, fields: fields, logger: logger}
}

// Process runs the full pipeline for one file on disk.
func (p *Processor) Process(ctx context.Context, path string) (Record, error) {
	start := time.Now()

	res, err := p.text.Extract(ctx, path)
	if err != nil {
		p.logger.Error("processor.extract.failed", "path", path, "error", err)
		return Record{}, fmt.Errorf("extract text: %w", err)
	}
	p.logger.Info("processor.extract.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
	)

	fields, err := p.fields.ExtractFields(ctx, res.Text)
	if err != nil {
		p.logger.Error("processor.parse.failed", "path", path, "error", err)
		return Record{}, fmt.Errorf("extract fields: %w", err)
	}
	if fields.Category != "" && !constants.IsKnown(fields.Category) {
		// stored verbatim anyway; the vocabulary is an intent, not a constraint
		p.logger.Warn("processor.parse.category_off_vocabulary", "category", fields.Category)
	}

	rec := Record{
		VendorName:  fields.Vendor,
		Date:        fields.Date,
		Amount:      llm.SanitizeAmount(fields.Amount),
		Category:    constants.Canonicalize(fields.Category),
		Description: fields.Description,
		RawText:     fields.Description,
	}
	p.logger.Info("processor.ok",
		"path", path,
		"vendor", rec.VendorName,
		"amount", rec.Amount,
		"category", rec.Category,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

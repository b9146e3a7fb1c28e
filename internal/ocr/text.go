package ocr

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/UVARAJAND/Receipt-Analyzer/constants"
)

// extractPlainText decodes a .txt upload as UTF-8.
func (e *Extractor) extractPlainText(path string) (ExtractionResult, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ExtractionResult{SourceType: constants.TEXT}, fmt.Errorf("read text file: %w", err)
	}
	if !utf8.Valid(b) {
		return ExtractionResult{SourceType: constants.TEXT}, fmt.Errorf("text file is not valid UTF-8")
	}
	return ExtractionResult{
		Text:       string(b),
		Pages:      1,
		SourceType: constants.TEXT,
		Method:     "plain-text",
	}, nil
}

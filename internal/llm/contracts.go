package llm

import "context"

// ReceiptFields is the normalized shape we want from the model. All values
// arrive as strings; Amount is sanitized into a number by the pipeline.
type ReceiptFields struct {
	Vendor      string `json:"vendor"`
	Date        string `json:"date"` // YYYY-MM-DD preferred, free text tolerated
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// FieldExtractor is the interface the pipeline depends on.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) (ReceiptFields, error)
}

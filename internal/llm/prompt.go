package llm

import (
	"strings"

	"github.com/UVARAJAND/Receipt-Analyzer/constants"
)

// taggedTemplate asks for the five fields in a strict delimited-tag format.
// {text} is replaced with the raw extracted text. This is the compatibility
// path for endpoints without structured output support.
const taggedTemplate = `You will be given OCR text from a receipt or invoice.
Extract the following fields from the text:
- Vendor Name
- Date
- Total Amount
- Category ({categories})
- Description (a short summary including important details)

Return the output strictly in this format:
<vendor>...</vendor>
<date>...</date>
<amount>...</amount>
<category>...</category>
<description>...</description>

Text:
{text}`

// BuildTaggedPrompt substitutes the raw text into the tagged template.
func BuildTaggedPrompt(text string) string {
	p := strings.ReplaceAll(taggedTemplate, "{categories}", strings.ToLower(strings.Join(constants.AsStringSlice(), ", ")))
	return strings.ReplaceAll(p, "{text}", text)
}

// BuildStructuredSystemPrompt composes the system message for the JSON path.
func BuildStructuredSystemPrompt() string {
	parts := []string{
		"You are a receipts parser. Return ONLY JSON that matches the provided JSON Schema.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"'amount' is the total amount as printed, currency symbols allowed.",
		"'category' MUST be exactly one of: " + strings.Join(constants.AsStringSlice(), ", ") + ". If uncertain, choose 'Other'.",
		"'description' is a short summary including important details.",
		"Never output null. If a field is not present, use an empty string.",
	}
	return strings.Join(parts, " ")
}

// BuildStructuredUserPrompt packages the extracted text, capped so a noisy
// multi-page OCR run cannot blow up the request.
func BuildStructuredUserPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Extracted text (first ~3k chars):\n")
	if len(text) > 3000 {
		b.WriteString(text[:3000])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}

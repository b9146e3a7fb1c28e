package llm

import (
	"strconv"
	"strings"
	"time"
)

// SanitizeAmount strips everything but decimal digits and '.' from a raw
// amount string and parses the remainder as a float. Any parse failure
// (empty input, multiple decimal points, no digits) yields 0.0 rather than
// an error. The stripping is lossy: "$12.34 x2" becomes 12.342.
func SanitizeAmount(raw string) float64 {
	if raw == "" {
		return 0.0
	}
	var b strings.Builder
	for _, c := range raw {
		if (c >= '0' && c <= '9') || c == '.' {
			b.WriteRune(c)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0.0
	}
	return v
}

// txDateLayouts are tried in order when parsing the extracted date string.
var txDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseTxDate parses the receipt's transaction date, defaulting to the
// current UTC time when the string is absent or unparseable. Parsed dates
// are normalized to midnight UTC to match DATE semantics.
func ParseTxDate(raw string) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Now().UTC()
	}
	for _, layout := range txDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Now().UTC()
}

package constants

import (
	"strings"
)

type Category string

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Utilities     Category = "Utilities"
	Entertainment Category = "Entertainment"
	Shopping      Category = "Shopping"
	Health        Category = "Health"
	Other         Category = "Other"
)

var allCategories = []Category{
	Food,
	Transport,
	Utilities,
	Entertainment,
	Shopping,
	Health,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// IsKnown reports whether a label matches the category vocabulary
// (case-insensitive). The storage layer never enforces the vocabulary;
// callers use this to flag off-vocabulary labels in logs.
func IsKnown(label string) bool {
	_, ok := match(label)
	return ok
}

// Canonicalize returns the vocabulary spelling for a known label
// ("food" -> "Food") and the input unchanged otherwise. Off-vocabulary
// labels are stored as-is, never rejected.
func Canonicalize(label string) string {
	if cat, ok := match(label); ok {
		return string(cat)
	}
	return label
}

func match(label string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}
	return "", false
}

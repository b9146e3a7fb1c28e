package entity

import (
	"time"
)

// Document represents a processed receipt/invoice for data transfer between
// layers. CreatedAt holds the receipt's transaction date, not the upload
// time.
type Document struct {
	ID        int64     `json:"id"`
	Vendor    string    `json:"vendor"`
	Data      string    `json:"data"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentFilter is an ephemeral query object. Nil fields are ignored;
// present fields combine with logical AND.
type DocumentFilter struct {
	Vendor    string
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	MinAmount *float64
	MaxAmount *float64
}

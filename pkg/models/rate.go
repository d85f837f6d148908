package models

import "time"

// CurrentRate is the latest known rate snapshot for a product, one-to-one
// keyed by product id and overwritten in place on every re-ingestion.
type CurrentRate struct {
	ProductID     string    `json:"product_id" db:"product_id"`
	Value         *float64  `json:"value,omitempty" db:"rate_value"`
	OriginalText  *string   `json:"original_text,omitempty" db:"original_text"`
	Min           *float64  `json:"min,omitempty" db:"rate_min"`
	Max           *float64  `json:"max,omitempty" db:"rate_max"`
	IsRange       bool      `json:"is_range" db:"is_range"`
	EffectiveDate time.Time `json:"effective_date" db:"effective_date"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// UpsertCurrentRate is the payload for the current-rate upsert.
type UpsertCurrentRate struct {
	Value         *float64
	OriginalText  *string
	Min           *float64
	Max           *float64
	IsRange       bool
	EffectiveDate time.Time
}

// RateHistoryEntry is one append-only rate observation. Ingestion never
// rewrites or removes rows in this log.
type RateHistoryEntry struct {
	ID             string    `json:"id" db:"id"`
	ProductID      string    `json:"product_id" db:"product_id"`
	Value          *float64  `json:"value,omitempty" db:"rate_value"`
	ExtractionDate time.Time `json:"extraction_date" db:"extraction_date"`
	ExtractionTime string    `json:"extraction_time" db:"extraction_time"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// AppendRateHistory is the payload for a history insert.
type AppendRateHistory struct {
	ProductID      string
	Value          *float64
	ExtractionDate time.Time
	ExtractionTime string
}

// RateHistoryResponse is the API response for a product's rate history.
type RateHistoryResponse struct {
	ProductID string             `json:"product_id"`
	Items     []RateHistoryEntry `json:"items"`
}

// AmountTerms bounds the loan amount and term for a product, one-to-one
// keyed by product id.
type AmountTerms struct {
	ProductID     string    `json:"product_id" db:"product_id"`
	MinAmount     *float64  `json:"min_amount,omitempty" db:"min_amount"`
	MaxAmount     *float64  `json:"max_amount,omitempty" db:"max_amount"`
	MinTermMonths *int      `json:"min_term_months,omitempty" db:"min_term_months"`
	MaxTermMonths *int      `json:"max_term_months,omitempty" db:"max_term_months"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// UpsertAmountTerms merges non-nil fields into the product's bounds row,
// creating it when absent.
type UpsertAmountTerms struct {
	MinAmount     *float64
	MaxAmount     *float64
	MinTermMonths *int
	MaxTermMonths *int
}

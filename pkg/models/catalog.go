package models

import "time"

// CatalogItem is one row of reference data (credit type, housing type,
// denomination, rate type or payment type). Seeded by migration; read-only at
// runtime.
type CatalogItem struct {
	ID        string    `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FinancialEntity is a bank or lender. Created lazily the first time a new
// normalized name is seen; deactivated rather than deleted.
type FinancialEntity struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	NormalizedName string    `json:"normalized_name" db:"normalized_name"`
	LogoURL        *string   `json:"logo_url,omitempty" db:"logo_url"`
	WebsiteURL     *string   `json:"website_url,omitempty" db:"website_url"`
	Active         bool      `json:"active" db:"active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// CatalogListResponse is the API response for catalog listings.
type CatalogListResponse struct {
	Items []CatalogItem `json:"items"`
}

// EntityListResponse is the API response for financial entity listings.
type EntityListResponse struct {
	Items []FinancialEntity `json:"items"`
}

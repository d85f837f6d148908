package models

import "time"

// CreditProduct is the product aggregate root. Upsert identity is
// ExternalKey (the stable id generated by the scraper), never ID.
type CreditProduct struct {
	ID             string    `json:"id" db:"id"`
	ExternalKey    string    `json:"external_key" db:"external_key"`
	EntityID       string    `json:"entity_id" db:"entity_id"`
	CreditTypeID   string    `json:"credit_type_id" db:"credit_type_id"`
	HousingTypeID  string    `json:"housing_type_id" db:"housing_type_id"`
	DenominationID string    `json:"denomination_id" db:"denomination_id"`
	RateTypeID     string    `json:"rate_type_id" db:"rate_type_id"`
	PaymentTypeID  *string   `json:"payment_type_id,omitempty" db:"payment_type_id"`
	Description    string    `json:"description" db:"description"`
	SourceURL      string    `json:"source_url" db:"source_url"`
	RedirectURL    string    `json:"redirect_url" db:"redirect_url"`
	PDFURL         *string   `json:"pdf_url,omitempty" db:"pdf_url"`
	ExtractionDate time.Time `json:"extraction_date" db:"extraction_date"`
	ExtractionTime string    `json:"extraction_time" db:"extraction_time"`
	Active         bool      `json:"active" db:"active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// CreateCreditProduct carries every field set on first ingestion. Catalog and
// entity associations are immutable after creation.
type CreateCreditProduct struct {
	ExternalKey    string
	EntityID       string
	CreditTypeID   string
	HousingTypeID  string
	DenominationID string
	RateTypeID     string
	PaymentTypeID  *string
	Description    string
	SourceURL      string
	RedirectURL    string
	PDFURL         *string
	ExtractionDate time.Time
	ExtractionTime string
}

// UpdateCreditProduct carries the fields re-ingestion may touch. Catalog and
// entity references are deliberately absent.
type UpdateCreditProduct struct {
	Description    string
	SourceURL      string
	RedirectURL    string
	PDFURL         *string
	ExtractionDate time.Time
	ExtractionTime string
}

// ProductFilter narrows the comparison listing.
type ProductFilter struct {
	EntityID         string
	CreditTypeCode   string
	HousingTypeCode  string
	DenominationCode string
}

// ProductSummary is one row of the comparison listing, with catalog names
// joined in for display.
type ProductSummary struct {
	ID               string    `json:"id" db:"id"`
	ExternalKey      string    `json:"external_key" db:"external_key"`
	EntityName       string    `json:"entity_name" db:"entity_name"`
	CreditTypeName   string    `json:"credit_type_name" db:"credit_type_name"`
	HousingTypeName  string    `json:"housing_type_name" db:"housing_type_name"`
	DenominationName string    `json:"denomination_name" db:"denomination_name"`
	Description      string    `json:"description" db:"description"`
	RateValue        *float64  `json:"rate_value,omitempty" db:"rate_value"`
	IsRange          *bool     `json:"is_range,omitempty" db:"is_range"`
	MaxAmount        *float64  `json:"max_amount,omitempty" db:"max_amount"`
	ExtractionDate   time.Time `json:"extraction_date" db:"extraction_date"`
}

// ProductListResponse is the API response for the paginated listing.
type ProductListResponse struct {
	Items      []ProductSummary `json:"items"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

// ProductDetail joins the product with its catalogs and child collections for
// the product page.
type ProductDetail struct {
	CreditProduct
	EntityName       string        `json:"entity_name" db:"entity_name"`
	CreditTypeName   string        `json:"credit_type_name" db:"credit_type_name"`
	HousingTypeName  string        `json:"housing_type_name" db:"housing_type_name"`
	DenominationName string        `json:"denomination_name" db:"denomination_name"`
	RateTypeName     string        `json:"rate_type_name" db:"rate_type_name"`
	PaymentTypeName  *string       `json:"payment_type_name,omitempty" db:"payment_type_name"`
	CurrentRate      *CurrentRate  `json:"current_rate,omitempty" db:"-"`
	AmountTerms      *AmountTerms  `json:"amount_terms,omitempty" db:"-"`
	Conditions       []Condition   `json:"conditions" db:"-"`
	Requirements     []Requirement `json:"requirements" db:"-"`
	Benefits         []Benefit     `json:"benefits" db:"-"`
}

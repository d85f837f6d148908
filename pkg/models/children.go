package models

import "time"

// Benefit categories produced by the ingestion pipeline.
const (
	BenefitPayrollDiscount = "descuento_nomina"
	BenefitAppraisal       = "avaluo"
)

// RequirementCategoryGeneral tags requirements whose source data does not
// distinguish a more specific category.
const RequirementCategoryGeneral = "general"

// Condition is one display-ordered condition line. The full list is replaced
// on every ingestion.
type Condition struct {
	ID        string    `json:"id" db:"id"`
	ProductID string    `json:"product_id" db:"product_id"`
	Text      string    `json:"text" db:"condition_text"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewCondition is the replace-all input item for conditions.
type NewCondition struct {
	Text     string
	Position int
}

// Requirement is one display-ordered requirement line.
type Requirement struct {
	ID        string    `json:"id" db:"id"`
	ProductID string    `json:"product_id" db:"product_id"`
	Text      string    `json:"text" db:"requirement_text"`
	Category  string    `json:"category" db:"category"`
	Mandatory bool      `json:"mandatory" db:"mandatory"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewRequirement is the replace-all input item for requirements.
type NewRequirement struct {
	Text      string
	Category  string
	Mandatory bool
	Position  int
}

// Benefit is one product benefit (payroll discount, appraisal, ...).
type Benefit struct {
	ID          string    `json:"id" db:"id"`
	ProductID   string    `json:"product_id" db:"product_id"`
	Category    string    `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	Value       *string   `json:"value,omitempty" db:"benefit_value"`
	AppliesWhen *string   `json:"applies_when,omitempty" db:"applies_when"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewBenefit is the replace-all input item for benefits.
type NewBenefit struct {
	Category    string
	Description string
	Value       *string
	AppliesWhen *string
}

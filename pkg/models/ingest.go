package models

import "time"

// IngestRecord is the wire payload posted by the scraping workflow. Field
// names stay in Spanish to match what the scraper emits.
type IngestRecord struct {
	ExternalKey     string  `json:"id_unico" validate:"required,min=5,max=255"`
	Bank            string  `json:"banco" validate:"required,max=255"`
	CreditType      string  `json:"tipo_credito" validate:"required,max=100"`
	HousingType     string  `json:"tipo_vivienda" validate:"required,max=100"`
	Denomination    string  `json:"denominacion" validate:"required,max=50"`
	RateType        *string `json:"tipo_tasa,omitempty" validate:"omitempty,max=100"`
	Rate            string  `json:"tasa" validate:"omitempty,max=100"`
	RateMin         *string `json:"tasa_minima,omitempty" validate:"omitempty,max=100"`
	RateMax         *string `json:"tasa_maxima,omitempty" validate:"omitempty,max=100"`
	MinAmount       *string `json:"monto_minimo,omitempty" validate:"omitempty,max=100"`
	MaxAmount       *string `json:"monto_maximo,omitempty" validate:"omitempty,max=100"`
	MaxTerm         *string `json:"plazo_maximo,omitempty" validate:"omitempty,max=100"`
	PaymentType     *string `json:"tipo_pago,omitempty" validate:"omitempty,max=100"`
	Description     string  `json:"descripcion" validate:"required"`
	Conditions      *string `json:"condiciones,omitempty"`
	Requirements    *string `json:"requisitos,omitempty"`
	PayrollDiscount *string `json:"descuento_nomina,omitempty"`
	AppraisalBonus  *string `json:"beneficio_avaluo,omitempty"`
	ExtractionDate  string  `json:"fecha_extraccion" validate:"required,datetime=2006-01-02"`
	ExtractionTime  string  `json:"hora_extraccion" validate:"required,datetime=15:04:05"`
	SourceURL       string  `json:"url_pagina" validate:"required,url,max=2048"`
	PDFURL          *string `json:"url_pdf,omitempty" validate:"omitempty,url,max=2048"`
}

// Ingest actions.
const (
	ActionCreated = "creado"
	ActionUpdated = "actualizado"
)

// IngestResult describes what a single ingestion did to storage.
type IngestResult struct {
	ProductID    string   `json:"producto_id"`
	Action       string   `json:"accion"`
	RateChanged  bool     `json:"cambio_tasa"`
	PreviousRate *float64 `json:"tasa_anterior,omitempty"`
	NewRate      *float64 `json:"tasa_nueva,omitempty"`
}

// IngestResponse is the envelope returned to the scraper.
type IngestResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    *IngestResult `json:"data,omitempty"`
}

// NormalizedRecord is the parsed form of an IngestRecord, ready for catalog
// resolution and storage.
type NormalizedRecord struct {
	ExternalKey    string
	BankName       string
	BankKey        string
	RateValue      *float64
	RateMin        *float64
	RateMax        *float64
	IsRange        bool
	MinAmount      *float64
	MaxAmount      *float64
	MaxTermMonths  *int
	Description    string
	Conditions     []NewCondition
	Requirements   []NewRequirement
	Benefits       []NewBenefit
	ExtractionDate time.Time
	ExtractionTime string
	SourceURL      string
	PDFURL         *string
}

package models

import "time"

// ScrapeExecution is one batch run of the scraping workflow, reported by the
// workflow engine with its counters.
type ScrapeExecution struct {
	ID         string    `json:"id" db:"id"`
	EntityName string    `json:"entity_name" db:"entity_name"`
	Processed  int       `json:"processed" db:"processed"`
	Created    int       `json:"created" db:"created"`
	Updated    int       `json:"updated" db:"updated"`
	Errors     int       `json:"errors" db:"errors"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// RecordExecutionRequest reports a batch's counters. Wire names stay in
// Spanish to match the scraper.
type RecordExecutionRequest struct {
	EntityName string `json:"banco" validate:"required,max=255"`
	Processed  int    `json:"productos_procesados" validate:"gte=0"`
	Created    int    `json:"productos_creados" validate:"gte=0"`
	Updated    int    `json:"productos_actualizados" validate:"gte=0"`
	Errors     int    `json:"errores" validate:"gte=0"`
}

// ExecutionListResponse is the API response for recent executions.
type ExecutionListResponse struct {
	Items []ScrapeExecution `json:"items"`
}

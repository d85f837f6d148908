package models

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func validIngestRecord() IngestRecord {
	return IngestRecord{
		ExternalKey:    "bancolombia_hipotecario_vis_pesos",
		Bank:           "Bancolombia",
		CreditType:     "hipotecario",
		HousingType:    "VIS",
		Denomination:   "Pesos",
		Rate:           "12.50%",
		Description:    "Crédito hipotecario en pesos",
		ExtractionDate: "2025-08-15",
		ExtractionTime: "10:30:00",
		SourceURL:      "https://example.com/hipotecario",
	}
}

func TestIngestRecordValidation(t *testing.T) {
	validate := validator.New()

	t.Run("complete record passes", func(t *testing.T) {
		assert.NoError(t, validate.Struct(validIngestRecord()))
	})

	t.Run("rate is optional when a range is given", func(t *testing.T) {
		rec := validIngestRecord()
		rec.Rate = ""
		lower, upper := "10%", "15%"
		rec.RateMin = &lower
		rec.RateMax = &upper

		assert.NoError(t, validate.Struct(rec))
	})

	t.Run("missing external key fails", func(t *testing.T) {
		rec := validIngestRecord()
		rec.ExternalKey = ""

		assert.Error(t, validate.Struct(rec))
	})

	t.Run("short external key fails", func(t *testing.T) {
		rec := validIngestRecord()
		rec.ExternalKey = "ab"

		assert.Error(t, validate.Struct(rec))
	})

	t.Run("malformed extraction date fails", func(t *testing.T) {
		rec := validIngestRecord()
		rec.ExtractionDate = "15/08/2025"

		assert.Error(t, validate.Struct(rec))
	})

	t.Run("malformed source url fails", func(t *testing.T) {
		rec := validIngestRecord()
		rec.SourceURL = "not a url"

		assert.Error(t, validate.Struct(rec))
	})
}

package ingestion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/financebro/api/internal/repositories/catalog"
	"github.com/financebro/api/internal/repositories/product"
	"github.com/financebro/api/pkg/database"
	"github.com/financebro/api/pkg/models"
	"github.com/financebro/api/pkg/parsers"
	"github.com/financebro/api/pkg/tracing"
)

const payrollAppliesWhen = "Con cuenta de nómina"

// TxBeginner starts or joins a context-carried transaction.
type TxBeginner interface {
	GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error)
}

// Service runs the ingestion pipeline for scraped product records.
type Service struct {
	db       TxBeginner
	catalogs catalog.CatalogRepository
	products product.ProductRepository
	logger   ectologger.Logger
}

// NewService creates a new ingestion service
func NewService(db TxBeginner, catalogs catalog.CatalogRepository, products product.ProductRepository, logger ectologger.Logger) *Service {
	return &Service{
		db:       db,
		catalogs: catalogs,
		products: products,
		logger:   logger,
	}
}

// Ingest normalizes one scraped record and folds it into storage. The write
// phase runs in a single transaction so a partially ingested product is never
// visible to readers.
func (s *Service) Ingest(ctx context.Context, rec models.IngestRecord) (*models.IngestResult, error) {
	ctx, span := tracing.StartSpan(ctx, "IngestionService.Ingest")
	defer span.End()

	s.logger.WithContext(ctx).WithField("external_key", rec.ExternalKey).Info("starting ingestion")

	normalized, err := normalize(rec)
	if err != nil {
		return nil, err
	}

	txCtx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin ingestion transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.ingestTx(txCtx, rec, normalized)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit ingestion transaction: %w", err)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"product_id":   result.ProductID,
		"action":       result.Action,
		"rate_changed": result.RateChanged,
	}).Info("ingestion completed")

	return result, nil
}

func (s *Service) ingestTx(ctx context.Context, rec models.IngestRecord, n *models.NormalizedRecord) (*models.IngestResult, error) {
	entity, err := s.catalogs.GetOrCreateEntity(ctx, rec.Bank, n.BankKey)
	if err != nil {
		return nil, err
	}

	creditTypeID, err := s.catalogs.ResolveCreditType(ctx, rec.CreditType)
	if err != nil {
		return nil, err
	}
	housingTypeID, err := s.catalogs.ResolveHousingType(ctx, rec.HousingType)
	if err != nil {
		return nil, err
	}
	denominationID, err := s.catalogs.ResolveDenomination(ctx, rec.Denomination)
	if err != nil {
		return nil, err
	}
	rateTypeText := ""
	if rec.RateType != nil {
		rateTypeText = *rec.RateType
	}
	rateTypeID, err := s.catalogs.ResolveRateType(ctx, rateTypeText)
	if err != nil {
		return nil, err
	}
	paymentTypeID, err := s.catalogs.ResolvePaymentType(ctx, rec.PaymentType)
	if err != nil {
		return nil, err
	}

	prod, action, err := s.upsertProduct(ctx, rec, n, models.CreateCreditProduct{
		ExternalKey:    rec.ExternalKey,
		EntityID:       entity.ID,
		CreditTypeID:   creditTypeID,
		HousingTypeID:  housingTypeID,
		DenominationID: denominationID,
		RateTypeID:     rateTypeID,
		PaymentTypeID:  paymentTypeID,
		Description:    rec.Description,
		SourceURL:      rec.SourceURL,
		RedirectURL:    rec.SourceURL,
		PDFURL:         rec.PDFURL,
		ExtractionDate: n.ExtractionDate,
		ExtractionTime: rec.ExtractionTime,
	})
	if err != nil {
		return nil, err
	}

	previous, err := s.products.GetCurrentRate(ctx, prod.ID)
	if err != nil {
		return nil, err
	}

	var previousValue *float64
	if previous != nil {
		previousValue = previous.Value
	}
	changed := rateChanged(previousValue, n.RateValue)

	err = s.products.UpsertCurrentRate(ctx, prod.ID, models.UpsertCurrentRate{
		Value:         n.RateValue,
		OriginalText:  originalRateText(rec.Rate),
		Min:           n.RateMin,
		Max:           n.RateMax,
		IsRange:       n.IsRange,
		EffectiveDate: n.ExtractionDate,
	})
	if err != nil {
		return nil, err
	}

	err = s.products.AppendRateHistory(ctx, models.AppendRateHistory{
		ProductID:      prod.ID,
		Value:          n.RateValue,
		ExtractionDate: n.ExtractionDate,
		ExtractionTime: rec.ExtractionTime,
	})
	if err != nil {
		return nil, err
	}

	if n.MinAmount != nil || n.MaxAmount != nil || n.MaxTermMonths != nil {
		err = s.products.UpsertAmountTerms(ctx, prod.ID, models.UpsertAmountTerms{
			MinAmount:     n.MinAmount,
			MaxAmount:     n.MaxAmount,
			MaxTermMonths: n.MaxTermMonths,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := s.products.ReplaceConditions(ctx, prod.ID, n.Conditions); err != nil {
		return nil, err
	}
	if err := s.products.ReplaceRequirements(ctx, prod.ID, n.Requirements); err != nil {
		return nil, err
	}
	if err := s.products.ReplaceBenefits(ctx, prod.ID, n.Benefits); err != nil {
		return nil, err
	}

	return &models.IngestResult{
		ProductID:    prod.ID,
		Action:       action,
		RateChanged:  changed,
		PreviousRate: previousValue,
		NewRate:      n.RateValue,
	}, nil
}

// upsertProduct creates the product or refreshes its mutable fields. A create
// that loses a race on the external key is retried as an update.
func (s *Service) upsertProduct(ctx context.Context, rec models.IngestRecord, n *models.NormalizedRecord, create models.CreateCreditProduct) (*models.CreditProduct, string, error) {
	existing, err := s.products.FindByExternalKey(ctx, rec.ExternalKey)
	if err != nil {
		return nil, "", err
	}

	if existing == nil {
		created, err := s.products.Create(ctx, create)
		if err == nil {
			return created, models.ActionCreated, nil
		}
		if !errors.Is(err, product.ErrDuplicateExternalKey) {
			return nil, "", err
		}

		existing, err = s.products.FindByExternalKey(ctx, rec.ExternalKey)
		if err != nil {
			return nil, "", err
		}
		if existing == nil {
			return nil, "", fmt.Errorf("product '%s' vanished after duplicate key conflict", rec.ExternalKey)
		}
	}

	updated, err := s.products.Update(ctx, existing.ID, models.UpdateCreditProduct{
		Description:    rec.Description,
		SourceURL:      rec.SourceURL,
		RedirectURL:    rec.SourceURL,
		PDFURL:         rec.PDFURL,
		ExtractionDate: n.ExtractionDate,
		ExtractionTime: rec.ExtractionTime,
	})
	if err != nil {
		return nil, "", err
	}
	if updated == nil {
		return nil, "", httperror.NewHTTPErrorf(http.StatusNotFound, "product '%s' not found", existing.ID)
	}

	return updated, models.ActionUpdated, nil
}

// normalize parses and classifies the raw record without touching storage.
func normalize(rec models.IngestRecord) (*models.NormalizedRecord, error) {
	extractionDate, err := time.Parse("2006-01-02", rec.ExtractionDate)
	if err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid fecha_extraccion '%s'", rec.ExtractionDate)
	}

	n := &models.NormalizedRecord{
		ExternalKey:    rec.ExternalKey,
		BankName:       rec.Bank,
		BankKey:        parsers.NormalizeKey(rec.Bank),
		Description:    rec.Description,
		ExtractionDate: extractionDate,
		ExtractionTime: rec.ExtractionTime,
		SourceURL:      rec.SourceURL,
		PDFURL:         rec.PDFURL,
	}

	if strings.TrimSpace(rec.Rate) != "" {
		n.RateValue = parsers.ParseRate(rec.Rate)
	}
	if rec.RateMin != nil && strings.TrimSpace(*rec.RateMin) != "" {
		n.RateMin = parsers.ParseRate(*rec.RateMin)
		n.IsRange = true
	}
	if rec.RateMax != nil && strings.TrimSpace(*rec.RateMax) != "" {
		n.RateMax = parsers.ParseRate(*rec.RateMax)
		n.IsRange = true
	}
	if n.IsRange && n.RateValue == nil && n.RateMin != nil && n.RateMax != nil {
		mean := (*n.RateMin + *n.RateMax) / 2
		n.RateValue = &mean
	}

	if rec.MinAmount != nil && strings.TrimSpace(*rec.MinAmount) != "" {
		n.MinAmount = parsers.ParseAmount(*rec.MinAmount)
	}
	if rec.MaxAmount != nil && strings.TrimSpace(*rec.MaxAmount) != "" {
		n.MaxAmount = parsers.ParseAmount(*rec.MaxAmount)
	}
	if rec.MaxTerm != nil && strings.TrimSpace(*rec.MaxTerm) != "" {
		n.MaxTermMonths = parsers.ParseTerm(*rec.MaxTerm)
	}

	n.Conditions = splitConditions(rec.Conditions)
	n.Requirements = splitRequirements(rec.Requirements)
	n.Benefits = buildBenefits(rec)

	return n, nil
}

// rateChanged compares two-decimal percentage rates in integer basis points
// so float artifacts cannot flip the outcome. A move of at least one basis
// point counts as a change.
func rateChanged(previous, next *float64) bool {
	if previous == nil || next == nil {
		return false
	}

	prevBps := int(math.Round(*previous * 100))
	nextBps := int(math.Round(*next * 100))

	diff := prevBps - nextBps
	if diff < 0 {
		diff = -diff
	}
	return diff >= 1
}

func splitConditions(text *string) []models.NewCondition {
	items := splitList(text)
	out := make([]models.NewCondition, 0, len(items))
	for i, item := range items {
		out = append(out, models.NewCondition{Text: item, Position: i + 1})
	}
	return out
}

func splitRequirements(text *string) []models.NewRequirement {
	items := splitList(text)
	out := make([]models.NewRequirement, 0, len(items))
	for i, item := range items {
		out = append(out, models.NewRequirement{
			Text:      item,
			Category:  models.RequirementCategoryGeneral,
			Mandatory: true,
			Position:  i + 1,
		})
	}
	return out
}

// splitList breaks semicolon-separated scraped text into trimmed, non-empty
// items.
func splitList(text *string) []string {
	if text == nil || strings.TrimSpace(*text) == "" {
		return nil
	}

	var items []string
	for _, part := range strings.Split(*text, ";") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func buildBenefits(rec models.IngestRecord) []models.NewBenefit {
	var benefits []models.NewBenefit

	if rec.PayrollDiscount != nil && strings.TrimSpace(*rec.PayrollDiscount) != "" {
		applies := payrollAppliesWhen
		benefits = append(benefits, models.NewBenefit{
			Category:    models.BenefitPayrollDiscount,
			Description: strings.TrimSpace(*rec.PayrollDiscount),
			Value:       parsers.ExtractBenefitValue(*rec.PayrollDiscount),
			AppliesWhen: &applies,
		})
	}

	if rec.AppraisalBonus != nil && strings.TrimSpace(*rec.AppraisalBonus) != "" {
		benefits = append(benefits, models.NewBenefit{
			Category:    models.BenefitAppraisal,
			Description: strings.TrimSpace(*rec.AppraisalBonus),
		})
	}

	return benefits
}

func originalRateText(text string) *string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return &text
}

package product

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/financebro/api/pkg/database"
	"github.com/financebro/api/pkg/models"
	"github.com/financebro/api/pkg/tracing"
	"github.com/google/uuid"
)

const (
	currentRatesTable = "current_rates"
	rateHistoryTable  = "rate_history"
	amountTermsTable  = "amount_terms"
)

// GetCurrentRate gets the current rate snapshot for a product
func (r *Repository) GetCurrentRate(ctx context.Context, productID string) (*models.CurrentRate, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.GetCurrentRate")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("product_id", "rate_value", "original_text", "rate_min", "rate_max", "is_range", "effective_date", "created_at", "updated_at")
	sb.From(currentRatesTable)
	sb.Where(sb.Equal("product_id", productID))

	query, args := sb.Build()

	var rate models.CurrentRate
	err := database.FromContext(ctx, r.db).GetContext(ctx, &rate, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get current rate")
		return nil, fmt.Errorf("failed to get current rate: %w", err)
	}

	return &rate, nil
}

// UpsertCurrentRate overwrites the product's rate snapshot in place.
func (r *Repository) UpsertCurrentRate(ctx context.Context, productID string, req models.UpsertCurrentRate) error {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.UpsertCurrentRate")
	defer span.End()

	now := time.Now()

	sb := database.NewInsertBuilder()
	sb.InsertInto(currentRatesTable)
	sb.Cols("product_id", "rate_value", "original_text", "rate_min", "rate_max", "is_range", "effective_date", "created_at", "updated_at")
	sb.Values(productID, req.Value, req.OriginalText, req.Min, req.Max, req.IsRange, req.EffectiveDate, now, now)

	ub := sb.OnConflict("product_id")
	ub.Set(
		ub.Assign("rate_value", database.Excluded("rate_value")),
		ub.Assign("original_text", database.Excluded("original_text")),
		ub.Assign("rate_min", database.Excluded("rate_min")),
		ub.Assign("rate_max", database.Excluded("rate_max")),
		ub.Assign("is_range", database.Excluded("is_range")),
		ub.Assign("effective_date", database.Excluded("effective_date")),
		ub.Assign("updated_at", now),
	)

	query, args := sb.Build()

	if _, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to upsert current rate")
		return fmt.Errorf("failed to upsert current rate: %w", err)
	}

	return nil
}

// AppendRateHistory records one rate observation. The history table is
// append-only.
func (r *Repository) AppendRateHistory(ctx context.Context, req models.AppendRateHistory) error {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.AppendRateHistory")
	defer span.End()

	sb := database.NewInsertBuilder()
	sb.InsertInto(rateHistoryTable)
	sb.Cols("id", "product_id", "rate_value", "extraction_date", "extraction_time", "created_at")
	sb.Values(uuid.New().String(), req.ProductID, req.Value, req.ExtractionDate, req.ExtractionTime, time.Now())

	query, args := sb.Build()

	if _, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to append rate history")
		return fmt.Errorf("failed to append rate history: %w", err)
	}

	return nil
}

// GetRateHistory returns the most recent observations first.
func (r *Repository) GetRateHistory(ctx context.Context, productID string, limit int) ([]models.RateHistoryEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.GetRateHistory")
	defer span.End()

	if limit < 1 {
		limit = 30
	}
	if limit > 365 {
		limit = 365
	}

	sb := database.NewSelectBuilder()
	sb.Select("id", "product_id", "rate_value", "extraction_date", "extraction_time", "created_at")
	sb.From(rateHistoryTable)
	sb.Where(sb.Equal("product_id", productID))
	sb.OrderBy("extraction_date DESC", "extraction_time DESC")
	sb.Limit(limit)

	query, args := sb.Build()

	var items []models.RateHistoryEntry
	err := database.FromContext(ctx, r.db).SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get rate history")
		return nil, fmt.Errorf("failed to get rate history: %w", err)
	}

	return items, nil
}

// GetAmountTerms gets the amount and term bounds for a product
func (r *Repository) GetAmountTerms(ctx context.Context, productID string) (*models.AmountTerms, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.GetAmountTerms")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("product_id", "min_amount", "max_amount", "min_term_months", "max_term_months", "created_at", "updated_at")
	sb.From(amountTermsTable)
	sb.Where(sb.Equal("product_id", productID))

	query, args := sb.Build()

	var terms models.AmountTerms
	err := database.FromContext(ctx, r.db).GetContext(ctx, &terms, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get amount terms")
		return nil, fmt.Errorf("failed to get amount terms: %w", err)
	}

	return &terms, nil
}

// UpsertAmountTerms merges the non-nil request fields into the product's
// bounds row. Fields the request omits keep their stored value.
func (r *Repository) UpsertAmountTerms(ctx context.Context, productID string, req models.UpsertAmountTerms) error {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.UpsertAmountTerms")
	defer span.End()

	existing, err := r.GetAmountTerms(ctx, productID)
	if err != nil {
		return err
	}

	now := time.Now()

	if existing == nil {
		sb := database.NewInsertBuilder()
		sb.InsertInto(amountTermsTable)
		sb.Cols("product_id", "min_amount", "max_amount", "min_term_months", "max_term_months", "created_at", "updated_at")
		sb.Values(productID, req.MinAmount, req.MaxAmount, req.MinTermMonths, req.MaxTermMonths, now, now)

		query, args := sb.Build()

		if _, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("failed to create amount terms")
			return fmt.Errorf("failed to create amount terms: %w", err)
		}
		return nil
	}

	ub := database.NewUpdateBuilder()
	ub.Update(amountTermsTable)
	ub.Set(ub.Assign("updated_at", now))

	if req.MinAmount != nil {
		ub.SetMore(ub.Assign("min_amount", *req.MinAmount))
	}
	if req.MaxAmount != nil {
		ub.SetMore(ub.Assign("max_amount", *req.MaxAmount))
	}
	if req.MinTermMonths != nil {
		ub.SetMore(ub.Assign("min_term_months", *req.MinTermMonths))
	}
	if req.MaxTermMonths != nil {
		ub.SetMore(ub.Assign("max_term_months", *req.MaxTermMonths))
	}

	ub.Where(ub.Equal("product_id", productID))

	query, args := ub.Build()

	if _, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update amount terms")
		return fmt.Errorf("failed to update amount terms: %w", err)
	}

	return nil
}

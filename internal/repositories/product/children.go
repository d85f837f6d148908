package product

import (
	"context"
	"fmt"
	"time"

	"github.com/financebro/api/pkg/database"
	"github.com/financebro/api/pkg/models"
	"github.com/financebro/api/pkg/tracing"
	"github.com/google/uuid"
)

const (
	conditionsTable   = "product_conditions"
	requirementsTable = "product_requirements"
	benefitsTable     = "product_benefits"
)

// ReplaceConditions swaps the product's condition list for the given items.
func (r *Repository) ReplaceConditions(ctx context.Context, productID string, items []models.NewCondition) error {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.ReplaceConditions")
	defer span.End()

	if err := r.deleteChildren(ctx, conditionsTable, productID); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	now := time.Now()

	sb := database.NewInsertBuilder()
	sb.InsertInto(conditionsTable)
	sb.Cols("id", "product_id", "condition_text", "position", "created_at")
	for _, item := range items {
		sb.Values(uuid.New().String(), productID, item.Text, item.Position, now)
	}

	query, args := sb.Build()

	if _, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert conditions")
		return fmt.Errorf("failed to insert conditions: %w", err)
	}

	return nil
}

// ReplaceRequirements swaps the product's requirement list for the given items.
func (r *Repository) ReplaceRequirements(ctx context.Context, productID string, items []models.NewRequirement) error {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.ReplaceRequirements")
	defer span.End()

	if err := r.deleteChildren(ctx, requirementsTable, productID); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	now := time.Now()

	sb := database.NewInsertBuilder()
	sb.InsertInto(requirementsTable)
	sb.Cols("id", "product_id", "requirement_text", "category", "mandatory", "position", "created_at")
	for _, item := range items {
		sb.Values(uuid.New().String(), productID, item.Text, item.Category, item.Mandatory, item.Position, now)
	}

	query, args := sb.Build()

	if _, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert requirements")
		return fmt.Errorf("failed to insert requirements: %w", err)
	}

	return nil
}

// ReplaceBenefits swaps the product's benefit list for the given items.
func (r *Repository) ReplaceBenefits(ctx context.Context, productID string, items []models.NewBenefit) error {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.ReplaceBenefits")
	defer span.End()

	if err := r.deleteChildren(ctx, benefitsTable, productID); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	now := time.Now()

	sb := database.NewInsertBuilder()
	sb.InsertInto(benefitsTable)
	sb.Cols("id", "product_id", "category", "description", "benefit_value", "applies_when", "created_at")
	for _, item := range items {
		sb.Values(uuid.New().String(), productID, item.Category, item.Description, item.Value, item.AppliesWhen, now)
	}

	query, args := sb.Build()

	if _, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert benefits")
		return fmt.Errorf("failed to insert benefits: %w", err)
	}

	return nil
}

func (r *Repository) deleteChildren(ctx context.Context, table, productID string) error {
	db := database.NewDeleteBuilder()
	db.DeleteFrom(table)
	db.Where(db.Equal("product_id", productID))

	query, args := db.Build()

	if _, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("table", table).Error("failed to clear product children")
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	return nil
}

func (r *Repository) listConditions(ctx context.Context, productID string) ([]models.Condition, error) {
	sb := database.NewSelectBuilder()
	sb.Select("id", "product_id", "condition_text", "position", "created_at")
	sb.From(conditionsTable)
	sb.Where(sb.Equal("product_id", productID))
	sb.OrderBy("position ASC")

	query, args := sb.Build()

	var items []models.Condition
	err := database.FromContext(ctx, r.db).SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list conditions")
		return nil, fmt.Errorf("failed to list conditions: %w", err)
	}

	return items, nil
}

func (r *Repository) listRequirements(ctx context.Context, productID string) ([]models.Requirement, error) {
	sb := database.NewSelectBuilder()
	sb.Select("id", "product_id", "requirement_text", "category", "mandatory", "position", "created_at")
	sb.From(requirementsTable)
	sb.Where(sb.Equal("product_id", productID))
	sb.OrderBy("position ASC")

	query, args := sb.Build()

	var items []models.Requirement
	err := database.FromContext(ctx, r.db).SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list requirements")
		return nil, fmt.Errorf("failed to list requirements: %w", err)
	}

	return items, nil
}

func (r *Repository) listBenefits(ctx context.Context, productID string) ([]models.Benefit, error) {
	sb := database.NewSelectBuilder()
	sb.Select("id", "product_id", "category", "description", "benefit_value", "applies_when", "created_at")
	sb.From(benefitsTable)
	sb.Where(sb.Equal("product_id", productID))
	sb.OrderBy("category ASC")

	query, args := sb.Build()

	var items []models.Benefit
	err := database.FromContext(ctx, r.db).SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list benefits")
		return nil, fmt.Errorf("failed to list benefits: %w", err)
	}

	return items, nil
}

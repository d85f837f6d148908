package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/financebro/api/pkg/database"
	"github.com/financebro/api/pkg/models"
	"github.com/financebro/api/pkg/parsers"
	"github.com/financebro/api/pkg/tracing"
	"github.com/google/uuid"
)

// CatalogRepository defines the interface for reference data resolution and
// financial entity lookup.
type CatalogRepository interface {
	ResolveCreditType(ctx context.Context, text string) (string, error)
	ResolveHousingType(ctx context.Context, text string) (string, error)
	ResolveDenomination(ctx context.Context, text string) (string, error)
	ResolveRateType(ctx context.Context, text string) (string, error)
	ResolvePaymentType(ctx context.Context, text *string) (*string, error)
	ListCreditTypes(ctx context.Context) ([]models.CatalogItem, error)
	ListHousingTypes(ctx context.Context) ([]models.CatalogItem, error)
	ListDenominations(ctx context.Context) ([]models.CatalogItem, error)
	ListRateTypes(ctx context.Context) ([]models.CatalogItem, error)
	ListPaymentTypes(ctx context.Context) ([]models.CatalogItem, error)
	GetOrCreateEntity(ctx context.Context, name, normalizedName string) (*models.FinancialEntity, error)
	ListEntities(ctx context.Context) ([]models.FinancialEntity, error)
}

// Repository implements CatalogRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new catalog repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const (
	creditTypesTable   = "credit_types"
	housingTypesTable  = "housing_types"
	denominationsTable = "denominations"
	rateTypesTable     = "rate_types"
	paymentTypesTable  = "payment_types"
	entitiesTable      = "financial_entities"
)

// ResolveCreditType maps scraped credit type text to the id of its seeded
// catalog row.
func (r *Repository) ResolveCreditType(ctx context.Context, text string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.ResolveCreditType")
	defer span.End()

	return r.resolve(ctx, creditTypesTable, "tipo_credito", text, parsers.MapCreditType(text))
}

// ResolveHousingType maps scraped housing type text to the id of its seeded
// catalog row.
func (r *Repository) ResolveHousingType(ctx context.Context, text string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.ResolveHousingType")
	defer span.End()

	return r.resolve(ctx, housingTypesTable, "tipo_vivienda", text, parsers.MapHousingType(text))
}

// ResolveDenomination maps scraped denomination text to the id of its seeded
// catalog row.
func (r *Repository) ResolveDenomination(ctx context.Context, text string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.ResolveDenomination")
	defer span.End()

	return r.resolve(ctx, denominationsTable, "denominacion", text, parsers.MapDenomination(text))
}

// ResolveRateType maps scraped rate type text to the id of its seeded catalog
// row.
func (r *Repository) ResolveRateType(ctx context.Context, text string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.ResolveRateType")
	defer span.End()

	return r.resolve(ctx, rateTypesTable, "tipo_tasa", text, parsers.MapRateType(text))
}

// ResolvePaymentType maps optional payment type text to a catalog id. Nil in,
// nil out; an unmapped but seeded-missing code also yields nil rather than an
// error since the field is optional upstream.
func (r *Repository) ResolvePaymentType(ctx context.Context, text *string) (*string, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.ResolvePaymentType")
	defer span.End()

	code := parsers.MapPaymentType(text)
	if code == nil {
		return nil, nil
	}

	item, err := r.getByCode(ctx, paymentTypesTable, *code)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	return &item.ID, nil
}

func (r *Repository) ListCreditTypes(ctx context.Context) ([]models.CatalogItem, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.ListCreditTypes")
	defer span.End()

	return r.listActive(ctx, creditTypesTable)
}

func (r *Repository) ListHousingTypes(ctx context.Context) ([]models.CatalogItem, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.ListHousingTypes")
	defer span.End()

	return r.listActive(ctx, housingTypesTable)
}

func (r *Repository) ListDenominations(ctx context.Context) ([]models.CatalogItem, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.ListDenominations")
	defer span.End()

	return r.listActive(ctx, denominationsTable)
}

func (r *Repository) ListRateTypes(ctx context.Context) ([]models.CatalogItem, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.ListRateTypes")
	defer span.End()

	return r.listActive(ctx, rateTypesTable)
}

func (r *Repository) ListPaymentTypes(ctx context.Context) ([]models.CatalogItem, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.ListPaymentTypes")
	defer span.End()

	return r.listActive(ctx, paymentTypesTable)
}

// GetOrCreateEntity resolves a financial entity by its normalized name,
// creating it on first sight. Concurrent first-sight inserts are absorbed by
// the unique index on normalized_name plus a re-read.
func (r *Repository) GetOrCreateEntity(ctx context.Context, name, normalizedName string) (*models.FinancialEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.GetOrCreateEntity")
	defer span.End()

	existing, err := r.getEntityByNormalizedName(ctx, normalizedName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()

	sb := database.NewInsertBuilder()
	sb.InsertInto(entitiesTable)
	sb.Cols("id", "name", "normalized_name", "active", "created_at", "updated_at")
	sb.Values(uuid.New().String(), name, normalizedName, true, now, now)
	sb.OnConflictDoNothing()

	query, args := sb.Build()

	if _, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create financial entity")
		return nil, fmt.Errorf("failed to create financial entity: %w", err)
	}

	created, err := r.getEntityByNormalizedName(ctx, normalizedName)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("financial entity '%s' missing after insert", normalizedName)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":              created.ID,
		"normalized_name": normalizedName,
	}).Info("resolved financial entity")

	return created, nil
}

func (r *Repository) ListEntities(ctx context.Context) ([]models.FinancialEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.ListEntities")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("id", "name", "normalized_name", "logo_url", "website_url", "active", "created_at", "updated_at")
	sb.From(entitiesTable)
	sb.Where(sb.Equal("active", true))
	sb.OrderBy("name ASC")

	query, args := sb.Build()

	var items []models.FinancialEntity
	err := database.FromContext(ctx, r.db).SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list financial entities")
		return nil, fmt.Errorf("failed to list financial entities: %w", err)
	}

	return items, nil
}

func (r *Repository) resolve(ctx context.Context, table, field, text, code string) (string, error) {
	item, err := r.getByCode(ctx, table, code)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", httperror.NewHTTPErrorf(http.StatusBadRequest, "no catalog entry for %s '%s'", field, text)
	}

	return item.ID, nil
}

func (r *Repository) getByCode(ctx context.Context, table, code string) (*models.CatalogItem, error) {
	sb := database.NewSelectBuilder()
	sb.Select("id", "code", "name", "active", "created_at")
	sb.From(table)
	sb.Where(
		sb.Equal("code", code),
		sb.Equal("active", true),
	)

	query, args := sb.Build()

	var item models.CatalogItem
	err := database.FromContext(ctx, r.db).GetContext(ctx, &item, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithField("table", table).Error("failed to get catalog item")
		return nil, fmt.Errorf("failed to get catalog item from %s: %w", table, err)
	}

	return &item, nil
}

func (r *Repository) listActive(ctx context.Context, table string) ([]models.CatalogItem, error) {
	sb := database.NewSelectBuilder()
	sb.Select("id", "code", "name", "active", "created_at")
	sb.From(table)
	sb.Where(sb.Equal("active", true))
	sb.OrderBy("name ASC")

	query, args := sb.Build()

	var items []models.CatalogItem
	err := database.FromContext(ctx, r.db).SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("table", table).Error("failed to list catalog items")
		return nil, fmt.Errorf("failed to list catalog items from %s: %w", table, err)
	}

	return items, nil
}

func (r *Repository) getEntityByNormalizedName(ctx context.Context, normalizedName string) (*models.FinancialEntity, error) {
	sb := database.NewSelectBuilder()
	sb.Select("id", "name", "normalized_name", "logo_url", "website_url", "active", "created_at", "updated_at")
	sb.From(entitiesTable)
	sb.Where(sb.Equal("normalized_name", normalizedName))

	query, args := sb.Build()

	var entity models.FinancialEntity
	err := database.FromContext(ctx, r.db).GetContext(ctx, &entity, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get financial entity")
		return nil, fmt.Errorf("failed to get financial entity: %w", err)
	}

	return &entity, nil
}

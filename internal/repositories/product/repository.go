package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/financebro/api/pkg/database"
	"github.com/financebro/api/pkg/models"
	"github.com/financebro/api/pkg/tracing"
	"github.com/google/uuid"
)

// ErrDuplicateExternalKey signals that a concurrent ingestion created the
// product first. Callers retry the write as an update.
var ErrDuplicateExternalKey = errors.New("external key already exists")

// ProductRepository defines the interface for credit product storage.
type ProductRepository interface {
	FindByExternalKey(ctx context.Context, externalKey string) (*models.CreditProduct, error)
	Create(ctx context.Context, req models.CreateCreditProduct) (*models.CreditProduct, error)
	Update(ctx context.Context, id string, req models.UpdateCreditProduct) (*models.CreditProduct, error)
	GetByID(ctx context.Context, id string) (*models.CreditProduct, error)
	GetDetail(ctx context.Context, id string) (*models.ProductDetail, error)
	List(ctx context.Context, filter models.ProductFilter, page, pageSize int) ([]models.ProductSummary, int, error)
	GetCurrentRate(ctx context.Context, productID string) (*models.CurrentRate, error)
	UpsertCurrentRate(ctx context.Context, productID string, req models.UpsertCurrentRate) error
	AppendRateHistory(ctx context.Context, req models.AppendRateHistory) error
	GetRateHistory(ctx context.Context, productID string, limit int) ([]models.RateHistoryEntry, error)
	GetAmountTerms(ctx context.Context, productID string) (*models.AmountTerms, error)
	UpsertAmountTerms(ctx context.Context, productID string, req models.UpsertAmountTerms) error
	ReplaceConditions(ctx context.Context, productID string, items []models.NewCondition) error
	ReplaceRequirements(ctx context.Context, productID string, items []models.NewRequirement) error
	ReplaceBenefits(ctx context.Context, productID string, items []models.NewBenefit) error
}

// Repository implements ProductRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new product repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const productsTable = "credit_products"

var productColumns = []string{
	"id", "external_key", "entity_id", "credit_type_id", "housing_type_id",
	"denomination_id", "rate_type_id", "payment_type_id", "description",
	"source_url", "redirect_url", "pdf_url", "extraction_date", "extraction_time",
	"active", "created_at", "updated_at",
}

// FindByExternalKey looks up an active product by its scraper-assigned key.
func (r *Repository) FindByExternalKey(ctx context.Context, externalKey string) (*models.CreditProduct, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.FindByExternalKey")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(productColumns...)
	sb.From(productsTable)
	sb.Where(
		sb.Equal("external_key", externalKey),
		sb.Equal("active", true),
	)

	query, args := sb.Build()

	var product models.CreditProduct
	err := database.FromContext(ctx, r.db).GetContext(ctx, &product, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to find product by external key")
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return &product, nil
}

// Create inserts a new product. Returns ErrDuplicateExternalKey when another
// writer claimed the external key first.
func (r *Repository) Create(ctx context.Context, req models.CreateCreditProduct) (*models.CreditProduct, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.Create")
	defer span.End()

	now := time.Now()
	id := uuid.New().String()

	sb := database.NewInsertBuilder()
	sb.InsertInto(productsTable)
	sb.Cols(
		"id", "external_key", "entity_id", "credit_type_id", "housing_type_id",
		"denomination_id", "rate_type_id", "payment_type_id", "description",
		"source_url", "redirect_url", "pdf_url", "extraction_date", "extraction_time",
		"active", "created_at", "updated_at",
	)
	sb.Values(
		id, req.ExternalKey, req.EntityID, req.CreditTypeID, req.HousingTypeID,
		req.DenominationID, req.RateTypeID, req.PaymentTypeID, req.Description,
		req.SourceURL, req.RedirectURL, req.PDFURL, req.ExtractionDate, req.ExtractionTime,
		true, now, now,
	)
	// DO NOTHING instead of letting the unique index raise: a raised 23505
	// would abort the surrounding ingestion transaction.
	sb.OnConflictDoNothing()

	query, args := sb.Build()

	result, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, ErrDuplicateExternalKey
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":           id,
		"external_key": req.ExternalKey,
	}).Info("created product")

	return r.GetByID(ctx, id)
}

// Update rewrites the mutable product fields. Entity and catalog references
// are fixed at creation and never touched here.
func (r *Repository) Update(ctx context.Context, id string, req models.UpdateCreditProduct) (*models.CreditProduct, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.Update")
	defer span.End()

	sb := database.NewUpdateBuilder()
	sb.Update(productsTable)
	sb.Set(
		sb.Assign("description", req.Description),
		sb.Assign("source_url", req.SourceURL),
		sb.Assign("redirect_url", req.RedirectURL),
		sb.Assign("pdf_url", req.PDFURL),
		sb.Assign("extraction_date", req.ExtractionDate),
		sb.Assign("extraction_time", req.ExtractionTime),
		sb.Assign("updated_at", time.Now()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("active", true),
	)

	query, args := sb.Build()

	result, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, nil
	}

	r.logger.WithContext(ctx).WithField("id", id).Info("updated product")

	return r.GetByID(ctx, id)
}

// GetByID gets a product by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.CreditProduct, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.GetByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(productColumns...)
	sb.From(productsTable)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("active", true),
	)

	query, args := sb.Build()

	var product models.CreditProduct
	err := database.FromContext(ctx, r.db).GetContext(ctx, &product, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// List returns the comparison listing with catalog names joined in, newest
// extraction first.
func (r *Repository) List(ctx context.Context, filter models.ProductFilter, page, pageSize int) ([]models.ProductSummary, int, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	countSb := database.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("credit_products p")
	countSb.JoinWithOption("", "credit_types ct", "ct.id = p.credit_type_id")
	countSb.JoinWithOption("", "housing_types ht", "ht.id = p.housing_type_id")
	countSb.JoinWithOption("", "denominations d", "d.id = p.denomination_id")
	applyFilter(countSb, filter)
	countQuery, countArgs := countSb.Build()

	var totalCount int
	err := database.FromContext(ctx, r.db).GetContext(ctx, &totalCount, countQuery, countArgs...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	sb := database.NewSelectBuilder()
	sb.Select(
		"p.id", "p.external_key", "e.name AS entity_name",
		"ct.name AS credit_type_name", "ht.name AS housing_type_name",
		"d.name AS denomination_name", "p.description",
		"cr.rate_value", "cr.is_range", "amt.max_amount", "p.extraction_date",
	)
	sb.From("credit_products p")
	sb.JoinWithOption("", "financial_entities e", "e.id = p.entity_id")
	sb.JoinWithOption("", "credit_types ct", "ct.id = p.credit_type_id")
	sb.JoinWithOption("", "housing_types ht", "ht.id = p.housing_type_id")
	sb.JoinWithOption("", "denominations d", "d.id = p.denomination_id")
	sb.JoinWithOption("LEFT", "current_rates cr", "cr.product_id = p.id")
	sb.JoinWithOption("LEFT", "amount_terms amt", "amt.product_id = p.id")
	applyFilter(sb, filter)
	sb.OrderBy("p.extraction_date DESC", "e.name ASC")
	sb.Limit(pageSize)
	sb.Offset(offset)

	query, args := sb.Build()

	var items []models.ProductSummary
	err = database.FromContext(ctx, r.db).SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list products")
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return items, totalCount, nil
}

func applyFilter(sb *database.SelectBuilder, filter models.ProductFilter) {
	conds := []string{sb.Equal("p.active", true)}
	if filter.EntityID != "" {
		conds = append(conds, sb.Equal("p.entity_id", filter.EntityID))
	}
	if filter.CreditTypeCode != "" {
		conds = append(conds, sb.Equal("ct.code", filter.CreditTypeCode))
	}
	if filter.HousingTypeCode != "" {
		conds = append(conds, sb.Equal("ht.code", filter.HousingTypeCode))
	}
	if filter.DenominationCode != "" {
		conds = append(conds, sb.Equal("d.code", filter.DenominationCode))
	}
	sb.Where(conds...)
}

// GetDetail loads the full product view including catalogs, rate snapshot,
// bounds and child collections.
func (r *Repository) GetDetail(ctx context.Context, id string) (*models.ProductDetail, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.GetDetail")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(
		"p.id", "p.external_key", "p.entity_id", "p.credit_type_id", "p.housing_type_id",
		"p.denomination_id", "p.rate_type_id", "p.payment_type_id", "p.description",
		"p.source_url", "p.redirect_url", "p.pdf_url", "p.extraction_date", "p.extraction_time",
		"p.active", "p.created_at", "p.updated_at",
		"e.name AS entity_name", "ct.name AS credit_type_name", "ht.name AS housing_type_name",
		"d.name AS denomination_name", "rt.name AS rate_type_name", "pt.name AS payment_type_name",
	)
	sb.From("credit_products p")
	sb.JoinWithOption("", "financial_entities e", "e.id = p.entity_id")
	sb.JoinWithOption("", "credit_types ct", "ct.id = p.credit_type_id")
	sb.JoinWithOption("", "housing_types ht", "ht.id = p.housing_type_id")
	sb.JoinWithOption("", "denominations d", "d.id = p.denomination_id")
	sb.JoinWithOption("", "rate_types rt", "rt.id = p.rate_type_id")
	sb.JoinWithOption("LEFT", "payment_types pt", "pt.id = p.payment_type_id")
	sb.Where(
		sb.Equal("p.id", id),
		sb.Equal("p.active", true),
	)

	query, args := sb.Build()

	var detail models.ProductDetail
	err := database.FromContext(ctx, r.db).GetContext(ctx, &detail, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get product detail")
		return nil, fmt.Errorf("failed to get product detail: %w", err)
	}

	detail.CurrentRate, err = r.GetCurrentRate(ctx, id)
	if err != nil {
		return nil, err
	}

	detail.AmountTerms, err = r.GetAmountTerms(ctx, id)
	if err != nil {
		return nil, err
	}

	detail.Conditions, err = r.listConditions(ctx, id)
	if err != nil {
		return nil, err
	}

	detail.Requirements, err = r.listRequirements(ctx, id)
	if err != nil {
		return nil, err
	}

	detail.Benefits, err = r.listBenefits(ctx, id)
	if err != nil {
		return nil, err
	}

	return &detail, nil
}

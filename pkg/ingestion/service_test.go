package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/financebro/api/internal/repositories/product"
	"github.com/financebro/api/pkg/database"
	"github.com/financebro/api/pkg/models"
	"github.com/financebro/api/pkg/parsers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestCreatesProduct(t *testing.T) {
	svc, _, products := newTestService(t)

	result, err := svc.Ingest(context.Background(), testRecord())
	require.NoError(t, err)

	assert.Equal(t, models.ActionCreated, result.Action)
	assert.False(t, result.RateChanged)
	assert.Nil(t, result.PreviousRate)
	require.NotNil(t, result.NewRate)
	assert.InDelta(t, 12.50, *result.NewRate, 0.001)

	prod := products.products[result.ProductID]
	require.NotNil(t, prod)
	assert.Equal(t, "bancolombia_hipotecario_vis_pesos", prod.ExternalKey)
	assert.Equal(t, "ent-bancolombia", prod.EntityID)
	assert.Equal(t, "ct-hipotecario", prod.CreditTypeID)
	assert.Equal(t, "ht-vis", prod.HousingTypeID)
	assert.Equal(t, "den-pesos", prod.DenominationID)
	assert.Equal(t, "rt-efectiva_anual", prod.RateTypeID)
	assert.Nil(t, prod.PaymentTypeID)
	assert.Equal(t, "https://example.com/hipotecario", prod.SourceURL)
	assert.Equal(t, "https://example.com/hipotecario", prod.RedirectURL)

	rate := products.rates[result.ProductID]
	require.NotNil(t, rate)
	require.NotNil(t, rate.Value)
	assert.InDelta(t, 12.50, *rate.Value, 0.001)
	assert.False(t, rate.IsRange)
	require.NotNil(t, rate.OriginalText)
	assert.Equal(t, "12.50%", *rate.OriginalText)

	assert.Len(t, products.history[result.ProductID], 1)

	terms := products.amounts[result.ProductID]
	require.NotNil(t, terms)
	assert.Nil(t, terms.MinAmount)
	require.NotNil(t, terms.MaxAmount)
	assert.InDelta(t, 500_000_000, *terms.MaxAmount, 0.001)
	require.NotNil(t, terms.MaxTermMonths)
	assert.Equal(t, 240, *terms.MaxTermMonths)

	conditions := products.conditions[result.ProductID]
	require.Len(t, conditions, 2)
	assert.Equal(t, "Cuota inicial del 30%", conditions[0].Text)
	assert.Equal(t, 1, conditions[0].Position)
	assert.Equal(t, "Seguro de vida", conditions[1].Text)
	assert.Equal(t, 2, conditions[1].Position)

	requirements := products.requirements[result.ProductID]
	require.Len(t, requirements, 2)
	assert.Equal(t, "Cédula", requirements[0].Text)
	assert.Equal(t, models.RequirementCategoryGeneral, requirements[0].Category)
	assert.True(t, requirements[0].Mandatory)

	benefits := products.benefits[result.ProductID]
	require.Len(t, benefits, 1)
	assert.Equal(t, models.BenefitPayrollDiscount, benefits[0].Category)
	require.NotNil(t, benefits[0].Value)
	assert.Equal(t, "-50 pbs", *benefits[0].Value)
	require.NotNil(t, benefits[0].AppliesWhen)
	assert.Equal(t, "Con cuenta de nómina", *benefits[0].AppliesWhen)
}

func TestIngestIsIdempotent(t *testing.T) {
	svc, _, products := newTestService(t)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, testRecord())
	require.NoError(t, err)

	second, err := svc.Ingest(ctx, testRecord())
	require.NoError(t, err)

	assert.Equal(t, models.ActionCreated, first.Action)
	assert.Equal(t, models.ActionUpdated, second.Action)
	assert.Equal(t, first.ProductID, second.ProductID)
	assert.False(t, second.RateChanged)
	assert.Len(t, products.products, 1)
	assert.Len(t, products.history[first.ProductID], 2)
}

func TestIngestRateChangeBoundary(t *testing.T) {
	tests := []struct {
		name     string
		nextRate string
		changed  bool
	}{
		{name: "one basis point is a change", nextRate: "12.51%", changed: true},
		{name: "half a basis point is not", nextRate: "12.505%", changed: false},
		{name: "identical rate is not", nextRate: "12.50%", changed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			ctx := context.Background()

			_, err := svc.Ingest(ctx, testRecord())
			require.NoError(t, err)

			rec := testRecord()
			rec.Rate = tt.nextRate

			result, err := svc.Ingest(ctx, rec)
			require.NoError(t, err)

			assert.Equal(t, tt.changed, result.RateChanged)
			require.NotNil(t, result.PreviousRate)
			assert.InDelta(t, 12.50, *result.PreviousRate, 0.001)
		})
	}
}

func TestIngestSynthesizesRangeMean(t *testing.T) {
	svc, _, products := newTestService(t)

	rec := testRecord()
	rec.Rate = "Consultar"
	rec.RateMin = strPtr("10%")
	rec.RateMax = strPtr("15%")

	result, err := svc.Ingest(context.Background(), rec)
	require.NoError(t, err)

	rate := products.rates[result.ProductID]
	require.NotNil(t, rate)
	assert.True(t, rate.IsRange)
	require.NotNil(t, rate.Value)
	assert.InDelta(t, 12.5, *rate.Value, 0.001)
	require.NotNil(t, rate.Min)
	assert.InDelta(t, 10, *rate.Min, 0.001)
	require.NotNil(t, rate.Max)
	assert.InDelta(t, 15, *rate.Max, 0.001)
}

func TestIngestClearsDroppedChildren(t *testing.T) {
	svc, _, products := newTestService(t)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, testRecord())
	require.NoError(t, err)
	require.Len(t, products.conditions[first.ProductID], 2)

	rec := testRecord()
	rec.Conditions = nil
	rec.PayrollDiscount = nil

	second, err := svc.Ingest(ctx, rec)
	require.NoError(t, err)

	assert.Empty(t, products.conditions[second.ProductID])
	assert.Empty(t, products.benefits[second.ProductID])
	assert.Len(t, products.requirements[second.ProductID], 2)
}

func TestIngestSkipsAmountTermsWhenAbsent(t *testing.T) {
	svc, _, products := newTestService(t)

	rec := testRecord()
	rec.MinAmount = nil
	rec.MaxAmount = nil
	rec.MaxTerm = nil

	result, err := svc.Ingest(context.Background(), rec)
	require.NoError(t, err)

	assert.Nil(t, products.amounts[result.ProductID])
}

func TestIngestRetriesCreateRaceAsUpdate(t *testing.T) {
	svc, _, products := newTestService(t)
	products.conflictOnCreate = true

	result, err := svc.Ingest(context.Background(), testRecord())
	require.NoError(t, err)

	assert.Equal(t, models.ActionUpdated, result.Action)
	assert.Len(t, products.products, 1)
}

func TestIngestRejectsBadExtractionDate(t *testing.T) {
	svc, _, _ := newTestService(t)

	rec := testRecord()
	rec.ExtractionDate = "15-01-2025"

	_, err := svc.Ingest(context.Background(), rec)
	require.Error(t, err)
}

func newTestService(t *testing.T) (*Service, *fakeCatalogs, *fakeProducts) {
	t.Helper()

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	catalogs := newFakeCatalogs()
	products := newFakeProducts()

	return NewService(&fakeDB{}, catalogs, products, logger), catalogs, products
}

func testRecord() models.IngestRecord {
	return models.IngestRecord{
		ExternalKey:     "bancolombia_hipotecario_vis_pesos",
		Bank:            "Bancolombia",
		CreditType:      "Crédito hipotecario para compra de vivienda",
		HousingType:     "VIS",
		Denomination:    "Pesos",
		Rate:            "12.50%",
		MaxAmount:       strPtr("$500M"),
		MaxTerm:         strPtr("20 años"),
		Conditions:      strPtr("Cuota inicial del 30%; Seguro de vida"),
		Requirements:    strPtr("Cédula; Certificado laboral"),
		PayrollDiscount: strPtr("-50 pbs con nómina"),
		Description:     "Crédito hipotecario en pesos para vivienda VIS",
		ExtractionDate:  "2025-01-15",
		ExtractionTime:  "06:00:00",
		SourceURL:       "https://example.com/hipotecario",
	}
}

type fakeDB struct{}

func (f *fakeDB) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	return ctx, &fakeTx{}, nil
}

type fakeTx struct {
	database.Tx
}

func (t *fakeTx) Commit(ctx context.Context) error   { return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeCatalogs struct {
	entities map[string]*models.FinancialEntity
}

func newFakeCatalogs() *fakeCatalogs {
	return &fakeCatalogs{entities: make(map[string]*models.FinancialEntity)}
}

func (f *fakeCatalogs) ResolveCreditType(ctx context.Context, text string) (string, error) {
	return "ct-" + parsers.MapCreditType(text), nil
}

func (f *fakeCatalogs) ResolveHousingType(ctx context.Context, text string) (string, error) {
	return "ht-" + parsers.MapHousingType(text), nil
}

func (f *fakeCatalogs) ResolveDenomination(ctx context.Context, text string) (string, error) {
	return "den-" + parsers.MapDenomination(text), nil
}

func (f *fakeCatalogs) ResolveRateType(ctx context.Context, text string) (string, error) {
	return "rt-" + parsers.MapRateType(text), nil
}

func (f *fakeCatalogs) ResolvePaymentType(ctx context.Context, text *string) (*string, error) {
	code := parsers.MapPaymentType(text)
	if code == nil {
		return nil, nil
	}
	id := "pt-" + *code
	return &id, nil
}

func (f *fakeCatalogs) ListCreditTypes(ctx context.Context) ([]models.CatalogItem, error) {
	return nil, nil
}

func (f *fakeCatalogs) ListHousingTypes(ctx context.Context) ([]models.CatalogItem, error) {
	return nil, nil
}

func (f *fakeCatalogs) ListDenominations(ctx context.Context) ([]models.CatalogItem, error) {
	return nil, nil
}

func (f *fakeCatalogs) ListRateTypes(ctx context.Context) ([]models.CatalogItem, error) {
	return nil, nil
}

func (f *fakeCatalogs) ListPaymentTypes(ctx context.Context) ([]models.CatalogItem, error) {
	return nil, nil
}

func (f *fakeCatalogs) GetOrCreateEntity(ctx context.Context, name, normalizedName string) (*models.FinancialEntity, error) {
	if entity, ok := f.entities[normalizedName]; ok {
		return entity, nil
	}
	entity := &models.FinancialEntity{
		ID:             "ent-" + normalizedName,
		Name:           name,
		NormalizedName: normalizedName,
		Active:         true,
	}
	f.entities[normalizedName] = entity
	return entity, nil
}

func (f *fakeCatalogs) ListEntities(ctx context.Context) ([]models.FinancialEntity, error) {
	return nil, nil
}

type fakeProducts struct {
	products         map[string]*models.CreditProduct
	byKey            map[string]string
	rates            map[string]*models.CurrentRate
	history          map[string][]models.AppendRateHistory
	amounts          map[string]*models.AmountTerms
	conditions       map[string][]models.NewCondition
	requirements     map[string][]models.NewRequirement
	benefits         map[string][]models.NewBenefit
	conflictOnCreate bool
	nextID           int
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{
		products:     make(map[string]*models.CreditProduct),
		byKey:        make(map[string]string),
		rates:        make(map[string]*models.CurrentRate),
		history:      make(map[string][]models.AppendRateHistory),
		amounts:      make(map[string]*models.AmountTerms),
		conditions:   make(map[string][]models.NewCondition),
		requirements: make(map[string][]models.NewRequirement),
		benefits:     make(map[string][]models.NewBenefit),
	}
}

func (f *fakeProducts) FindByExternalKey(ctx context.Context, externalKey string) (*models.CreditProduct, error) {
	id, ok := f.byKey[externalKey]
	if !ok {
		return nil, nil
	}
	return f.products[id], nil
}

func (f *fakeProducts) Create(ctx context.Context, req models.CreateCreditProduct) (*models.CreditProduct, error) {
	f.nextID++
	prod := &models.CreditProduct{
		ID:             fmt.Sprintf("prod-%d", f.nextID),
		ExternalKey:    req.ExternalKey,
		EntityID:       req.EntityID,
		CreditTypeID:   req.CreditTypeID,
		HousingTypeID:  req.HousingTypeID,
		DenominationID: req.DenominationID,
		RateTypeID:     req.RateTypeID,
		PaymentTypeID:  req.PaymentTypeID,
		Description:    req.Description,
		SourceURL:      req.SourceURL,
		RedirectURL:    req.RedirectURL,
		PDFURL:         req.PDFURL,
		ExtractionDate: req.ExtractionDate,
		ExtractionTime: req.ExtractionTime,
		Active:         true,
	}

	if f.conflictOnCreate {
		// Simulate a racer winning the insert
		f.conflictOnCreate = false
		f.products[prod.ID] = prod
		f.byKey[prod.ExternalKey] = prod.ID
		return nil, product.ErrDuplicateExternalKey
	}

	f.products[prod.ID] = prod
	f.byKey[prod.ExternalKey] = prod.ID
	return prod, nil
}

func (f *fakeProducts) Update(ctx context.Context, id string, req models.UpdateCreditProduct) (*models.CreditProduct, error) {
	prod, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	prod.Description = req.Description
	prod.SourceURL = req.SourceURL
	prod.RedirectURL = req.RedirectURL
	prod.PDFURL = req.PDFURL
	prod.ExtractionDate = req.ExtractionDate
	prod.ExtractionTime = req.ExtractionTime
	return prod, nil
}

func (f *fakeProducts) GetByID(ctx context.Context, id string) (*models.CreditProduct, error) {
	return f.products[id], nil
}

func (f *fakeProducts) GetDetail(ctx context.Context, id string) (*models.ProductDetail, error) {
	return nil, nil
}

func (f *fakeProducts) List(ctx context.Context, filter models.ProductFilter, page, pageSize int) ([]models.ProductSummary, int, error) {
	return nil, 0, nil
}

func (f *fakeProducts) GetCurrentRate(ctx context.Context, productID string) (*models.CurrentRate, error) {
	return f.rates[productID], nil
}

func (f *fakeProducts) UpsertCurrentRate(ctx context.Context, productID string, req models.UpsertCurrentRate) error {
	f.rates[productID] = &models.CurrentRate{
		ProductID:     productID,
		Value:         req.Value,
		OriginalText:  req.OriginalText,
		Min:           req.Min,
		Max:           req.Max,
		IsRange:       req.IsRange,
		EffectiveDate: req.EffectiveDate,
	}
	return nil
}

func (f *fakeProducts) AppendRateHistory(ctx context.Context, req models.AppendRateHistory) error {
	f.history[req.ProductID] = append(f.history[req.ProductID], req)
	return nil
}

func (f *fakeProducts) GetRateHistory(ctx context.Context, productID string, limit int) ([]models.RateHistoryEntry, error) {
	return nil, nil
}

func (f *fakeProducts) GetAmountTerms(ctx context.Context, productID string) (*models.AmountTerms, error) {
	return f.amounts[productID], nil
}

func (f *fakeProducts) UpsertAmountTerms(ctx context.Context, productID string, req models.UpsertAmountTerms) error {
	existing := f.amounts[productID]
	if existing == nil {
		existing = &models.AmountTerms{ProductID: productID}
		f.amounts[productID] = existing
	}
	if req.MinAmount != nil {
		existing.MinAmount = req.MinAmount
	}
	if req.MaxAmount != nil {
		existing.MaxAmount = req.MaxAmount
	}
	if req.MinTermMonths != nil {
		existing.MinTermMonths = req.MinTermMonths
	}
	if req.MaxTermMonths != nil {
		existing.MaxTermMonths = req.MaxTermMonths
	}
	return nil
}

func (f *fakeProducts) ReplaceConditions(ctx context.Context, productID string, items []models.NewCondition) error {
	f.conditions[productID] = items
	return nil
}

func (f *fakeProducts) ReplaceRequirements(ctx context.Context, productID string, items []models.NewRequirement) error {
	f.requirements[productID] = items
	return nil
}

func (f *fakeProducts) ReplaceBenefits(ctx context.Context, productID string, items []models.NewBenefit) error {
	f.benefits[productID] = items
	return nil
}

func strPtr(v string) *string { return &v }

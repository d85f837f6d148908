package product

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/financebro/api/internal/repositories/product"
	"github.com/financebro/api/pkg/models"
	"github.com/financebro/api/pkg/tracing"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Handler serves the public comparison read side.
type Handler struct {
	products product.ProductRepository
}

// NewHandler creates a new product handler
func NewHandler(products product.ProductRepository) *Handler {
	return &Handler{products: products}
}

// Register registers product routes
func Register(g *echo.Group, h *Handler) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/tasas/historico", h.RateHistory)
}

// List returns the filtered, paginated product listing
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "product_handler.List")
	defer span.End()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	filter := models.ProductFilter{
		EntityID:         c.QueryParam("entidad_id"),
		CreditTypeCode:   c.QueryParam("tipo_credito"),
		HousingTypeCode:  c.QueryParam("tipo_vivienda"),
		DenominationCode: c.QueryParam("denominacion"),
	}

	if filter.EntityID != "" {
		if _, err := uuid.Parse(filter.EntityID); err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "entidad_id must be a valid uuid")
		}
	}

	items, totalCount, err := h.products.List(ctx, filter, page, pageSize)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list products")
	}

	return c.JSON(http.StatusOK, models.ProductListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	})
}

// Get returns the full product detail
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "product_handler.Get")
	defer span.End()

	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id must be a valid uuid")
	}

	result, err := h.products.GetDetail(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get product")
	}
	if result == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "product not found")
	}

	return c.JSON(http.StatusOK, result)
}

// RateHistory returns the product's recent rate observations
func (h *Handler) RateHistory(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "product_handler.RateHistory")
	defer span.End()

	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id must be a valid uuid")
	}

	existing, err := h.products.GetByID(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get product")
	}
	if existing == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "product not found")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	items, err := h.products.GetRateHistory(ctx, id, limit)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get rate history")
	}

	return c.JSON(http.StatusOK, models.RateHistoryResponse{
		ProductID: id,
		Items:     items,
	})
}

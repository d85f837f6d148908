package catalog

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/financebro/api/internal/repositories/catalog"
	"github.com/financebro/api/pkg/models"
	"github.com/financebro/api/pkg/tracing"
	"github.com/labstack/echo/v4"
)

// Handler serves the reference data read side.
type Handler struct {
	catalogs catalog.CatalogRepository
}

// NewHandler creates a new catalog handler
func NewHandler(catalogs catalog.CatalogRepository) *Handler {
	return &Handler{catalogs: catalogs}
}

// Register registers catalog routes
func Register(g *echo.Group, h *Handler) {
	g.GET("/tipos-credito", h.CreditTypes)
	g.GET("/tipos-vivienda", h.HousingTypes)
	g.GET("/denominaciones", h.Denominations)
	g.GET("/tipos-tasa", h.RateTypes)
	g.GET("/tipos-pago", h.PaymentTypes)
	g.GET("/entidades", h.Entities)
}

// CreditTypes lists the seeded credit types
func (h *Handler) CreditTypes(c echo.Context) error {
	return h.listCatalog(c, "catalog_handler.CreditTypes", h.catalogs.ListCreditTypes)
}

// HousingTypes lists the seeded housing types
func (h *Handler) HousingTypes(c echo.Context) error {
	return h.listCatalog(c, "catalog_handler.HousingTypes", h.catalogs.ListHousingTypes)
}

// Denominations lists the seeded denominations
func (h *Handler) Denominations(c echo.Context) error {
	return h.listCatalog(c, "catalog_handler.Denominations", h.catalogs.ListDenominations)
}

// RateTypes lists the seeded rate types
func (h *Handler) RateTypes(c echo.Context) error {
	return h.listCatalog(c, "catalog_handler.RateTypes", h.catalogs.ListRateTypes)
}

// PaymentTypes lists the seeded payment types
func (h *Handler) PaymentTypes(c echo.Context) error {
	return h.listCatalog(c, "catalog_handler.PaymentTypes", h.catalogs.ListPaymentTypes)
}

// Entities lists the known financial entities
func (h *Handler) Entities(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "catalog_handler.Entities")
	defer span.End()

	items, err := h.catalogs.ListEntities(ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list entities")
	}

	return c.JSON(http.StatusOK, models.EntityListResponse{Items: items})
}

func (h *Handler) listCatalog(c echo.Context, spanName string, list func(context.Context) ([]models.CatalogItem, error)) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, spanName)
	defer span.End()

	items, err := list(ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list catalog")
	}

	return c.JSON(http.StatusOK, models.CatalogListResponse{Items: items})
}

package ingest

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/financebro/api/internal/repositories/execution"
	"github.com/financebro/api/pkg/ingestion"
	"github.com/financebro/api/pkg/models"
	"github.com/financebro/api/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Handler serves the scraper-facing ingestion endpoints.
type Handler struct {
	service    *ingestion.Service
	executions execution.ExecutionRepository
	logger     ectologger.Logger
}

// NewHandler creates a new ingest handler
func NewHandler(service *ingestion.Service, executions execution.ExecutionRepository, logger ectologger.Logger) *Handler {
	return &Handler{
		service:    service,
		executions: executions,
		logger:     logger,
	}
}

// Register registers the ingestion routes. The group is expected to carry the
// api key middleware.
func Register(g *echo.Group, h *Handler) {
	g.POST("/ingest", h.Ingest)
	g.POST("/executions", h.RecordExecution)
	g.PUT("/executions/:id", h.UpdateExecution)
	g.GET("/executions", h.ListExecutions)
}

// Ingest accepts one scraped product record
func (h *Handler) Ingest(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "ingest_handler.Ingest")
	defer span.End()

	var req models.IngestRecord
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Ingest(ctx, req)
	if err != nil {
		if httperror.IsHTTPError(err) {
			return err
		}
		h.logger.WithContext(ctx).WithError(err).Error("ingestion failed")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to ingest product")
	}

	return c.JSON(http.StatusCreated, models.IngestResponse{
		Success: true,
		Message: "producto procesado",
		Data:    result,
	})
}

// RecordExecution stores a batch report from the workflow engine
func (h *Handler) RecordExecution(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "ingest_handler.RecordExecution")
	defer span.End()

	var req models.RecordExecutionRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.executions.Record(ctx, req)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to record execution")
	}

	return c.JSON(http.StatusCreated, result)
}

// UpdateExecution rewrites the counters of an earlier batch report. The
// workflow engine calls this when a batch is retried.
func (h *Handler) UpdateExecution(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "ingest_handler.UpdateExecution")
	defer span.End()

	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid execution id")
	}

	var req models.RecordExecutionRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.executions.Update(ctx, id, req)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update execution")
	}
	if result == nil {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "execution '%s' not found", id)
	}

	return c.JSON(http.StatusOK, result)
}

// ListExecutions returns the most recent batch reports
func (h *Handler) ListExecutions(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "ingest_handler.ListExecutions")
	defer span.End()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	items, err := h.executions.List(ctx, limit)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list executions")
	}

	return c.JSON(http.StatusOK, models.ExecutionListResponse{Items: items})
}

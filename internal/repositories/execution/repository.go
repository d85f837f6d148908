package execution

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/financebro/api/pkg/database"
	"github.com/financebro/api/pkg/models"
	"github.com/financebro/api/pkg/tracing"
	"github.com/google/uuid"
)

// ExecutionRepository defines the interface for scrape execution bookkeeping.
type ExecutionRepository interface {
	Record(ctx context.Context, req models.RecordExecutionRequest) (*models.ScrapeExecution, error)
	Update(ctx context.Context, id string, req models.RecordExecutionRequest) (*models.ScrapeExecution, error)
	GetByID(ctx context.Context, id string) (*models.ScrapeExecution, error)
	List(ctx context.Context, limit int) ([]models.ScrapeExecution, error)
}

// Repository implements ExecutionRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new execution repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "scrape_executions"

var columns = []string{"id", "entity_name", "processed", "created", "updated", "errors", "created_at"}

// Record stores one batch report.
func (r *Repository) Record(ctx context.Context, req models.RecordExecutionRequest) (*models.ScrapeExecution, error) {
	ctx, span := tracing.StartSpan(ctx, "ExecutionRepository.Record")
	defer span.End()

	id := uuid.New().String()

	sb := database.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols(columns...)
	sb.Values(id, req.EntityName, req.Processed, req.Created, req.Updated, req.Errors, time.Now())

	query, args := sb.Build()

	if _, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to record execution")
		return nil, fmt.Errorf("failed to record execution: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":          id,
		"entity_name": req.EntityName,
		"processed":   req.Processed,
	}).Info("recorded scrape execution")

	return r.GetByID(ctx, id)
}

// Update amends a previously reported batch, for workflows that report counts
// as they go.
func (r *Repository) Update(ctx context.Context, id string, req models.RecordExecutionRequest) (*models.ScrapeExecution, error) {
	ctx, span := tracing.StartSpan(ctx, "ExecutionRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(tableName)
	ub.Set(
		ub.Assign("entity_name", req.EntityName),
		ub.Assign("processed", req.Processed),
		ub.Assign("created", req.Created),
		ub.Assign("updated", req.Updated),
		ub.Assign("errors", req.Errors),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()

	result, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update execution")
		return nil, fmt.Errorf("failed to update execution: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// GetByID gets an execution by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.ScrapeExecution, error) {
	ctx, span := tracing.StartSpan(ctx, "ExecutionRepository.GetByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var exec models.ScrapeExecution
	err := database.FromContext(ctx, r.db).GetContext(ctx, &exec, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get execution")
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	return &exec, nil
}

// List returns the most recent executions first.
func (r *Repository) List(ctx context.Context, limit int) ([]models.ScrapeExecution, error) {
	ctx, span := tracing.StartSpan(ctx, "ExecutionRepository.List")
	defer span.End()

	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()

	var items []models.ScrapeExecution
	err := database.FromContext(ctx, r.db).SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list executions")
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return items, nil
}

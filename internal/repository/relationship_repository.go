package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mentorhub/mentorhub-api/internal/models"
	apperrors "github.com/mentorhub/mentorhub-api/pkg/errors"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"go.uber.org/zap"
)

const relationshipColumns = `id, mentor_id, mentee_id, status, created_at, updated_at`

// RelationshipRepositoryInterface defines the interface for mentor-mentee
// relationship data access
type RelationshipRepositoryInterface interface {
	GetActiveByPair(ctx context.Context, mentorID, menteeID string) (*models.MentorMenteeRelationship, error)
	GetByUser(ctx context.Context, userID string) ([]*models.MentorMenteeRelationship, error)
	SetStatus(ctx context.Context, id string, status models.RelationshipStatus) error
}

// RelationshipRepository handles relationship data access. Relationship rows
// are created inside the request-accept transaction, not here.
type RelationshipRepository struct {
	pool *pgxpool.Pool
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(pool *pgxpool.Pool) *RelationshipRepository {
	return &RelationshipRepository{
		pool: pool,
	}
}

// GetActiveByPair retrieves the active relationship for a (mentor, mentee)
// pair. Used as the booking gate for mentee-initiated sessions.
func (r *RelationshipRepository) GetActiveByPair(ctx context.Context, mentorID, menteeID string) (*models.MentorMenteeRelationship, error) {
	start := time.Now()
	operation := "getRelationshipByPair"

	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM relationships
		WHERE mentor_id = $1 AND mentee_id = $2 AND status = $3`, relationshipColumns),
		mentorID, menteeID, models.RelationshipStatusActive)

	rel, err := models.ScanRelationship(row)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			recordMetrics(operation, "not_found", duration)
			return nil, apperrors.NotFoundError("relationship")
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to fetch relationship: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return rel, nil
}

// GetByUser retrieves all relationships where the user participates as
// either party
func (r *RelationshipRepository) GetByUser(ctx context.Context, userID string) ([]*models.MentorMenteeRelationship, error) {
	start := time.Now()
	operation := "getRelationshipsByUser"

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM relationships
		WHERE mentor_id = $1 OR mentee_id = $1
		ORDER BY created_at DESC`, relationshipColumns),
		userID)
	if err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to fetch relationships: %w", err)
	}
	defer rows.Close()

	relationships := []*models.MentorMenteeRelationship{}
	for rows.Next() {
		rel, err := models.ScanRelationship(rows)
		if err != nil {
			duration := metrics.MeasureDuration(start)
			recordMetrics(operation, "error", duration)
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		relationships = append(relationships, rel)
	}
	if err := rows.Err(); err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		return nil, fmt.Errorf("failed to read relationships: %w", err)
	}

	duration := metrics.MeasureDuration(start)
	recordMetrics(operation, "success", duration)
	return relationships, nil
}

// SetStatus updates a relationship's status
func (r *RelationshipRepository) SetStatus(ctx context.Context, id string, status models.RelationshipStatus) error {
	start := time.Now()
	operation := "setRelationshipStatus"

	tag, err := r.pool.Exec(ctx,
		`UPDATE relationships SET status = $2, updated_at = now() WHERE id = $1`,
		id, status)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to update relationship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		recordMetrics(operation, "not_found", duration)
		return apperrors.NotFoundError("relationship")
	}

	recordMetrics(operation, "success", duration)
	return nil
}

var _ RelationshipRepositoryInterface = (*RelationshipRepository)(nil)
